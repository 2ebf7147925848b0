package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func listHomes(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	refreshMode(ctx, c, "")
	homes, err := c.Dispatcher.Homes(ctx)
	if err != nil {
		return reportError(out, "Failed to list homes", err)
	}

	if out.jsonMode {
		return out.Print(homes)
	}
	if len(homes) == 0 {
		fmt.Println("No homes found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, h := range homes {
		fmt.Fprintf(w, "%s\t%s\n", h.ID, h.Name)
	}
	return w.Flush()
}

func listDevices(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	explicit := ""
	if len(args) > 0 {
		explicit = args[0]
	}
	refreshMode(ctx, c, explicit)

	homeID, err := resolveHomeID(ctx, c, explicit)
	if err != nil {
		return reportError(out, "Failed to resolve home", err)
	}

	devices, err := c.Dispatcher.Devices(ctx, homeID)
	if err != nil {
		return reportError(out, "Failed to list devices", err)
	}

	if out.jsonMode {
		return out.Print(devices)
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tROOM\tENTITIES")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", d.ID, d.Name, d.Type, d.Room, len(d.Entities))
	}
	return w.Flush()
}
