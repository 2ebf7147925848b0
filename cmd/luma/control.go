package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/luma-home/luma/internal/client"
)

func controlEntity(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	entityID, attribute, rawValue := args[0], args[1], args[2]
	home, _ := cmd.Flags().GetString("home")

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	mode := refreshMode(ctx, c, home)

	command := client.ControlCommand{Attribute: attribute, Value: parseValue(rawValue)}
	if err := c.Dispatcher.ControlEntity(ctx, home, entityID, command); err != nil {
		return reportError(out, fmt.Sprintf("Failed to control %s", entityID), err)
	}

	return out.Success(
		fmt.Sprintf("Set %s.%s = %s (via %s)", entityID, attribute, rawValue, mode),
		map[string]interface{}{"entity": entityID, "attribute": attribute, "mode": mode.String()},
	)
}

func runScene(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	sceneID := args[0]
	home, _ := cmd.Flags().GetString("home")

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	mode := refreshMode(ctx, c, home)

	if err := c.Dispatcher.RunScene(ctx, home, sceneID); err != nil {
		return reportError(out, fmt.Sprintf("Failed to run scene %s", sceneID), err)
	}
	return out.Success(
		fmt.Sprintf("Scene %s triggered (via %s)", sceneID, mode),
		map[string]interface{}{"scene": sceneID, "mode": mode.String()},
	)
}

func listScenes(cmd *cobra.Command, args []string) error {
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

	scenes, err := c.Dispatcher.Scenes(ctx, homeID)
	if err != nil {
		return reportError(out, "Failed to list scenes", err)
	}

	if out.jsonMode {
		return out.Print(scenes)
	}
	if len(scenes) == 0 {
		fmt.Println("No scenes found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, s := range scenes {
		fmt.Fprintf(w, "%s\t%s\n", s.ID, s.Name)
	}
	return w.Flush()
}

func listAutomations(cmd *cobra.Command, args []string) error {
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

	automations, err := c.Dispatcher.Automations(ctx, homeID)
	if err != nil {
		return reportError(out, "Failed to list automations", err)
	}

	if out.jsonMode {
		return out.Print(automations)
	}
	if len(automations) == 0 {
		fmt.Println("No automations found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENABLED")
	for _, a := range automations {
		fmt.Fprintf(w, "%s\t%s\t%t\n", a.ID, a.Name, a.Enabled)
	}
	return w.Flush()
}
