package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/netmode"
)

func showStatus(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	home, _ := cmd.Flags().GetString("home")
	mode := refreshMode(ctx, c, home)

	eps, err := c.Endpoints.Endpoints(ctx)
	if err != nil {
		return out.Error("Failed to resolve endpoints", err)
	}
	prefs, err := c.Store.GetNetworkPreferences(ctx)
	if err != nil {
		prefs = configstore.NetworkPreferences{}
	}

	gatewayID := ""
	if id, err := c.Store.GetGatewayID(ctx); err == nil {
		gatewayID = id
	}

	status := map[string]interface{}{
		"mode":             mode.String(),
		"local_endpoint":   eps.LocalBaseURL,
		"cloud_endpoint":   eps.CloudBaseURL,
		"cloud_enabled":    prefs.CloudEnabled,
		"force_cloud_only": prefs.ForceCloudOnly,
		"gateway_id":       gatewayID,
	}
	if out.jsonMode {
		return out.Print(status)
	}

	fmt.Printf("Mode:             %s\n", mode)
	if eps.LocalBaseURL == "" {
		fmt.Println("Local endpoint:   (not configured)")
	} else {
		fmt.Printf("Local endpoint:   %s\n", eps.LocalBaseURL)
	}
	fmt.Printf("Cloud endpoint:   %s\n", eps.CloudBaseURL)
	fmt.Printf("Cloud enabled:    %t\n", prefs.CloudEnabled)
	fmt.Printf("Force cloud only: %t\n", prefs.ForceCloudOnly)
	if gatewayID != "" {
		fmt.Printf("Gateway:          %s\n", gatewayID)
	} else {
		fmt.Println("Gateway:          (not paired)")
	}

	if mode == netmode.ModeOffline {
		fmt.Println()
		fmt.Println("Neither transport is reachable right now.")
	}
	return nil
}
