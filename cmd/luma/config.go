package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luma-home/luma/internal/bootstrap"
	configstore "github.com/luma-home/luma/internal/config/store"
	"github.com/luma-home/luma/internal/transport"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:           "config",
		Short:         "Configuration management commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serverCmd := &cobra.Command{
		Use:           "server",
		Short:         "Show or set the local hub address",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configServer,
	}
	serverCmd.Flags().String("host", "", "Hub hostname or IP on the local network")
	serverCmd.Flags().Int("port", 0, "Hub API port")

	cloudCmd := &cobra.Command{
		Use:           "cloud",
		Short:         "Show or set cloud transport preferences",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configCloud,
	}
	cloudCmd.Flags().Bool("enable", false, "Allow falling back to the cloud relay")
	cloudCmd.Flags().Bool("disable", false, "Never use the cloud relay")
	cloudCmd.Flags().Bool("force-only", false, "Prefer the cloud relay even on the LAN")
	cloudCmd.Flags().Bool("no-force-only", false, "Clear the cloud-only override")
	cloudCmd.Flags().String("url", "", "Override the cloud relay base URL")

	unpairCmd := &cobra.Command{
		Use:           "unpair",
		Short:         "Forget the cached cloud gateway identity",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configUnpair,
	}

	bootstrapCmd := &cobra.Command{
		Use:           "bootstrap",
		Short:         "Show, set, or clear the bootstrap override file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          configBootstrap,
	}
	bootstrapCmd.Flags().String("host", "", "Override hub host")
	bootstrapCmd.Flags().Int("port", 0, "Override hub port")
	bootstrapCmd.Flags().String("cloud-url", "", "Override cloud relay URL")
	bootstrapCmd.Flags().String("local-token", "", "Override local API token")
	bootstrapCmd.Flags().String("name", "", "Optional label for this override")
	bootstrapCmd.Flags().Bool("clear", false, "Remove the bootstrap file")

	configCmd.AddCommand(serverCmd, cloudCmd, unpairCmd, bootstrapCmd)
	return configCmd
}

func configServer(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	store, err := openStore(false)
	if err != nil {
		return out.Error("Failed to open configuration", err)
	}
	defer store.Close()

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	if !cmd.Flags().Changed("host") && !cmd.Flags().Changed("port") {
		addr, err := store.GetServerAddress(ctx)
		if configstore.IsNotFound(err) {
			return out.Print("No hub address configured.")
		}
		if err != nil {
			return out.Error("Failed to read hub address", err)
		}
		if out.jsonMode {
			return out.Print(map[string]interface{}{"host": addr.Host, "port": addr.Port, "url": addr.BaseURL()})
		}
		return out.Print(fmt.Sprintf("Hub address: %s", addr.BaseURL()))
	}

	if host == "" || port == 0 {
		return out.Error("Both --host and --port are required to set the hub address", nil)
	}
	if err := store.SaveServerAddress(ctx, configstore.ServerAddress{Host: host, Port: port}); err != nil {
		return out.Error("Failed to store hub address", err)
	}
	return out.Success(
		fmt.Sprintf("Hub address set to http://%s:%d", host, port),
		map[string]interface{}{"host": host, "port": port},
	)
}

func configCloud(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	store, err := openStore(false)
	if err != nil {
		return out.Error("Failed to open configuration", err)
	}
	defer store.Close()

	enable, _ := cmd.Flags().GetBool("enable")
	disable, _ := cmd.Flags().GetBool("disable")
	forceOnly, _ := cmd.Flags().GetBool("force-only")
	noForceOnly, _ := cmd.Flags().GetBool("no-force-only")
	cloudURL, _ := cmd.Flags().GetString("url")

	if enable && disable {
		return out.Error("--enable and --disable are mutually exclusive", nil)
	}
	if forceOnly && noForceOnly {
		return out.Error("--force-only and --no-force-only are mutually exclusive", nil)
	}

	prefs, err := store.GetNetworkPreferences(ctx)
	if err != nil {
		return out.Error("Failed to read preferences", err)
	}

	changed := false
	if enable {
		prefs.CloudEnabled = true
		changed = true
	}
	if disable {
		prefs.CloudEnabled = false
		changed = true
	}
	if forceOnly {
		prefs.ForceCloudOnly = true
		changed = true
	}
	if noForceOnly {
		prefs.ForceCloudOnly = false
		changed = true
	}
	if changed {
		if err := store.SaveNetworkPreferences(ctx, prefs); err != nil {
			return out.Error("Failed to store preferences", err)
		}
	}
	if cloudURL != "" {
		if err := store.SaveCloudBaseURL(ctx, cloudURL); err != nil {
			return out.Error("Failed to store cloud URL", err)
		}
		changed = true
	}

	url, err := store.GetCloudBaseURL(ctx, transport.DefaultCloudURL)
	if err != nil {
		url = transport.DefaultCloudURL
	}
	if out.jsonMode {
		return out.Print(map[string]interface{}{
			"cloud_enabled":    prefs.CloudEnabled,
			"force_cloud_only": prefs.ForceCloudOnly,
			"cloud_url":        url,
			"changed":          changed,
		})
	}
	fmt.Printf("Cloud enabled:    %t\n", prefs.CloudEnabled)
	fmt.Printf("Force cloud only: %t\n", prefs.ForceCloudOnly)
	fmt.Printf("Cloud URL:        %s\n", url)
	return nil
}

func configUnpair(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	store, err := openStore(false)
	if err != nil {
		return out.Error("Failed to open configuration", err)
	}
	defer store.Close()

	if err := store.ClearGatewayID(ctx); err != nil {
		return out.Error("Failed to clear gateway identity", err)
	}
	return out.Success("Gateway identity cleared. It will be re-discovered on the next cloud request.", nil)
}

func configBootstrap(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)

	clear, _ := cmd.Flags().GetBool("clear")
	if clear {
		if err := bootstrap.Clear(); err != nil {
			return out.Error("Failed to remove bootstrap file", err)
		}
		return out.Success("Bootstrap file removed.", nil)
	}

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	cloudURL, _ := cmd.Flags().GetString("cloud-url")
	localToken, _ := cmd.Flags().GetString("local-token")
	name, _ := cmd.Flags().GetString("name")

	if host == "" && cloudURL == "" && localToken == "" {
		cfg, err := bootstrap.Load()
		if err != nil {
			return out.Error("Failed to read bootstrap file", err)
		}
		if cfg == nil {
			return out.Print("No bootstrap file present.")
		}
		return out.Print(map[string]interface{}{
			"server_host": cfg.ServerHost,
			"server_port": cfg.ServerPort,
			"cloud_url":   cfg.CloudURL,
			"has_token":   cfg.LocalToken != "",
			"name":        cfg.Name,
			"updated_at":  cfg.UpdatedAt,
		})
	}

	cfg, err := bootstrap.Load()
	if err != nil {
		return out.Error("Failed to read bootstrap file", err)
	}
	if cfg == nil {
		cfg = &bootstrap.Config{}
	}
	if host != "" {
		cfg.ServerHost = host
	}
	if cmd.Flags().Changed("port") {
		cfg.ServerPort = port
	}
	if cloudURL != "" {
		cfg.CloudURL = cloudURL
	}
	if localToken != "" {
		cfg.LocalToken = localToken
	}
	if name != "" {
		cfg.Name = name
	}

	if err := bootstrap.Save(cfg); err != nil {
		return out.Error("Failed to write bootstrap file", err)
	}
	return out.Success(fmt.Sprintf("Bootstrap overrides written to %s", bootstrap.Path()), nil)
}
