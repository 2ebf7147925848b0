package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lumaversion "github.com/luma-home/luma/internal/version"
)

// Global variables for use across commands
var rootCmd *cobra.Command

// OutputFormatter handles output in JSON or human-readable format
type OutputFormatter struct {
	jsonMode bool
}

// newOutputFormatter creates a new formatter based on the command's --json flag
func newOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return &OutputFormatter{jsonMode: jsonMode}
}

// Print outputs data in the appropriate format
func (f *OutputFormatter) Print(data interface{}) error {
	if f.jsonMode {
		jsonBytes, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
	} else {
		switch v := data.(type) {
		case string:
			fmt.Println(v)
		default:
			// Fallback to JSON for unknown types
			jsonBytes, _ := json.MarshalIndent(data, "", "  ")
			fmt.Println(string(jsonBytes))
		}
	}
	return nil
}

// Success outputs a success message
func (f *OutputFormatter) Success(message string, data map[string]interface{}) error {
	if f.jsonMode {
		output := map[string]interface{}{
			"success": true,
			"message": message,
		}
		for k, v := range data {
			output[k] = v
		}
		return f.Print(output)
	}
	fmt.Println(message)
	return nil
}

// Error outputs an error message
func (f *OutputFormatter) Error(message string, err error) error {
	if f.jsonMode {
		output := map[string]interface{}{
			"success": false,
			"error":   message,
		}
		if err != nil {
			output["details"] = err.Error()
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(os.Stderr, string(jsonBytes))
	} else {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", message, err)
		} else {
			fmt.Fprintln(os.Stderr, message)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", message, err)
	}
	return fmt.Errorf("%s", message)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "luma",
		Short: "Luma - control your home from the LAN or through the cloud",
		Long: `Luma talks to your home hub directly on the local network when it can,
and falls back to the cloud relay when it cannot. Commands pick the
transport automatically; use "luma status" to see which one is active.`,
	}
	rootCmd.Version = lumaversion.String()
	rootCmd.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	// Add global --json flag
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
}

func main() {
	homesCmd := &cobra.Command{
		Use:           "homes",
		Short:         "List homes visible on the active transport",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          listHomes,
	}

	devicesCmd := &cobra.Command{
		Use:           "devices [home-id]",
		Short:         "List devices of a home",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          listDevices,
	}

	controlCmd := &cobra.Command{
		Use:           "control <entity-id> <attribute> <value>",
		Short:         "Set an entity attribute (e.g. brightness 40)",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          controlEntity,
	}
	controlCmd.Flags().String("home", "", "Home the entity belongs to (cloud mode)")
	controlCmd.Example = `  luma control lamp-livingroom power on
  luma control lamp-livingroom brightness 40
  luma control thermostat-hall target_temperature 21.5`

	scenesCmd := &cobra.Command{
		Use:           "scenes [home-id]",
		Short:         "List scenes of a home",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          listScenes,
	}

	sceneRunCmd := &cobra.Command{
		Use:           "run <scene-id>",
		Short:         "Run a scene",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScene,
	}
	sceneRunCmd.Flags().String("home", "", "Home the scene belongs to (cloud mode)")
	scenesCmd.AddCommand(sceneRunCmd)

	automationsCmd := &cobra.Command{
		Use:           "automations [home-id]",
		Short:         "List automation rules of a home",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          listAutomations,
	}

	statusCmd := &cobra.Command{
		Use:           "status",
		Short:         "Show the resolved network mode and transport reachability",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          showStatus,
	}
	statusCmd.Flags().String("home", "", "Home to resolve the mode for")

	watchCmd := &cobra.Command{
		Use:           "watch [home-id]",
		Short:         "Stream live entity state events (Ctrl-C to stop)",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          watchEvents,
	}
	watchCmd.Flags().Bool("raw", false, "Print every event payload instead of decoded entity states")

	rootCmd.AddCommand(
		homesCmd,
		devicesCmd,
		controlCmd,
		scenesCmd,
		automationsCmd,
		sceneRunCmd2(),
		statusCmd,
		watchCmd,
		newLoginCommand(),
		newLogoutCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// sceneRunCmd2 keeps "luma run" available as a shorthand for "luma scenes run".
func sceneRunCmd2() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run <scene-id>",
		Short:         "Run a scene",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScene,
	}
	cmd.Flags().String("home", "", "Home the scene belongs to (cloud mode)")
	return cmd
}
