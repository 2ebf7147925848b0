package main

import (
	"fmt"

	"github.com/spf13/cobra"

	lumaversion "github.com/luma-home/luma/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the client version",
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := newOutputFormatter(cmd)
	clientVersion := lumaversion.String()

	if out.jsonMode {
		return out.Print(map[string]any{"client": clientVersion})
	}
	fmt.Printf("Client: %s\n", lumaversion.FormatVersion(clientVersion))
	return nil
}
