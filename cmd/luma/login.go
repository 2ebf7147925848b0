package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	configstore "github.com/luma-home/luma/internal/config/store"
)

func newLoginCommand() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:           "login",
		Short:         "Log in to the Luma cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          cloudLogin,
	}
	loginCmd.Flags().String("email", "", "Account email (prompted when omitted)")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted; prefer the prompt)")
	loginCmd.Flags().String("local-token", "", "Also store a local hub API token")
	return loginCmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Discard stored cloud credentials",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          cloudLogout,
	}
}

func cloudLogin(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	localToken, _ := cmd.Flags().GetString("local-token")

	if email == "" {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return out.Error("Failed to read email", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return out.Error("Email is required", nil)
	}

	if password == "" {
		if !terminal.IsTerminal(int(os.Stdin.Fd())) {
			return out.Error("No password given and stdin is not a terminal; use --password", nil)
		}
		fmt.Print("Password: ")
		secret, err := terminal.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return out.Error("Failed to read password", err)
		}
		password = string(secret)
	}
	if password == "" {
		return out.Error("Password is required", nil)
	}

	c, cleanup, err := newApp(ctx)
	if err != nil {
		return out.Error("Failed to initialise client", err)
	}
	defer cleanup()

	result, err := c.Cloud.Login(ctx, email, password)
	if err != nil {
		return out.Error("Cloud login failed", err)
	}

	if localToken != "" {
		if err := c.Store.SaveLocalToken(ctx, localToken); err != nil {
			return out.Error("Failed to store local token", err)
		}
	}

	homes := make([]map[string]string, 0, len(result.Homes))
	for _, h := range result.Homes {
		homes = append(homes, map[string]string{"id": h.ID, "name": h.Name})
	}
	return out.Success(
		fmt.Sprintf("Logged in as %s (%d home(s) on the account)", email, len(result.Homes)),
		map[string]interface{}{"email": email, "homes": homes},
	)
}

func cloudLogout(cmd *cobra.Command, args []string) error {
	out := newOutputFormatter(cmd)
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	store, err := openStore(false)
	if err != nil {
		return out.Error("Failed to open configuration", err)
	}
	defer store.Close()

	if err := store.ClearCloudSession(ctx); err != nil && !configstore.IsNotFound(err) {
		return out.Error("Failed to clear cloud session", err)
	}
	return out.Success("Logged out.", nil)
}
