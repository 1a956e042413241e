package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/gitlab"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage GitLab credentials",
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigTestCmd())
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	var (
		configPath string
		url        string
		token      string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save GitLab URL and access token",
		Long: `Validates and stores GitLab credentials in the local database. The token
is prompted for interactively when not passed with --token, so it stays
out of shell history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, configPath, url, token)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().StringVar(&url, "url", "", "GitLab instance URL, e.g. https://gitlab.example.com")
	cmd.Flags().StringVar(&token, "token", "", "personal access token (prompted when omitted)")
	return cmd
}

func runConfigSet(cmd *cobra.Command, configPath, url, token string) error {
	out := cmd.OutOrStdout()

	if url == "" {
		fmt.Fprint(out, "GitLab URL: ")
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			url = strings.TrimSpace(scanner.Text())
		}
	}
	url = strings.TrimRight(strings.TrimSpace(url), "/")

	if token == "" {
		var err error
		token, err = promptToken(cmd)
		if err != nil {
			return err
		}
	}

	if err := config.ValidateCredentials(url, token); err != nil {
		return err
	}

	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	client := gitlab.New(url, token)
	user, err := client.TestConnection(cmd.Context())
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	fmt.Fprintf(out, "Connected to %s as %s\n", url, user)

	if err := st.SaveConfig(url, token); err != nil {
		return err
	}
	fmt.Fprintln(out, "Credentials saved.")
	return nil
}

// promptToken reads the access token without echo when stdin is a terminal.
func promptToken(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Access token: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	// Piped input.
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", fmt.Errorf("read token: no input")
}

func newConfigShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved GitLab configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runConfigShow(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	creds, from, err := config.Resolve(config.DefaultChain(cfg, st, "depot.yaml.template")...)
	if err != nil {
		fmt.Fprintln(out, "GitLab is not configured.")
		fmt.Fprintln(out, "Set GITLAB_URL and GITLAB_TOKEN, or run \"depot config set\".")
		return nil
	}

	fmt.Fprintf(out, "URL:    %s\n", creds.URL)
	fmt.Fprintf(out, "Token:  %s\n", maskToken(creds.Token))
	fmt.Fprintf(out, "Source: %s\n", from)
	return nil
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", len(token)-4)
}

func newConfigTestCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the GitLab connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigTest(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runConfigTest(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	client, from, err := resolveClient(cfg, st)
	if err != nil {
		return err
	}

	user, err := client.TestConnection(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Connected to %s as %s (credentials from %s)\n", client.BaseURL(), user, from)
	return nil
}
