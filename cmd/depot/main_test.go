package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// writeDepotConfig writes a config pointing at a sqlite database inside a
// temp dir and returns the config path.
func writeDepotConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "depot.yaml")
	cfg := fmt.Sprintf("database:\n  driver: sqlite\n  path: %s\n", filepath.Join(dir, "depot.db"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func clearGitLabEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITLAB_URL", "")
	t.Setenv("GITLAB_TOKEN", "")
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "depot dev") {
		t.Errorf("expected output to contain 'depot dev', got: %s", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("expected output to contain 'commit: none', got: %s", out)
	}
}

func TestVersionCmdWithCustomValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	Version, Commit, Date = "1.0.0", "abc123", "2026-01-01"
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "depot 1.0.0") {
		t.Errorf("expected output to contain 'depot 1.0.0', got: %s", out)
	}
	if !strings.Contains(out, "commit: abc123") {
		t.Errorf("expected output to contain 'commit: abc123', got: %s", out)
	}
	if !strings.Contains(out, "built: 2026-01-01") {
		t.Errorf("expected output to contain 'built: 2026-01-01', got: %s", out)
	}
}

func TestRootCmdHelp(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Depot") {
		t.Errorf("expected help output to contain 'Depot', got: %s", out)
	}
	for _, sub := range []string{"version", "db", "config", "sync", "serve", "status"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help output to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestExecuteSuccess(t *testing.T) {
	code := execute(newRootCmd())
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestExecuteError(t *testing.T) {
	cmd := &cobra.Command{
		Use:           "failing",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("intentional error")
		},
	}
	code := execute(cmd)
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestOpenStore_DefaultsWhenConfigMissing(t *testing.T) {
	dir := t.TempDir()
	// No config file: defaults apply, but point the sqlite path somewhere
	// writable by using a config that does exist.
	cfgPath := filepath.Join(dir, "depot.yaml")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf("database:\n  path: %s\n", filepath.Join(dir, "depot.db"))), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, st, err := openStore(cfgPath)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if st == nil {
		t.Fatal("store is nil")
	}
}

func TestResolveClient_Unconfigured(t *testing.T) {
	clearGitLabEnv(t)
	cfgPath := writeDepotConfig(t)

	cfg, st, err := openStore(cfgPath)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}

	_, _, err = resolveClient(cfg, st)
	if err == nil {
		t.Fatal("expected error without credentials")
	}
}
