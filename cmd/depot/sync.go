package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zulandar/depot/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the catalog from GitLab",
	}

	cmd.AddCommand(newSyncFullCmd())
	cmd.AddCommand(newSyncProjectCmd())
	return cmd
}

func newSyncFullCmd() *cobra.Command {
	var (
		configPath string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Run a full hierarchy sync",
		Long:  "Mirrors all groups, subgroups, projects, pipelines, and branches into the local database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncFull(cmd, configPath, workers)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().IntVar(&workers, "workers", 0, "per-stage fan-out bound (default from config)")
	return cmd
}

func runSyncFull(cmd *cobra.Command, configPath string, workers int) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	client, from, err := resolveClient(cfg, st)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Syncing from %s (credentials from %s)\n", client.BaseURL(), from)

	if workers == 0 {
		workers = cfg.Sync.Workers
	}
	svc := syncer.New(st, client, syncer.Opts{Workers: workers})

	result, err := svc.FullSync(cmd.Context())
	if result != nil {
		printResult(out, result)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nFull sync completed.")
	return nil
}

func printResult(out io.Writer, res *syncer.Result) {
	printTally(out, "Groups", res.Groups)
	printTally(out, "Projects", res.Projects)
	printTally(out, "Pipelines", res.Pipelines)
	printTally(out, "Branches", res.Branches)
}

func printTally(out io.Writer, stage string, t syncer.Tally) {
	fmt.Fprintf(out, "%-10s %d synced, %d failed\n", stage, t.Succeeded, t.Failed)
	for _, msg := range t.Errors {
		fmt.Fprintf(out, "           %s\n", msg)
	}
}

func newSyncProjectCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "project <id>",
		Short: "Refresh pipelines and branches for one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("project id must be numeric, got %q", args[0])
			}
			return runSyncProject(cmd, configPath, id)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runSyncProject(cmd *cobra.Command, configPath string, projectID int64) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	client, _, err := resolveClient(cfg, st)
	if err != nil {
		return err
	}

	svc := syncer.New(st, client, syncer.Opts{Workers: cfg.Sync.Workers})
	result, err := svc.SyncProject(cmd.Context(), projectID)
	if result != nil {
		printTally(out, "Pipelines", result.Pipelines)
		printTally(out, "Branches", result.Branches)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nProject %d refreshed.\n", projectID)
	return nil
}
