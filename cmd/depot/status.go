package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulandar/depot/internal/syncer"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog freshness and counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	svc := syncer.New(st, nil, syncer.Opts{})
	report, err := svc.Status()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sync status:   %s\n", report.State)
	if report.LastFullSync != nil {
		fmt.Fprintf(out, "Last full sync: %s\n", report.LastFullSync.Format("2006-01-02 15:04:05"))
	}
	if report.ErrorMessage != "" {
		fmt.Fprintf(out, "Last error:    %s\n", report.ErrorMessage)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Groups:    %d (%d subgroups)\n", report.Stats.TotalGroups, report.Stats.TotalSubgroups)
	fmt.Fprintf(out, "Projects:  %d\n", report.Stats.TotalProjects)
	if report.Stats.LastUpdated != nil {
		fmt.Fprintf(out, "Updated:   %s\n", report.Stats.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	return nil
}
