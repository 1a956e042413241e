package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/depot/internal/notify"
	"github.com/zulandar/depot/internal/server"
	"github.com/zulandar/depot/internal/syncer"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Depot API server",
		Long: `Serves the catalog over HTTP. Reads come from the local database with a
live-API fallback. When sync.schedule is set in the config, full syncs run
on that cron schedule in the background.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "depot.yaml", "path to Depot config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return err
	}

	var notifierIface syncer.Notifier
	if notifier != nil {
		notifierIface = notifier
	}

	srv, err := server.New(server.Opts{
		Store:    st,
		Config:   cfg,
		Notifier: notifierIface,
		Out:      out,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sync.Schedule != "" {
		client, from, err := resolveClient(cfg, st)
		if err != nil {
			fmt.Fprintf(out, "Scheduled sync disabled: %v\n", err)
		} else {
			svc := syncer.New(st, client, syncer.Opts{
				Workers:  cfg.Sync.Workers,
				Notifier: notifierIface,
			})
			if err := svc.Schedule(ctx, cfg.Sync.Schedule); err != nil {
				return err
			}
			fmt.Fprintf(out, "Scheduled full sync %q against %s (credentials from %s)\n", cfg.Sync.Schedule, client.BaseURL(), from)
		}
	}

	return srv.Start(ctx)
}
