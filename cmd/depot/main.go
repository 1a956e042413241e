package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/db"
	"github.com/zulandar/depot/internal/gitlab"
	"github.com/zulandar/depot/internal/store"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depot",
		Short: "Depot — local GitLab catalog mirror",
		Long:  "Depot mirrors a GitLab group hierarchy (groups, projects, pipelines, branches) into a local database and serves it over HTTP.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "depot %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// openStore loads the config file and opens the catalog database.
func openStore(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(db.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.New(gormDB), nil
}

// resolveClient builds a GitLab client from the standard credential chain.
func resolveClient(cfg *config.Config, st *store.Store) (*gitlab.Client, string, error) {
	creds, from, err := config.Resolve(config.DefaultChain(cfg, st, "depot.yaml.template")...)
	if err != nil {
		return nil, "", err
	}
	return gitlab.New(creds.URL, creds.Token), from, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
