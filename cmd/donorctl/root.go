package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"donors/internal/config"
	"donors/internal/log"
	"donors/internal/services"
	"donors/internal/storage"

	"github.com/spf13/cobra"
)

// app holds the services opened for one command invocation.
type app struct {
	repo      *storage.SQLiteRepository
	donors    *services.DonorService
	donations *services.DonationService
	campaigns *services.CampaignService
	reports   *services.ReportService
}

func openApp(dbPath string) (*app, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}
	return &app{
		repo:      repo,
		donors:    services.NewDonorService(repo),
		donations: services.NewDonationService(repo, nil),
		campaigns: services.NewCampaignService(repo),
		reports:   services.NewReportService(repo),
	}, nil
}

func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

const standaloneAnnotation = "standalone"

func newRootCmd() *cobra.Command {
	defaultDB := "./data/donors.db"
	defaultLevel := "warn"
	if cfg, err := config.Load(); err == nil {
		defaultDB = cfg.SQLiteDBPath
	}

	var (
		dbPath   string
		logLevel string
		a        = &app{}
	)

	root := &cobra.Command{
		Use:           "donorctl",
		Short:         "Manage donors, donations and campaigns",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			// Logs go to stderr so stdout stays valid JSON.
			log.SetDefault(log.New(log.Config{
				Level:     level,
				Component: log.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
			if cmd.Annotations[standaloneAnnotation] == "true" {
				return nil
			}
			opened, err := openApp(dbPath)
			if err != nil {
				return err
			}
			*a = *opened
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "SQLite database path (env SQLITE_DB_PATH)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLevel, "debug, info, warn or error")

	root.AddCommand(
		newDonorCmd(a),
		newCampaignCmd(a),
		newDonationCmd(a),
		newReportCmd(a),
		newDemoCmd(),
	)
	return root
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
