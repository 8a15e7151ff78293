package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cleanmeta/internal/cleaner"
	"cleanmeta/internal/config"
	"cleanmeta/internal/logstore"
	"cleanmeta/internal/model"
	"cleanmeta/internal/storage"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

type rootOptions struct {
	stderr io.Writer

	dbPath      string
	logLevel    string
	batchConfig string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}

	root := &cobra.Command{
		Use:   "cleanmeta",
		Short: "Remove duplicate item metadata, keeping the newest row per item and key",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to sqlite database (default $DATABASE_PATH or ./data/cleanmeta.db)")
	root.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "log level: debug, info, warn, error (default $LOG_LEVEL or info)")
	root.PersistentFlags().StringVar(&opts.batchConfig, "batch-config", "", "TOML file overriding the item type, status and keys of clean-all")

	root.AddCommand(
		newCleanCmd(opts),
		newCleanAllCmd(opts),
		newLogsCmd(opts),
		newServeCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// app holds the components shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *storage.SQLite
	logs    *logstore.Store
	cleaner *cleaner.Cleaner
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.dbPath != "" {
		cfg.DatabasePath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.batchConfig != "" {
		cfg.BatchConfigPath = o.batchConfig
	}
	return cfg, nil
}

func (o *rootOptions) open() (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := newLogger(o.stderr, cfg.LogLevel)

	spec, err := config.LoadBatchSpec(cfg.BatchConfigPath)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", dir, err)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}

	logs := logstore.New(store)
	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		logs:    logs,
		cleaner: cleaner.New(store, logs, spec, log),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// cliReporter prints messages the way an interactive command does: one line
// each, prefixed by their status.
type cliReporter struct {
	out io.Writer
}

func (r cliReporter) Report(status model.ReportStatus, msg string) {
	fmt.Fprintln(r.out, status.Prefix()+msg)
}
