package main

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"cleanmeta/migrations"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|up-one|down|status|version|reset]",
		Short:     "Manage the database schema",
		Long:      "Runs a goose command against the embedded migrations. The default is up.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "up-one", "down", "status", "version", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			db, err := sql.Open("sqlite", cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := migrations.Setup(); err != nil {
				return err
			}

			switch command {
			case "up":
				err = goose.Up(db, ".")
			case "up-one":
				err = goose.UpByOne(db, ".")
			case "down":
				err = goose.Down(db, ".")
			case "status":
				err = goose.Status(db, ".")
			case "version":
				err = goose.Version(db, ".")
			case "reset":
				err = goose.Reset(db, ".")
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", command, err)
			}
			return nil
		},
	}
}
