package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/recipe-api/internal/config"
	"github.com/redmonkez12/recipe-api/internal/database"
	"github.com/redmonkez12/recipe-api/internal/logging"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the recipe database schema",
		Long:          "Apply, roll back and inspect the embedded PostgreSQL migrations. Connection settings come from the same DB_* variables (or .env) as the API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, _ []string) error {
			if err := m.Up(ctx); err != nil {
				return err
			}
			return printVersion(ctx, m, "Schema is up to date")
		}),
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, _ []string) error {
			if err := m.Down(ctx); err != nil {
				return err
			}
			return printVersion(ctx, m, "Rolled back one migration")
		}),
	}

	downToCmd := &cobra.Command{
		Use:   "down-to VERSION",
		Short: "Roll back until the schema is at VERSION (0 drops everything)",
		Args:  cobra.ExactArgs(1),
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, args []string) error {
			version, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}
			if err := m.DownTo(ctx, version); err != nil {
				return err
			}
			return printVersion(ctx, m, "Rolled back")
		}),
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, _ []string) error {
			return m.Status(ctx)
		}),
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *database.Migrator, _ []string) error {
			return printVersion(ctx, m, "Current schema")
		}),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the migrations built into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			migrations, err := database.Migrations()
			if err != nil {
				return err
			}

			printTitle("Embedded migrations")
			for _, mig := range migrations {
				fmt.Printf("  %05d  %s\n", mig.Version, filepath.Base(mig.Source))
			}
			return nil
		},
	}

	rootCmd.AddCommand(upCmd, downCmd, downToCmd, statusCmd, versionCmd, listCmd)
	return rootCmd
}

type migrateFunc func(ctx context.Context, m *database.Migrator, args []string) error

// withMigrator connects to the configured database for the duration of one command
func withMigrator(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDatabase()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger := logging.NewLogger(true)
		printSubtle(fmt.Sprintf("%s@%s:%s/%s (%s)", cfg.User, cfg.Host, cfg.Port, cfg.DBName, cfg.DriverName()))

		db, err := database.Open(*cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		migrator, err := database.NewMigrator(db.DB, logger)
		if err != nil {
			return err
		}

		return fn(cmd.Context(), migrator, args)
	}
}

func printVersion(ctx context.Context, m *database.Migrator, prefix string) error {
	version, err := m.Version(ctx)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("%s (version %d)", prefix, version))
	return nil
}
