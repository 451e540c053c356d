// Package cli implements helpdeskctl, the administration tool for the
// helpdesk service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/bootstrap"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/observability"
)

// Version information (set at build time via ldflags)
var Version = "dev"

// Global flags
var (
	driverFlag string
	sqliteFlag string
	quiet      bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helpdeskctl",
		Short: "Administration tool for the helpdesk service",
		Long: `helpdeskctl manages the helpdesk database: migrations, reference data
and local accounts that live outside the corporate directory.

Connection settings come from the same environment variables as the API
server (DB_DRIVER, POSTGRES_DSN, SQLITE_PATH, ...).`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Database driver override (postgres or sqlite)")
	cmd.PersistentFlags().StringVar(&sqliteFlag, "sqlite", "", "SQLite database path override")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newUserCmd())
	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// env is what every subcommand needs: configuration, a logger and the database.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *bootstrap.Database
}

func (e *env) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if driverFlag != "" {
		cfg.Database.Driver = driverFlag
	}
	if sqliteFlag != "" {
		cfg.Database.SQLitePath = sqliteFlag
	}
	loggerCfg := cfg.Logger
	if loggerCfg.Level == "info" {
		loggerCfg.Level = "warn"
	}
	logger, err := observability.NewLogger(loggerCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := bootstrap.OpenDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

// OutputLine prints a line to w unless quiet mode is enabled
func OutputLine(w io.Writer, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// ErrorOutput prints to stderr
func ErrorOutput(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}
