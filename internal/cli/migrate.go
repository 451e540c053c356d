package cli

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/persistence"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.db.Migrate(); err != nil {
				return err
			}
			return printVersion(cmd, e)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if err := persistence.MigrateDown(e.db.SQL, e.db.Driver); err != nil {
				return err
			}
			return printVersion(cmd, e)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			return printVersion(cmd, e)
		},
	})
	return cmd
}

func printVersion(cmd *cobra.Command, e *env) error {
	version, err := persistence.MigrationStatus(e.db.SQL, e.db.Driver)
	if err != nil {
		return err
	}
	OutputLine(cmd.OutOrStdout(), "%s schema version: %d", e.db.Driver, version)
	return nil
}
