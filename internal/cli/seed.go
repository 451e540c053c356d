package cli

import (
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories and action types",
		Long: `Load the category taxonomy from a JSON or TOML file and make sure the
default action types exist. Existing rows are left alone, so the command can
run any number of times.

JSON files use the legacy layout:
  [{"categoria_nome": "Hardware", "subcategorias": ["Impressora", "Monitor"]}]
TOML files use [[category]] tables with name and subcategories keys.

Examples:
  helpdeskctl seed --file categorias.json
  helpdeskctl seed --file categories.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var categories []seed.CategorySeed
			if file != "" {
				loaded, err := seed.LoadFile(file)
				if err != nil {
					return err
				}
				categories = loaded
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			redis := persistence.NewRedis(cmd.Context(), e.cfg.Redis, e.logger)
			defer redis.Close()
			var client *goredis.Client
			if redis.Enabled() {
				client = redis.Client
			}
			report, err := seed.Run(cmd.Context(), e.db.Store, categories, cache.NewCategoryCache(client, 0))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			OutputLine(out, "categories:    %d created, %d existing", report.CategoriesCreated, report.CategoriesExisting)
			OutputLine(out, "subcategories: %d created, %d existing", report.SubcategoriesCreated, report.SubcategoriesExisting)
			OutputLine(out, "action types:  %d created, %d existing", report.ActionTypesCreated, report.ActionTypesExisting)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Category seed file (.json or .toml)")
	return cmd
}
