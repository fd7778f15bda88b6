package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	"github.com/KarthikeyanM3011/Hudle.ai/migrations"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/db"
)

// NewMigrateCommand returns the command that applies database migrations.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := db.ConnectWithRetry(ctx, db.FromAppConfig(cfg.Database), 5, 2*time.Second)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer db.Close(pool)

			result, err := db.RunMigrations(ctx, pool, migrations.FS)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, v := range result.Applied {
				fmt.Fprintf(out, "applied  %s\n", v)
			}
			for _, v := range result.Skipped {
				fmt.Fprintf(out, "skipped  %s\n", v)
			}
			if len(result.Applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
			}
			return nil
		},
	}
}
