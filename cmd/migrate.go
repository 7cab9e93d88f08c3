package cmd

import (
	"fmt"

	"feedback-portal/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := rt.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.InitDB(cmd.Context(), config.Database)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.Migrate(cmd.Context(), db.Pool(), args[0]); err != nil {
				return err
			}
			logger.Info("Migration finished", zap.String("command", args[0]))
			return nil
		},
	}
}
