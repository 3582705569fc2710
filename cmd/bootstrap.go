package cmd

import (
	"jojarts/database"
	"jojarts/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap-admin",
	Short: "Create indexes and the configured admin account, then exit",
	Long: `Connects to MONGO_URI, creates the collection indexes and inserts the
ADMIN_USER account if it does not exist yet. Running it again is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		stores, err := server.OpenStores(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Error("Bootstrap failed", zap.Error(err))
			return reported(err)
		}
		database.Disconnect(stores.Client, logger)

		logger.Info("Bootstrap complete", zap.String("username", cfg.AdminUser))
		return nil
	},
}
