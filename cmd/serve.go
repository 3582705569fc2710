package cmd

import (
	"jojarts/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return reported(err)
	}
	return nil
}
