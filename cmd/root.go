package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"jojarts/config"
	"jojarts/logging"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "jojarts",
	Short: "Gallery API for the jojarts website",
	Long: `jojarts serves the gallery API: admin login, photo records in MongoDB
and an optional S3 upload proxy.

Running without a subcommand starts the server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// reportedError marks an error that was already written to stderr or the log.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// printUnreported writes err unless a command already reported it.
func printUnreported(w io.Writer, err error) {
	var r *reportedError
	if errors.As(err, &r) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printUnreported(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

// setup loads configuration and builds the logger. Configuration errors are
// reported on stderr because no logger exists yet.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return nil, nil, reported(err)
	}
	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return nil, nil, reported(err)
	}
	return cfg, logger, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
