package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/doodlesbykumbi/policyctl/pkg/audit"
	"github.com/doodlesbykumbi/policyctl/pkg/batch"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "policyctl",
	Short: "Provision Prisma Cloud policies from RQL queries",
	Long: `policyctl creates Prisma Cloud policies in bulk.

Each row of a CSV input file holds an RQL query and the metadata of one policy.
policyctl resolves the query to a search, saves it as a named saved search and
creates a policy bound to it. Failing rows are reported and skipped.

Credentials are read from PRISMA_CLOUD_ACCESS_KEY and PRISMA_CLOUD_SECRET_KEY.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to policyctl.yml (default $PRISMA_CLOUD_CONFIG_PATH/policyctl.yml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console or json)")
	flags.String("audit-log", "", `Write RFC5424 audit lines to this file ("-" for stderr)`)
}

// newLogger builds the application logger. Logs go to stderr so stdout only
// carries command output.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := zap.ParseAtomicLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid --log-format %q (console or json)", format)
	}
	cfg.Level = level
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// loadConfig loads and validates the configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newAuditLogger opens the --audit-log destination. The returned closer must
// be called when the command is done.
func newAuditLogger(cmd *cobra.Command, runID string) (*audit.Logger, io.Closer, error) {
	path, _ := cmd.Flags().GetString("audit-log")
	logger := audit.NewLogger(runID)
	switch path {
	case "":
		logger.SetWriter(io.Discard)
		return logger, nopCloser{}, nil
	case "-":
		return logger, nopCloser{}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	logger.SetWriter(f)
	return logger, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(batch.ExitFatal)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(batch.ExitFatal)
	}
}

func main() {
	Execute()
}
