package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/doodlesbykumbi/policyctl/pkg/audit"
	"github.com/doodlesbykumbi/policyctl/pkg/batch"
	"github.com/doodlesbykumbi/policyctl/pkg/config"
	"github.com/doodlesbykumbi/policyctl/pkg/prisma"
	"github.com/doodlesbykumbi/policyctl/pkg/record"
)

// policyApplyCmd represents the policy apply command
var policyApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Create one policy per row of a CSV file",
	Long: `Create one policy per row of a CSV file.

Rows are processed in order. A row that is malformed, misses a required
column, or is rejected by the API is reported and skipped. A policy whose name
already exists is reported as skipped.

Exit status is 0 when every row succeeded or was skipped, 1 when any row
failed, and 2 when the run could not start (configuration, login, input file).

Example:
  policyctl policy apply policies.csv
  policyctl policy apply --dry-run policies.csv
  policyctl policy apply --output json policies.csv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code, err := runApply(cmd, args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to apply policies: %v\n", err)
		}
		if code != batch.ExitOK {
			os.Exit(code)
		}
	},
}

func init() {
	policyCmd.AddCommand(policyApplyCmd)
	addApplyFlags(policyApplyCmd)
}

func addApplyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "text", "Summary format (text or json)")
	cmd.Flags().Bool("dry-run", false, "Validate the input without calling the API")
}

// applyOptions carries everything one run needs besides the input path.
type applyOptions struct {
	cfg    config.Config
	logger *zap.Logger
	audit  *audit.Logger
	runID  string
	dryRun bool
	output string
	stdout io.Writer
}

func runApply(cmd *cobra.Command, path string) (int, error) {
	opts, closeAudit, err := newApplyOptions(cmd)
	if err != nil {
		return batch.ExitFatal, err
	}
	defer func() {
		_ = opts.logger.Sync()
		_ = closeAudit.Close()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return applyFile(ctx, path, opts)
}

func newApplyOptions(cmd *cobra.Command) (applyOptions, io.Closer, error) {
	output, _ := cmd.Flags().GetString("output")
	if output != "text" && output != "json" {
		return applyOptions{}, nil, fmt.Errorf("invalid --output %q (text or json)", output)
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	logger, err := newLogger(cmd)
	if err != nil {
		return applyOptions{}, nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return applyOptions{}, nil, err
	}

	runID := uuid.NewString()
	auditLogger, closer, err := newAuditLogger(cmd, runID)
	if err != nil {
		return applyOptions{}, nil, err
	}

	return applyOptions{
		cfg:    cfg,
		logger: logger,
		audit:  auditLogger,
		runID:  runID,
		dryRun: dryRun,
		output: output,
		stdout: cmd.OutOrStdout(),
	}, closer, nil
}

// applyFile runs one batch over the file at path and writes the summary. It
// returns the exit code of the run; err is set for runs that could not
// complete.
func applyFile(ctx context.Context, path string, opts applyOptions) (int, error) {
	logger := opts.logger.With(zap.String("run_id", opts.runID), zap.String("file", path))

	entries, err := record.ReadFile(path)
	if err != nil {
		return batch.ExitFatal, err
	}
	logger.Info("loaded input", zap.Int("records", len(entries)))

	clientOpts := opts.cfg.ClientOptions()
	clientOpts.Logger = logger
	clientOpts.RunID = opts.runID
	driver := batch.NewDriver(prisma.NewClient(clientOpts), opts.cfg, batch.Options{
		Logger: logger,
		Audit:  opts.audit,
		RunID:  opts.runID,
		DryRun: opts.dryRun,
	})

	summary, runErr := driver.Run(ctx, entries)
	if errors.Is(runErr, prisma.ErrAuthentication) {
		return batch.ExitFatal, runErr
	}

	if err := writeSummary(opts.stdout, opts.output, summary); err != nil {
		return batch.ExitFatal, err
	}
	if runErr != nil {
		return batch.ExitFatal, runErr
	}
	return summary.ExitCode(), nil
}

func writeSummary(w io.Writer, output string, summary *batch.Summary) error {
	if output == "json" {
		out, err := summary.FormatJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, out)
		return err
	}
	_, err := fmt.Fprint(w, summary.FormatText())
	return err
}
