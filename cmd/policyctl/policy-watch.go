package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// settle is how long the file must stay unchanged before a run starts.
const settle = 500 * time.Millisecond

// policyWatchCmd represents the policy watch command
var policyWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Apply a CSV file and apply it again whenever it changes",
	Long: `Apply a CSV file, then watch it and apply it again whenever it is written.

Runs never overlap; changes made during a run start another run afterwards.
Policies created by an earlier run are reported as skipped duplicates.
Interrupt to stop watching.

Example:
  policyctl policy watch /srv/policies/policies.csv`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchPolicies(cmd, args[0]); err != nil {
			exitWithError("Failed to watch policies", err)
		}
	},
}

func init() {
	policyCmd.AddCommand(policyWatchCmd)
	addApplyFlags(policyWatchCmd)
}

func watchPolicies(cmd *cobra.Command, filename string) error {
	opts, closeAudit, err := newApplyOptions(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = opts.logger.Sync()
		_ = closeAudit.Close()
	}()

	filename, err = filepath.Abs(filename)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so files replaced by rename are still seen.
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apply := func() {
		run := opts
		run.runID = uuid.NewString()
		run.audit = opts.audit.WithRunID(run.runID)
		code, err := applyFile(ctx, filename, run)
		if err != nil {
			opts.logger.Error("run failed", zap.String("run_id", run.runID), zap.Error(err))
			return
		}
		opts.logger.Info("run complete", zap.String("run_id", run.runID), zap.Int("exit_code", code))
	}

	opts.logger.Info("watching for changes", zap.String("file", filename))
	apply()

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !affects(event, filename) {
				continue
			}
			pending = time.After(settle)
		case <-pending:
			pending = nil
			opts.logger.Info("file changed, applying", zap.String("file", filename))
			apply()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.logger.Warn("watcher error", zap.Error(err))
		case <-ctx.Done():
			opts.logger.Info("shutting down")
			return nil
		}
	}
}

func affects(event fsnotify.Event, filename string) bool {
	if filepath.Clean(event.Name) != filename {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

