package main

import (
	"fmt"

	"casetasker/internal/browser"
	"casetasker/internal/logging"
	"casetasker/internal/store"
	"casetasker/internal/workflow"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the pending batch once",
	Long: `Fetches every pending case event, opens one browser, logs in and creates
a task per event in order. Records that fail stay pending for the next run.
The command waits for the operator before exiting unless --no-prompt is set
or stdin is not a terminal.`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", zap.Error(err))
		return err
	}

	runID := uuid.NewString()
	root := logger.With(zap.String("run", runID))
	logs := logging.NewFilter(root, cfg.Logging)
	logs.Get(logging.CategoryBoot).Info("run started",
		zap.String("store", cfg.Store.Driver),
		zap.String("lookup", cfg.Lookup.Path))

	src, err := store.New(cfg, logs.Get(logging.CategoryStore))
	if err != nil {
		return err
	}
	opener := browser.Launcher{
		Config: browser.ConfigFrom(cfg),
		Logger: logs.Get(logging.CategoryBrowser),
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	sum, err := workflow.New(cfg, src, opener, root, workflow.WithLogFilter(logs)).Run(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), renderSummary(runID, sum, err))
	if err != nil {
		logs.Get(logging.CategoryWorkflow).Error("run aborted", zap.Error(err))
		return err
	}
	return nil
}
