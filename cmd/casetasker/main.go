// Command casetasker creates LawSystem tasks for pending case events.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casetasker/internal/config"
	"casetasker/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgPath  string
	verbose  bool
	timeout  time.Duration
	noPrompt bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "casetasker",
	Short: "Create LawSystem tasks from pending case events",
	Long: `casetasker reads case events that have been synchronized but not yet
turned into tasks, logs in to LawSystem and creates one "Conferir expediente
no PJe" task per event, assigning the office and involved party from the
responsible-party workbook.

Run without a subcommand to process the pending batch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runBatch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "casetasker.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Abort after this long (0 = no limit)")

	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().BoolVar(&noPrompt, "no-prompt", false, "Exit without waiting for the operator")
	}

	rootCmd.AddCommand(runCmd, pendingCmd, lookupCmd, installBrowserCmd, initConfigCmd, replayInitCmd)
}

// commandContext bounds ctx by --timeout.
func commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := rootCmd.ExecuteContextC(ctx)
	os.Exit(finish(c, err, os.Stderr))
}

// operatorGate is replaced in tests.
var operatorGate = acknowledge

// finish reports err and returns the exit code. Batch runs wait for the
// operator on every path, including config and logger failures in
// PersistentPreRunE.
func finish(c *cobra.Command, err error, stderr io.Writer) int {
	code := 0
	if err != nil {
		fmt.Fprintln(stderr, err)
		code = 1
	}
	if c != rootCmd && c != runCmd {
		return code
	}
	if ackErr := operatorGate(c.InOrStdin(), noPrompt); ackErr != nil && logger != nil {
		logger.Debug("operator prompt skipped", zap.Error(ackErr))
	}
	return code
}
