package main

import (
	"fmt"
	"os"

	"casetasker/internal/browser"
	"casetasker/internal/config"
	"casetasker/internal/logging"
	"casetasker/internal/store"

	"github.com/spf13/cobra"
)

var installBrowserCmd = &cobra.Command{
	Use:   "install-browser",
	Short: "Make sure a Chromium build is available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := browser.EnsureInstalled(logging.For(logger, logging.CategoryBrowser))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var forceInit bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default configuration to --config",
	Args:  cobra.NoArgs,
	RunE:  writeDefaultConfig,
}

var replayInitCmd = &cobra.Command{
	Use:   "replay-init [path]",
	Short: "Create or upgrade a sqlite replay database",
	Long: `Creates the RECORTES table in a sqlite file, or adds the columns older
replay files lack. Point store.driver=sqlite and store.dsn at the file to run
the workflow against a copied batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()
		return store.InitReplay(ctx, args[0], logging.For(logger, logging.CategoryStore))
	},
}

func init() {
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}

func writeDefaultConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(cfgPath); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := config.DefaultConfig().Save(cfgPath); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "wrote", cfgPath)
	return nil
}
