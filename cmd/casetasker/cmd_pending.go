package main

import (
	"fmt"

	"casetasker/internal/logging"
	"casetasker/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending case events without opening a browser",
	Args:  cobra.NoArgs,
	RunE:  listPending,
}

func listPending(cmd *cobra.Command, args []string) error {
	src, err := store.New(cfg, logging.For(logger, logging.CategoryStore))
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	batch, err := src.FetchPending(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, rec := range batch {
		line := fmt.Sprintf("%s\t%s\t%s", rec.ID, rec.DivergenceDate.Format("2006-01-02 15:04"), rec.CaseNumber)
		meta, err := rec.DecodeMetadata()
		if err != nil {
			logger.Warn("undecodable metadata", zap.String("id", rec.ID), zap.Error(err))
			line += "\t" + errorStyle.Render("metadata: "+err.Error())
		} else {
			line += "\t" + meta.ResponsiblePartyKey
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, labelStyle.Render(fmt.Sprintf("%d pending", len(batch))))
	return nil
}
