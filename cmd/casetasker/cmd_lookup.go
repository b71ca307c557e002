package main

import (
	"fmt"

	"casetasker/internal/lookup"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [key]",
	Short: "Resolve a responsible-party key against the office workbook",
	Long: `Loads the office workbook and prints the assignment for key, or the row
count when no key is given. Misses print the defaults the run would use.`,
	Args: cobra.MaximumNArgs(1),
	RunE: resolveKey,
}

func resolveKey(cmd *cobra.Command, args []string) error {
	table, err := lookup.Load(cfg.Lookup.Path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintf(out, "%s: %d rows\n", table.Source(), table.Len())
		return nil
	}

	a, hit := table.ResolveOrDefault(args[0])
	status := okStyle.Render("match")
	if !hit {
		status = warnStyle.Render("miss, defaults")
	}
	fmt.Fprintf(out, "%s %s\n  %s %s\n  %s %s\n", labelStyle.Render(args[0]), status,
		labelStyle.Render("office:"), a.Office,
		labelStyle.Render("involved party:"), a.InvolvedParty)
	return nil
}
