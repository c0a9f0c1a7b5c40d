// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/thesis-sync/internal/ledger"
	"github.com/pdiddy/thesis-sync/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync runs",
	Long: `History prints the most recent runs recorded in the run ledger, newest
first, with their status and counters. --yaml prints the full records
including artifact checksums.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().Bool("yaml", false, "print full records as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger.path")
	if path == "" {
		return fmt.Errorf("run history is disabled (ledger.path is empty)")
	}
	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := l.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(runs)
	}

	last, err := l.LastSuccessful(cmd.Context())
	if err != nil {
		return err
	}
	return printRuns(cmd.OutOrStdout(), runs, last)
}

// printRuns prints runs as a table. The row of last, the run whose
// artifacts are currently published, is marked with an asterisk; when last
// falls outside the listed runs it is named below the table.
func printRuns(out io.Writer, runs []types.RunRecord, last *types.RunRecord) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tSTARTED\tSTATUS\tDURATION\tINCLUDED\tPARTNERS\tRUN")
	listed := false
	for _, r := range runs {
		mark := ""
		if last != nil && r.ID == last.ID {
			mark, listed = "*", true
		}
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			mark, r.StartedAt.Local().Format("2006-01-02 15:04"), status, duration,
			r.Summary.Included, r.Summary.Organizations, r.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	switch {
	case last == nil:
		fmt.Fprintln(out, "No successful run recorded.")
	case !listed:
		fmt.Fprintf(out, "Last successful run: %s (%s)\n", last.ID, last.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
