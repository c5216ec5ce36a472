// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfbench/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded batch runs and compare backends",
	Long: `History reads the run database under the output directory and prints
recent batch runs. With --compare it aggregates per-file outcomes by
backend: runs, files, success counts, and average seconds per file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir := stringSetting(cmd, "output", "output_dir", defaultOutputDir)

		store, err := history.NewStore(outputDir)
		if err != nil {
			return err
		}
		defer store.Close()

		compare, _ := cmd.Flags().GetBool("compare")
		if compare {
			return printComparison(cmd, store)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		return printRecent(cmd, store, limit)
	},
}

func printRecent(cmd *cobra.Command, store *history.Store, limit int) error {
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No recorded runs.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBACKEND\tSTARTED\tELAPSED\tCONVERTED\tSKIPPED\tFAILED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.1fs\t%d\t%d\t%d\n",
			r.ID, r.Backend, r.StartedAt.Local().Format(time.DateTime),
			r.Elapsed, r.Converted, r.Skipped, r.Failed)
	}
	return tw.Flush()
}

func printComparison(cmd *cobra.Command, store *history.Store) error {
	aggs, err := store.Compare(cmd.Context())
	if err != nil {
		return err
	}
	if len(aggs) == 0 {
		fmt.Fprintln(os.Stderr, "No recorded runs.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BACKEND\tRUNS\tFILES\tCONVERTED\tFAILED\tAVG SECS/FILE")
	for _, a := range aggs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f\n",
			a.Backend, a.Runs, a.Files, a.Converted, a.Failed, a.AvgSeconds)
	}
	return tw.Flush()
}

func init() {
	historyCmd.Flags().String("output", defaultOutputDir, "base directory for conversion results")
	historyCmd.Flags().Int("limit", 20, "number of runs to show")
	historyCmd.Flags().Bool("compare", false, "aggregate results per backend")

	rootCmd.AddCommand(historyCmd)
}
