// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbench/internal/backend"
	"github.com/pdiddy/pdfbench/internal/batch"
	"github.com/pdiddy/pdfbench/internal/history"
	"github.com/pdiddy/pdfbench/internal/scan"
	"github.com/pdiddy/pdfbench/internal/writer"
	"github.com/pdiddy/pdfbench/pkg/types"
)

const (
	defaultInputDir  = "pdf_source"
	defaultOutputDir = "conversion_results"
)

// addBatchFlags registers the flags shared by every backend subcommand.
func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().String("input", defaultInputDir, "directory containing source PDFs")
	cmd.Flags().String("output", defaultOutputDir, "base directory for conversion results")
	cmd.Flags().Int("workers", 0, "concurrent conversions (0 = backend default)")
	cmd.Flags().Bool("overwrite", false, "reconvert files whose output already exists (default: skip)")
}

// batchConfig builds the run configuration from flags, falling back to
// the viper config file for flags left at their defaults.
func batchConfig(cmd *cobra.Command) *types.BatchConfig {
	cfg := &types.BatchConfig{
		InputDir:  stringSetting(cmd, "input", "input_dir", defaultInputDir),
		OutputDir: stringSetting(cmd, "output", "output_dir", defaultOutputDir),
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
	} else {
		cfg.Workers = viper.GetInt("workers")
	}
	cfg.Overwrite, _ = cmd.Flags().GetBool("overwrite")
	return cfg
}

func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

// runBatch is the shared driver flow for all three backend subcommands:
// check the backend, scan the input, verify the output is writable, run
// the pool, record history, and turn any per-file failure into a
// nonzero exit.
func runBatch(cmd *cobra.Command, conv backend.Converter, cfg *types.BatchConfig) error {
	ctx := cmd.Context()

	if err := conv.Check(ctx); err != nil {
		return err
	}

	paths, err := scan.List(cfg.InputDir)
	if err != nil {
		return err
	}

	out := writer.New(cfg.OutputDir, conv.Name())
	if err := out.CheckWritable(); err != nil {
		return err
	}

	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "No PDF files found in %q\n", cfg.InputDir)
		return nil
	}
	fmt.Printf("Found %d PDF files\n", len(paths))

	result, err := batch.Run(ctx, conv, paths, out, cfg, os.Stdout)
	if err != nil {
		return err
	}

	recordHistory(cmd, conv.Name(), cfg, result)

	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}

// recordHistory appends the run to the SQLite history. History is an
// accessory to the batch: a broken database warns but never fails a
// run that already produced its outputs.
func recordHistory(cmd *cobra.Command, b types.Backend, cfg *types.BatchConfig, result batch.BatchResult) {
	store, err := history.NewStore(cfg.OutputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open run history: %v\n", err)
		return
	}
	defer store.Close()

	rec := history.RunRecord{
		Backend:   b,
		StartedAt: result.StartedAt,
		Elapsed:   result.Elapsed,
		Workers:   result.Workers,
		Converted: result.Converted,
		Skipped:   result.Skipped,
		Failed:    result.Failed,
		Results:   result.Results,
	}
	if err := store.Record(cmd.Context(), rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run history: %v\n", err)
	}
}
