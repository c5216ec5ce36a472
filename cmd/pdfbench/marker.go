// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfbench/internal/backend"
	"github.com/pdiddy/pdfbench/pkg/types"
)

var markerCmd = &cobra.Command{
	Use:   "marker",
	Short: "Convert PDFs with the marker CLI",
	Long: `Marker converts every PDF in the input directory through the
marker_single CLI, one OS process per file. The accelerator (cuda, mps,
or cpu) is detected at startup; worker defaults are conservative on
accelerators (2) to respect GPU memory, 4 on CPU.

Output per document: <stem>.md, <stem>_meta.json, and extracted images.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := batchConfig(cmd)
		conv := backend.NewMarkerConverter(nil)
		if cfg.Workers == 0 {
			cfg.Workers = types.DefaultWorkers(conv.Device())
		}
		fmt.Fprintf(os.Stderr, "Using device: %s (%d workers)\n", conv.Device(), cfg.Workers)
		return runBatch(cmd, conv, cfg)
	},
}

func init() {
	addBatchFlags(markerCmd)
	rootCmd.AddCommand(markerCmd)
}
