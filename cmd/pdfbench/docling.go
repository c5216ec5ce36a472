// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfbench/internal/backend"
	"github.com/pdiddy/pdfbench/pkg/types"
)

var doclingCmd = &cobra.Command{
	Use:   "docling",
	Short: "Convert PDFs with the docling CLI",
	Long: `Docling converts every PDF in the input directory through the docling
CLI with referenced image export. Image links in the generated Markdown
are URL-encoded so artifact filenames with special characters remain
valid relative links.

Output per document: <stem>.md and images under <stem>_artifacts/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := batchConfig(cmd)
		conv := backend.NewDoclingConverter(nil)
		if cfg.Workers == 0 {
			cfg.Workers = types.DefaultWorkers(conv.Device())
		}
		fmt.Fprintf(os.Stderr, "Using device: %s (%d workers)\n", conv.Device(), cfg.Workers)
		return runBatch(cmd, conv, cfg)
	},
}

func init() {
	addBatchFlags(doclingCmd)
	rootCmd.AddCommand(doclingCmd)
}
