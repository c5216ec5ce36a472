// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbench/internal/backend"
	"github.com/pdiddy/pdfbench/internal/secrets"
	"github.com/pdiddy/pdfbench/pkg/types"
)

const defaultLlamaWorkers = 4

var llamaparseCmd = &cobra.Command{
	Use:   "llamaparse",
	Short: "Convert PDFs with the LlamaParse cloud API",
	Long: `Llamaparse uploads every PDF in the input directory to the LlamaParse
cloud API and downloads the parsed Markdown (and, by default, a plain
text rendition). At most --workers uploads are in flight at once.

The API key is read from .secrets/llama-cloud-api-key or the
LLAMA_CLOUD_API_KEY environment variable; the run aborts before any
upload when the key is missing or rejected.

Output per document: <stem>.md and <stem>.txt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := batchConfig(cmd)
		if cfg.Workers == 0 {
			cfg.Workers = defaultLlamaWorkers
		}

		text, _ := cmd.Flags().GetBool("text")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		lpCfg := types.LlamaParseConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "pdfbench/" + version,
			},
			APIKey:     secrets.Get(loadedSecrets, secrets.LlamaCloudKey, secrets.LlamaCloudKeyEnv),
			Language:   viper.GetString("llamaparse.language"),
			Text:       text,
			JobTimeout: timeout,
		}

		conv, err := backend.NewLlamaParseConverter(nil, lpCfg)
		if err != nil {
			return err
		}
		return runBatch(cmd, conv, cfg)
	},
}

func init() {
	addBatchFlags(llamaparseCmd)
	llamaparseCmd.Flags().Bool("text", true, "also fetch the plain-text rendition of each document")
	llamaparseCmd.Flags().Duration("timeout", 5*time.Minute, "per-file upload-parse-fetch timeout")

	rootCmd.AddCommand(llamaparseCmd)
}
