// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdfbench CLI, a harness that
// batch-converts PDFs to Markdown with interchangeable backends and
// records per-file timing so the backends can be compared.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdfbench/internal/secrets"
	"github.com/pdiddy/pdfbench/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the pdfbench CLI.
var rootCmd = &cobra.Command{
	Use:   "pdfbench",
	Short: "Compare PDF-to-Markdown conversion backends on a directory of PDFs",
	Long: `pdfbench converts every PDF in a source directory to Markdown through one
of three backends — marker, docling, or the LlamaParse cloud API — and
records per-file timing and success/failure.

Each backend is a subcommand: run the same source directory through all
three, then use "pdfbench history --compare" to line the backends up
against each other.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdfbench.yaml or ~/.config/pdfbench/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pdfbench")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pdfbench"))
		}
	}

	viper.SetEnvPrefix("PDFBENCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Preflight failures (missing input, bad credential, unwritable
		// output) abort before any job and exit 2; per-file failures
		// surface through the summary and exit 1.
		if errors.Is(err, types.ErrNotFound) ||
			errors.Is(err, types.ErrAuthentication) ||
			errors.Is(err, types.ErrWrite) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
