// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the disambiguate CLI: the driver
// glue that reads the file-based inputs, runs one disambiguation pass,
// and writes trace.jsonl, review.jsonl, results.json, and
// run_manifest.json.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Soulbeaters/incremental-author-disambiguation/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds the secret material loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the disambiguate CLI.
var rootCmd = &cobra.Command{
	Use:   "disambiguate",
	Short: "Incremental author name disambiguation over a publication stream",
	Long: `disambiguate ingests a stream of bibliographic records, deduplicates
publications, and routes every author mention to an existing profile (MERGE),
a new profile (NEW), or a human review queue (UNKNOWN) using Fellegi-Sunter
record-linkage scoring with a dual-threshold decision policy.

Run "disambiguate run" to process an input batch, or "disambiguate evaluate"
to score a completed run's cluster assignment against an ORCID gold set.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if s.RedactionSalt != "" {
			fmt.Fprintf(os.Stderr, "Loaded %s from .secrets/\n", secrets.SaltFile)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./disambiguation.yaml or ~/.config/disambiguate/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("disambiguation")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "disambiguate"))
		}
	}

	viper.SetEnvPrefix("DISAMBIGUATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// exitError carries the precise process exit code a failure requires
// (0 success, 2 config error, 3 data contradiction, 130 cancelled).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	if err := rootCmd.Execute(); err != nil {
		if ee, ok := err.(*exitError); ok {
			fmt.Fprintln(os.Stderr, "error:", ee.err)
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}
