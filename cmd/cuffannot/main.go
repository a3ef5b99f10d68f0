// Package main provides the cuffannot command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/config"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cuffannot",
	Short: "Annotate cuffdiff output with gene identity, biotypes and GO terms",
	Long: `cuffannot annotates the differential-expression tables produced by cuffdiff
with gene biotypes and gene-ontology terms retrieved from BioMart, and writes
significance-tiered xlsx report tables with one sheet per pair-wise sample
comparison. Optionally it runs DAVID gene-ontology enrichment per sample pair
and writes per-category enrichment tables (biological process, cellular
component, molecular function).

Intermediate results (gene identity table, raw annotation join, final
annotation table) are checkpointed in the output folder, so an interrupted
run can be re-invoked and resumes where it left off.`,
	Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMartCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
