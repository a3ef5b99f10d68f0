package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agegroup/cuffannot/internal/annotation"
	"github.com/agegroup/cuffannot/internal/biomart"
	"github.com/agegroup/cuffannot/internal/checkpoint"
	"github.com/agegroup/cuffannot/internal/config"
	"github.com/agegroup/cuffannot/internal/david"
	"github.com/agegroup/cuffannot/internal/duckdb"
	"github.com/agegroup/cuffannot/internal/enrich"
	"github.com/agegroup/cuffannot/internal/pipeline"
)

func newRunCmd() *cobra.Command {
	var (
		inputFolder    string
		outputFolder   string
		originalGTF    string
		cuffcompareGTF string
		inputFiles     string
		outputLabels   string
		sigOnly        bool
		tiered         bool
		pThreshold     float64
		useDavid       bool
		davidUser      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the annotation and report pipeline",
		Example: `  cuffannot run -i cuffdiff_out -o report_out -G genes.gtf -C cuffcmp.combined.gtf
  cuffannot run -i cuffdiff_out -o report_out -G genes.gtf --sig-only
  cuffannot run -i cuffdiff_out -o report_out -G genes.gtf --david -u jane.doe@age.mpg.de`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputFolder != "" {
				cfg.Input.Folder = inputFolder
			}
			if outputFolder != "" {
				cfg.Output.Folder = outputFolder
			}
			if originalGTF != "" {
				cfg.Input.OriginalGTF = originalGTF
			}
			if cuffcompareGTF != "" {
				cfg.Input.CuffcompareGTF = cuffcompareGTF
			}
			if inputFiles != "" {
				cfg.Input.Files = strings.Fields(inputFiles)
			}
			if outputLabels != "" {
				cfg.Input.Labels = strings.Fields(outputLabels)
			}
			if cmd.Flags().Changed("sig-only") {
				cfg.Tiers.SigOnly = sigOnly
			}
			if cmd.Flags().Changed("p-threshold") {
				cfg.Tiers.PThreshold = pThreshold
			}
			if cmd.Flags().Changed("david") {
				cfg.David.Enabled = useDavid
			}
			if davidUser != "" {
				cfg.David.User = davidUser
			}

			if tiered && cfg.Tiers.SigOnly {
				return eris.New("--tiers and --sig-only are mutually exclusive")
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			return runPipeline(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&inputFolder, "input", "i", "", "cuffdiff output folder")
	cmd.Flags().StringVarP(&outputFolder, "output", "o", "", "report and checkpoint output folder")
	cmd.Flags().StringVarP(&originalGTF, "gtf", "G", "", "original/downloaded GTF")
	cmd.Flags().StringVarP(&cuffcompareGTF, "cuffcompare-gtf", "C", "", "merged cuffcompare GTF (adds transcript refs to the isoform table)")
	cmd.Flags().StringVarP(&inputFiles, "files", "f", "", "space-separated diff files to analyse (default from config)")
	cmd.Flags().StringVarP(&outputLabels, "labels", "s", "", "space-separated short output labels, aligned with --files")
	cmd.Flags().BoolVar(&sigOnly, "sig-only", false, "only report cuffdiff-labeled significantly changed genes")
	cmd.Flags().BoolVar(&tiered, "tiers", false, "report the p-threshold, all and significant tiers (the default)")
	cmd.Flags().Float64Var(&pThreshold, "p-threshold", 0.05, "p_value cutoff for the p-threshold tier")
	cmd.Flags().BoolVarP(&useDavid, "david", "D", false, "perform DAVID GO enrichment analysis")
	cmd.Flags().StringVarP(&davidUser, "david-user", "u", "", "registered DAVID user email")

	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config) error {
	logger := zap.L()

	store, err := checkpoint.NewDirStore(cfg.Output.Folder)
	if err != nil {
		return eris.Wrap(err, "open output folder")
	}

	raw, err := duckdb.Open(store.Path(annotation.RawCacheName))
	if err != nil {
		return eris.Wrap(err, "open raw annotation cache")
	}
	defer raw.Close()

	mart := biomart.New(cfg.Mart.BaseURL, cfg.Mart.Mart, cfg.Mart.Dataset)

	var bridge pipeline.Enricher
	if cfg.David.Enabled {
		b := enrich.NewBridge(david.New(cfg.David.BaseURL), cfg.David.User, cfg.David.IDType)
		b.SetThresholds(cfg.David.PThreshold, cfg.David.MinCount)
		b.SetScratchDir(store.Dir())
		b.SetLogger(logger)
		bridge = b
	}

	p := pipeline.New(cfg, store, raw, mart, bridge)
	p.SetLogger(logger)

	logger.Info("starting pipeline",
		zap.String("input", cfg.Input.Folder),
		zap.String("output", cfg.Output.Folder),
		zap.Bool("sig_only", cfg.Tiers.SigOnly),
		zap.Bool("david", cfg.David.Enabled))

	if err := p.Run(cmd.Context()); err != nil {
		return err
	}
	logger.Info("pipeline finished")
	return nil
}
