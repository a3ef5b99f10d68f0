package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Input: InputConfig{
			Folder:      "/data/cuffdiff",
			Files:       []string{"gene_exp.diff", "cds.diff"},
			Labels:      []string{"geneexp", "cds"},
			OriginalGTF: "/data/genes.gtf",
		},
		Output: OutputConfig{Folder: "/data/out"},
		Tiers:  TierConfig{PThreshold: 0.05},
		Mart: MartConfig{
			BiotypeAttrs: []string{"ensembl_gene_id", "gene_biotype"},
			GOAttrs:      []string{"ensembl_gene_id", "go_id", "name_1006"},
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"gene_exp.diff", "promoters.diff", "splicing.diff", "cds.diff",
		"isoform_exp.diff",
	}, cfg.Input.Files)
	assert.Equal(t, []string{"geneexp", "prom", "splic", "cds", "iso"}, cfg.Input.Labels)
	assert.Equal(t, 0.05, cfg.Tiers.PThreshold)
	assert.Equal(t, "ensembl", cfg.Mart.Mart)
	assert.Equal(t, "celegans_gene_ensembl", cfg.Mart.Dataset)
	assert.Equal(t, "ensembl_gene_id", cfg.Mart.Filter)
	assert.Equal(t, "WORMBASE_GENE_ID", cfg.David.IDType)
	assert.Equal(t, 0.1, cfg.David.PThreshold)
	assert.Equal(t, 2, cfg.David.MinCount)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_PopulatesSharedViper(t *testing.T) {
	// The config subcommands read keys through the package-level viper
	// instance; Load must leave every setting visible there.
	_, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "WORMBASE_GENE_ID", viper.GetString("david.id_type"))
	assert.Equal(t, "celegans_gene_ensembl", viper.GetString("mart.dataset"))
	assert.NotEmpty(t, viper.AllSettings())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing input folder", func(c *Config) { c.Input.Folder = "" }, "input folder"},
		{"missing output folder", func(c *Config) { c.Output.Folder = "" }, "output folder"},
		{"missing gtf", func(c *Config) { c.Input.OriginalGTF = "" }, "GTF"},
		{"no diff files", func(c *Config) { c.Input.Files = nil; c.Input.Labels = nil }, "diff file"},
		{"misaligned labels", func(c *Config) { c.Input.Labels = []string{"geneexp"} }, "positionally"},
		{"short biotype attrs", func(c *Config) { c.Mart.BiotypeAttrs = []string{"gene_biotype"} }, "biotype"},
		{"short go attrs", func(c *Config) { c.Mart.GOAttrs = []string{"go_id"} }, "GO attributes"},
		{"david without user", func(c *Config) { c.David.Enabled = true }, "david.user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "chatty", Format: "console"})
	require.Error(t, err)
}
