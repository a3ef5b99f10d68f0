package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/agegroup/cuffannot/internal/biomart"
	"github.com/agegroup/cuffannot/internal/david"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Tiers  TierConfig   `yaml:"tiers" mapstructure:"tiers"`
	Mart   MartConfig   `yaml:"mart" mapstructure:"mart"`
	David  DavidConfig  `yaml:"david" mapstructure:"david"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the diff tables and the two annotation sources.
type InputConfig struct {
	Folder         string   `yaml:"folder" mapstructure:"folder"`
	Files          []string `yaml:"files" mapstructure:"files"`
	Labels         []string `yaml:"labels" mapstructure:"labels"`
	OriginalGTF    string   `yaml:"original_gtf" mapstructure:"original_gtf"`
	CuffcompareGTF string   `yaml:"cuffcompare_gtf" mapstructure:"cuffcompare_gtf"`
}

// OutputConfig locates the report and checkpoint destination.
type OutputConfig struct {
	Folder string `yaml:"folder" mapstructure:"folder"`
}

// TierConfig selects which significance tiers are reported.
type TierConfig struct {
	SigOnly    bool    `yaml:"sig_only" mapstructure:"sig_only"`
	PThreshold float64 `yaml:"p_threshold" mapstructure:"p_threshold"`
}

// MartConfig configures the BioMart annotation backend. Attribute lists are
// order-sensitive: id-like attribute first.
type MartConfig struct {
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	Mart         string   `yaml:"mart" mapstructure:"mart"`
	Dataset      string   `yaml:"dataset" mapstructure:"dataset"`
	Filter       string   `yaml:"filter" mapstructure:"filter"`
	BiotypeAttrs []string `yaml:"biotype_attrs" mapstructure:"biotype_attrs"`
	GOAttrs      []string `yaml:"go_attrs" mapstructure:"go_attrs"`
}

// DavidConfig configures the DAVID enrichment backend.
type DavidConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	User       string  `yaml:"user" mapstructure:"user"`
	IDType     string  `yaml:"id_type" mapstructure:"id_type"`
	PThreshold float64 `yaml:"p_threshold" mapstructure:"p_threshold"`
	MinCount   int     `yaml:"min_count" mapstructure:"min_count"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ~/.cuffannot.yaml, the working directory and
// CUFFANNOT_* environment variables, with defaults filled in. It configures
// the global viper instance so the config subcommands read and write the same
// settings the pipeline runs with.
func Load() (*Config, error) {
	v := viper.GetViper()

	v.SetConfigName(".cuffannot")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CUFFANNOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.files", []string{
		"gene_exp.diff", "promoters.diff", "splicing.diff", "cds.diff",
		"isoform_exp.diff",
	})
	v.SetDefault("input.labels", []string{
		"geneexp", "prom", "splic", "cds", "iso",
	})
	v.SetDefault("tiers.p_threshold", 0.05)
	v.SetDefault("mart.base_url", biomart.DefaultBaseURL)
	v.SetDefault("mart.mart", "ensembl")
	v.SetDefault("mart.dataset", "celegans_gene_ensembl")
	v.SetDefault("mart.filter", "ensembl_gene_id")
	v.SetDefault("mart.biotype_attrs", []string{"ensembl_gene_id", "gene_biotype"})
	v.SetDefault("mart.go_attrs", []string{"ensembl_gene_id", "go_id", "name_1006"})
	v.SetDefault("david.base_url", david.DefaultBaseURL)
	v.SetDefault("david.id_type", "WORMBASE_GENE_ID")
	v.SetDefault("david.p_threshold", 0.1)
	v.SetDefault("david.min_count", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate reports configuration problems before any pipeline stage runs.
func Validate(cfg *Config) error {
	if cfg.Input.Folder == "" {
		return eris.New("config: input folder is required")
	}
	if cfg.Output.Folder == "" {
		return eris.New("config: output folder is required")
	}
	if cfg.Input.OriginalGTF == "" {
		return eris.New("config: original GTF path is required")
	}
	if len(cfg.Input.Files) == 0 {
		return eris.New("config: at least one diff file is required")
	}
	if len(cfg.Input.Files) != len(cfg.Input.Labels) {
		return eris.Errorf("config: %d diff files but %d output labels; the lists align positionally",
			len(cfg.Input.Files), len(cfg.Input.Labels))
	}
	if len(cfg.Mart.BiotypeAttrs) < 2 {
		return eris.New("config: biotype attributes need the id attribute followed by the biotype attribute")
	}
	if len(cfg.Mart.GOAttrs) < 3 {
		return eris.New("config: GO attributes need the id, GO id and GO term attributes in that order")
	}
	if cfg.David.Enabled && cfg.David.User == "" {
		return eris.New("config: david.user is required when enrichment is enabled")
	}
	return nil
}

// InitLogger installs the global zap logger per the logging configuration.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
