// Package config holds the configuration surface of the normalization
// pipeline. Keyword vocabularies and thresholds are best-effort pattern
// matchers tuned to one document family, so they live here as data rather
// than as literals in the matching code.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment variable overrides
// (TABLENORM_PIPELINE_ANCHOR_MAX_SCAN_ROWS and so on).
const EnvPrefix = "TABLENORM"

// Config is the complete application configuration.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Cleaning CleaningConfig `yaml:"cleaning" envconfig:"CLEANING"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/tablenorm.log"`
}

// PipelineConfig controls anchor detection, row classification, and
// assembly.
type PipelineConfig struct {
	// AnchorMaxScanRows bounds the header search window from the top of
	// the sheet.
	AnchorMaxScanRows int `yaml:"anchor_max_scan_rows" envconfig:"ANCHOR_MAX_SCAN_ROWS" default:"20" validate:"min=1"`
	// AnchorDefaultRow is used with low confidence when no row qualifies.
	AnchorDefaultRow int `yaml:"anchor_default_row" envconfig:"ANCHOR_DEFAULT_ROW" default:"7" validate:"min=0"`

	// SectionKeywords mark top-level section rows.
	SectionKeywords []string `yaml:"section_keywords" envconfig:"SECTION_KEYWORDS" default:"food,housing,dwelling,clothing,health,education,transport,culture"`
	// SectionQualifiers are label suffixes that confirm a section row.
	SectionQualifiers []string `yaml:"section_qualifiers" envconfig:"SECTION_QUALIFIERS" default:"excl.,total"`
	// GarbageKeywords mark table-title and aggregate rows that must not
	// survive into the output.
	GarbageKeywords []string `yaml:"garbage_keywords" envconfig:"GARBAGE_KEYWORDS" default:"consumption,expenditure,total"`

	// TotalColumn is the index of the designated total column among the
	// value columns. Rows with an empty total cell are structural spacers
	// and are dropped. -1 disables the rule.
	TotalColumn int `yaml:"total_column" envconfig:"TOTAL_COLUMN" default:"0" validate:"min=-1"`

	// ChecksumEnabled turns on the per-row percentage checksum for table
	// families whose value columns are percentages of the total column.
	ChecksumEnabled bool `yaml:"checksum_enabled" envconfig:"CHECKSUM_ENABLED" default:"false"`
	// ChecksumTolerance is the allowed deviation in percentage points.
	ChecksumTolerance float64 `yaml:"checksum_tolerance" envconfig:"CHECKSUM_TOLERANCE" default:"2.0" validate:"gt=0"`
}

// CleaningConfig controls the repair stages.
type CleaningConfig struct {
	MissingStrategy string `yaml:"missing_strategy" envconfig:"MISSING_STRATEGY" default:"smart" validate:"oneof=smart drop fill_default"`
	// FillDefaults supplies per-column defaults for the fill_default
	// strategy.
	FillDefaults map[string]float64 `yaml:"fill_defaults" envconfig:"FILL_DEFAULTS"`
	// FillLabelDefault replaces a missing label when the smart strategy
	// cannot use the mode.
	FillLabelDefault string `yaml:"fill_label_default" envconfig:"FILL_LABEL_DEFAULT" default:"Unknown"`
	// RequiredColumns are the fields whose absence makes the drop
	// strategy remove a row. Empty means all value columns.
	RequiredColumns []string `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS"`

	DuplicateKeyColumns []string `yaml:"duplicate_key_columns" envconfig:"DUPLICATE_KEY_COLUMNS" default:"category"`
	DuplicateKeep       string   `yaml:"duplicate_keep" envconfig:"DUPLICATE_KEEP" default:"first" validate:"oneof=first last"`

	OutlierMethod string `yaml:"outlier_method" envconfig:"OUTLIER_METHOD" default:"cap" validate:"oneof=cap remove flag"`
	// OutlierMultiplier scales the IQR bound: 1.5 for review-grade
	// detection, 3.0 for conservative capping.
	OutlierMultiplier float64 `yaml:"outlier_multiplier" envconfig:"OUTLIER_MULTIPLIER" default:"1.5" validate:"gt=0"`
	// OutlierColumns restricts outlier handling; empty means all value
	// columns.
	OutlierColumns []string `yaml:"outlier_columns" envconfig:"OUTLIER_COLUMNS"`
}

// Load builds configuration from environment variables, then overlays the
// YAML file at path if it exists, then validates. An empty path skips the
// file step.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration without consulting the
// environment or a file.
func Default() *Config {
	var cfg Config
	// envconfig fills in the struct-tag defaults; with an unused prefix
	// no environment variables can interfere.
	if err := envconfig.Process("TABLENORM_DEFAULTS_ONLY", &cfg); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return &cfg
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if len(c.Pipeline.SectionKeywords) == 0 {
		return fmt.Errorf("pipeline.section_keywords must not be empty")
	}
	if c.Pipeline.AnchorDefaultRow >= c.Pipeline.AnchorMaxScanRows {
		return fmt.Errorf("pipeline.anchor_default_row %d outside scan window %d",
			c.Pipeline.AnchorDefaultRow, c.Pipeline.AnchorMaxScanRows)
	}
	return nil
}
