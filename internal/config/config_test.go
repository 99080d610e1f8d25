package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.Pipeline.AnchorMaxScanRows)
	assert.Equal(t, 7, cfg.Pipeline.AnchorDefaultRow)
	assert.Contains(t, cfg.Pipeline.SectionKeywords, "food")
	assert.Equal(t, 0, cfg.Pipeline.TotalColumn)
	assert.False(t, cfg.Pipeline.ChecksumEnabled)
	assert.Equal(t, "smart", cfg.Cleaning.MissingStrategy)
	assert.Equal(t, []string{"category"}, cfg.Cleaning.DuplicateKeyColumns)
	assert.Equal(t, "first", cfg.Cleaning.DuplicateKeep)
	assert.Equal(t, "cap", cfg.Cleaning.OutlierMethod)
	assert.InDelta(t, 1.5, cfg.Cleaning.OutlierMultiplier, 1e-9)
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  anchor_max_scan_rows: 30
  checksum_enabled: true
cleaning:
  missing_strategy: drop
  outlier_method: flag
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Pipeline.AnchorMaxScanRows)
	assert.True(t, cfg.Pipeline.ChecksumEnabled)
	assert.Equal(t, "drop", cfg.Cleaning.MissingStrategy)
	assert.Equal(t, "flag", cfg.Cleaning.OutlierMethod)
	// Untouched keys keep their defaults.
	assert.Equal(t, 7, cfg.Pipeline.AnchorDefaultRow)
	assert.Equal(t, "first", cfg.Cleaning.DuplicateKeep)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TABLENORM_CLEANING_OUTLIER_MULTIPLIER", "3.0")
	t.Setenv("TABLENORM_PIPELINE_TOTAL_COLUMN", "-1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, cfg.Cleaning.OutlierMultiplier, 1e-9)
	assert.Equal(t, -1, cfg.Pipeline.TotalColumn)
}

// The YAML file is the last word: a key present in the file wins over
// its environment variable, while keys absent from the file keep the
// environment value.
func TestLoadFileWinsOverEnv(t *testing.T) {
	t.Setenv("TABLENORM_CLEANING_OUTLIER_MULTIPLIER", "3.0")
	t.Setenv("TABLENORM_CLEANING_DUPLICATE_KEEP", "last")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cleaning:\n  outlier_multiplier: 2.0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cfg.Cleaning.OutlierMultiplier, 1e-9)
	assert.Equal(t, "last", cfg.Cleaning.DuplicateKeep)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown missing strategy",
			mutate:  func(c *Config) { c.Cleaning.MissingStrategy = "bogus" },
			wantErr: true,
		},
		{
			name:    "unknown outlier method",
			mutate:  func(c *Config) { c.Cleaning.OutlierMethod = "ignore" },
			wantErr: true,
		},
		{
			name:    "non-positive outlier multiplier",
			mutate:  func(c *Config) { c.Cleaning.OutlierMultiplier = 0 },
			wantErr: true,
		},
		{
			name:    "non-positive checksum tolerance",
			mutate:  func(c *Config) { c.Pipeline.ChecksumTolerance = 0 },
			wantErr: true,
		},
		{
			name:    "empty section keywords",
			mutate:  func(c *Config) { c.Pipeline.SectionKeywords = nil },
			wantErr: true,
		},
		{
			name: "default anchor outside scan window",
			mutate: func(c *Config) {
				c.Pipeline.AnchorMaxScanRows = 5
				c.Pipeline.AnchorDefaultRow = 5
			},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
