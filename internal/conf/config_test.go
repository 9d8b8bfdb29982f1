package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load(New(), "")
	require.NoError(t, err)

	assert.False(t, s.Debug)
	assert.Equal(t, "./content/produksi_pembenihan_jawaBarat_2019_2023_filtered.xlsx", s.Dataset.Path)
	assert.Equal(t, "./content/prophet_models", s.Models.Dir)
	assert.Equal(t, "prophet_model_", s.Models.Prefix)
	assert.Equal(t, 30*time.Minute, s.Models.CacheTTL)
	assert.Equal(t, 3, s.Forecast.DefaultPeriods)
	assert.Equal(t, 50, s.Forecast.MaxPeriods)
	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, "json", s.Logging.Format)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  path: data/produksi.csv
models:
  dir: /srv/models
  cachettl: 5m
forecast:
  defaultperiods: 5
logging:
  format: console
`), 0o644))

	s, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "data/produksi.csv", s.Dataset.Path)
	assert.Equal(t, "/srv/models", s.Models.Dir)
	assert.Equal(t, 5*time.Minute, s.Models.CacheTTL)
	assert.Equal(t, 5, s.Forecast.DefaultPeriods)
	assert.Equal(t, "console", s.Logging.Format)
	assert.Equal(t, "prophet_model_", s.Models.Prefix, "unset keys keep defaults")
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PEMBENIHAN_MODELS_DIR", "/env/models")
	t.Setenv("PEMBENIHAN_SERVER_ADDR", ":9090")

	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/env/models", s.Models.Dir)
	assert.Equal(t, ":9090", s.Server.Addr)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateSettings(t *testing.T) {
	s := &Settings{}
	s.Forecast.DefaultPeriods = 0
	s.Models.CacheTTL = -time.Second
	s.Logging.Format = "xml"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defaultperiods")
	assert.Contains(t, err.Error(), "cachettl")
	assert.Contains(t, err.Error(), "logging.format")
	assert.Contains(t, err.Error(), "maxperiods")
}

func TestValidateSettingsPeriodBounds(t *testing.T) {
	tests := []struct {
		name     string
		def, limit int
		ok       bool
	}{
		{"defaults", 3, 50, true},
		{"default equals limit", 10, 10, true},
		{"default above limit", 11, 10, false},
		{"limit above builder maximum", 3, 1001, false},
		{"zero limit", 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{}
			s.Forecast.DefaultPeriods = tt.def
			s.Forecast.MaxPeriods = tt.limit
			s.Logging.Format = "json"
			err := ValidateSettings(s)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
