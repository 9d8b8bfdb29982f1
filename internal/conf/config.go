// Package conf loads application settings from defaults, an optional YAML
// config file, PEMBENIHAN_* environment variables and command line flags.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sekarsister/prediksi-pembenihan/internal/frame"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PEMBENIHAN"

// Settings is the application configuration.
type Settings struct {
	Debug bool `mapstructure:"debug"`

	Dataset struct {
		Path  string `mapstructure:"path"`  // xlsx or csv production table
		Sheet string `mapstructure:"sheet"` // worksheet name, empty for the first one
	} `mapstructure:"dataset"`

	Models struct {
		Dir      string        `mapstructure:"dir"`
		Prefix   string        `mapstructure:"prefix"`
		CacheTTL time.Duration `mapstructure:"cachettl"`
	} `mapstructure:"models"`

	Forecast struct {
		DefaultPeriods int `mapstructure:"defaultperiods"`
		MaxPeriods     int `mapstructure:"maxperiods"`
	} `mapstructure:"forecast"`

	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`  // debug, info, warn, error
		Format string `mapstructure:"format"` // json or console
	} `mapstructure:"logging"`
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()
	setDefaultConfig(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (or config.yaml from the default search paths when
// empty) into v and returns the resulting settings. A missing default config
// file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range defaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// ValidateSettings checks values that would otherwise fail late.
func ValidateSettings(s *Settings) error {
	var errs []error
	if s.Forecast.DefaultPeriods < 1 {
		errs = append(errs, fmt.Errorf("forecast.defaultperiods must be at least 1, got %d", s.Forecast.DefaultPeriods))
	}
	if s.Forecast.MaxPeriods < 1 || s.Forecast.MaxPeriods > frame.MaxPeriods {
		errs = append(errs, fmt.Errorf("forecast.maxperiods must be between 1 and %d, got %d", frame.MaxPeriods, s.Forecast.MaxPeriods))
	} else if s.Forecast.DefaultPeriods > s.Forecast.MaxPeriods {
		errs = append(errs, fmt.Errorf("forecast.defaultperiods %d exceeds forecast.maxperiods %d", s.Forecast.DefaultPeriods, s.Forecast.MaxPeriods))
	}
	if s.Models.CacheTTL < 0 {
		errs = append(errs, errors.New("models.cachettl must not be negative"))
	}
	switch strings.ToLower(s.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", s.Logging.Format))
	}
	return errors.Join(errs...)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".pembenihan"))
	}
	return paths
}
