package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ncobase/revsearch/validator"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REVSEARCH_SEARCH_ENGINE.
const EnvPrefix = "REVSEARCH"

// Config represents the configuration implementation.
type Config struct {
	Search  *Search
	Dataset *Dataset
	Logger  *Logger
	Viper   *viper.Viper
}

// legacyEnv maps config keys to the plain environment names also accepted.
var legacyEnv = map[string][]string{
	"search.username": {"OPENSEARCH_USER"},
	"search.password": {"OPENSEARCH_PASSWORD"},
	"dataset.token":   {"HF_TOKEN"},
}

// LoadEnvFile loads variables from dotenv files that exist. Variables already
// present in the environment win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig loads the configuration from the file, if any, and the environment.
// An empty configPath looks for revsearch.yaml in the working directory and
// $HOME/.revsearch; a missing file is not an error in that case.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envNames := append([]string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envNames...)...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("revsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.revsearch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	return &Config{
		Search:  getSearchConfig(v),
		Dataset: getDatasetConfig(v),
		Logger:  getLoggerConfig(v),
		Viper:   v,
	}, nil
}

// Validate checks every section that is present.
func (c *Config) Validate() error {
	if c.Search == nil {
		return errors.New("config: search section is required")
	}
	sections := []struct {
		name string
		v    any
	}{
		{"search", c.Search},
		{"dataset", c.Dataset},
		{"logger", c.Logger},
	}
	for _, s := range sections {
		if reflect.ValueOf(s.v).IsNil() {
			continue
		}
		if err := validator.ValidateStruct(s.v, s.name); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
