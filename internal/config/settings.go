package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds runtime options of the CLI. Env var overrides use prefix FINSIM_.
type Settings struct {
	RulesDir     string `mapstructure:"rules_dir"`
	EconomicFile string `mapstructure:"economic_file"`
	Format       string `mapstructure:"format"`
	Output       string `mapstructure:"output"`
	Runs         int    `mapstructure:"runs"`
	Seed         int64  `mapstructure:"seed"`
	LogLevel     string `mapstructure:"log_level"`
}

// LoadSettings reads settings from path (or ./finsim.yaml when path is empty)
// and the environment. A missing default file is not an error.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()

	v.SetDefault("rules_dir", "data/rules")
	v.SetDefault("economic_file", "data/economic.csv")
	v.SetDefault("format", "console")
	v.SetDefault("output", "")
	v.SetDefault("runs", 0)
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "warn")

	if path == "" {
		path = os.Getenv("FINSIM_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("finsim")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("FINSIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
