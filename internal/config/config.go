package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/YohanssenPardede/proyek-analisis-data/internal/utils"
)

// EnvPrefix is prepended to every environment override, e.g. ORDERLENS_TIERS.
const EnvPrefix = "ORDERLENS"

// Global configuration structure.
type Global struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Input parsing
	Delimiter  string            `mapstructure:"delimiter" yaml:"delimiter"`
	TimeLayout string            `mapstructure:"time_layout" yaml:"time_layout"`
	Columns    map[string]string `mapstructure:"columns" yaml:"columns,omitempty"`
	SheetName  string            `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex int               `mapstructure:"sheet_index" yaml:"sheet_index"`

	// RFM engine
	FrequencyMode    string `mapstructure:"frequency_mode" yaml:"frequency_mode"`
	RecencyOrder     string `mapstructure:"recency_order" yaml:"recency_order"`
	QuantileFallback string `mapstructure:"quantile_fallback" yaml:"quantile_fallback"`
	Tiers            int    `mapstructure:"tiers" yaml:"tiers"`
	RulesFile        string `mapstructure:"rules_file" yaml:"rules_file"`

	// Output and serving
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	ServerAddr string `mapstructure:"server_addr" yaml:"server_addr"`
	CacheSize  int    `mapstructure:"cache_size" yaml:"cache_size"`
	Workers    int    `mapstructure:"workers" yaml:"workers"`
}

// Dir returns ~/.orderlens, the default home of config.yaml.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".orderlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.orderlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// envFile names a dotenv file whose variables are exported before viper reads
// the environment; a missing envFile is not an error.
func Load(cfgFile, envFile string) (*Global, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the configuration used when nothing is set anywhere.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("delimiter", "")
	v.SetDefault("time_layout", "")
	v.SetDefault("sheet_name", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("frequency_mode", "rows")
	v.SetDefault("recency_order", "ascending")
	v.SetDefault("quantile_fallback", "none")
	v.SetDefault("tiers", 3)
	v.SetDefault("rules_file", "")
	v.SetDefault("output_dir", ".")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("cache_size", 32)
	v.SetDefault("workers", 4)
}

// Validate checks enumerated and numeric settings.
func (c *Global) Validate() error {
	switch c.FrequencyMode {
	case "rows", "orders":
	default:
		return fmt.Errorf("invalid frequency_mode: %q (use rows or orders)", c.FrequencyMode)
	}
	switch c.RecencyOrder {
	case "ascending", "descending":
	default:
		return fmt.Errorf("invalid recency_order: %q (use ascending or descending)", c.RecencyOrder)
	}
	switch c.QuantileFallback {
	case "none", "rank":
	default:
		return fmt.Errorf("invalid quantile_fallback: %q (use none or rank)", c.QuantileFallback)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (use text or json)", c.LogFormat)
	}
	if c.Tiers < 2 || c.Tiers > 9 {
		return fmt.Errorf("invalid tiers: %d (must be 2..9)", c.Tiers)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("invalid cache_size: %d (must be >= 1)", c.CacheSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid workers: %d (must be >= 1)", c.Workers)
	}
	return nil
}
