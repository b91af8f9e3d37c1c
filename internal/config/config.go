package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	Years        []int  `mapstructure:"years" yaml:"years"`
	OutDir       string `mapstructure:"out_dir" yaml:"out_dir"`
	UVSourceDir  string `mapstructure:"uv_source_dir" yaml:"uv_source_dir"`
	WorkbookPath string `mapstructure:"workbook_path" yaml:"workbook_path"`
	SheetName    string `mapstructure:"sheet_name" yaml:"sheet_name"`
	HeaderRow    int    `mapstructure:"header_row" yaml:"header_row"`
	RateStandard string `mapstructure:"rate_standard" yaml:"rate_standard"`

	// CKAN catalogue access
	CKANBaseURL      string  `mapstructure:"ckan_base_url" yaml:"ckan_base_url"`
	FetchConcurrency int     `mapstructure:"fetch_concurrency" yaml:"fetch_concurrency"`
	RateLimitRPS     float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.sunwrangle/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".sunwrangle")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SUNWRANGLE")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("years", []int{2022, 2023, 2024})
	v.SetDefault("out_dir", "data")
	v.SetDefault("uv_source_dir", "")
	v.SetDefault("workbook_path", "")
	v.SetDefault("sheet_name", "Table S7.1")
	v.SetDefault("header_row", 5)
	v.SetDefault("rate_standard", "2001")
	// CKAN defaults
	v.SetDefault("ckan_base_url", "https://data.gov.au/data")
	v.SetDefault("fetch_concurrency", 4)
	v.SetDefault("rate_limit_rps", 4.0)
	v.SetDefault("rate_limit_burst", 2)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".sunwrangle")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
