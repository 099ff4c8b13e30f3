// Package config loads and validates the YAML comparison configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// --- Configuration Structs ---

// SourceConfig describes one side of the comparison.
type SourceConfig struct {
	// Type selects the reader: csv, parquet, arrow or adbc. Empty means
	// detect from the file extension.
	Type string `mapstructure:"type,omitempty"`
	Path string `mapstructure:"path,omitempty"`

	// ADBC settings.
	Driver string `mapstructure:"driver,omitempty"`
	URI    string `mapstructure:"uri,omitempty"`
	Table  string `mapstructure:"table,omitempty"`
	Query  string `mapstructure:"query,omitempty"`

	BatchSize int64 `mapstructure:"batch_size,omitempty"`
}

// CompareConfig holds the matching and tolerance settings.
type CompareConfig struct {
	JoinColumns []string `mapstructure:"join_columns,omitempty"`
	OnIndex     bool     `mapstructure:"on_index"`
	AbsTol      float64  `mapstructure:"abs_tol"`
	RelTol      float64  `mapstructure:"rel_tol"`
	LeftName    string   `mapstructure:"left_name,omitempty"`
	RightName   string   `mapstructure:"right_name,omitempty"`
	Parallel    bool     `mapstructure:"parallel"`
	Workers     int      `mapstructure:"workers,omitempty"`
}

// ReportConfig names the report outputs to produce.
type ReportConfig struct {
	TextPath    string `mapstructure:"text_path,omitempty"`
	JSONPath    string `mapstructure:"json_path,omitempty"`
	HTMLPath    string `mapstructure:"html_path,omitempty"`
	SampleCount int    `mapstructure:"sample_count,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	Left    SourceConfig  `mapstructure:"left"`
	Right   SourceConfig  `mapstructure:"right"`
	Compare CompareConfig `mapstructure:"compare"`
	Report  ReportConfig  `mapstructure:"report"`
}

// --- Load Configuration ---

// LoadConfig reads and unmarshals the YAML file at configPath.
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks the whole document.
func (c *Config) Validate() error {
	if err := c.Left.Validate(); err != nil {
		return fmt.Errorf("left source validation failed: %w", err)
	}
	if err := c.Right.Validate(); err != nil {
		return fmt.Errorf("right source validation failed: %w", err)
	}
	if err := c.Compare.Validate(); err != nil {
		return fmt.Errorf("compare validation failed: %w", err)
	}
	return nil
}

// Validate checks that the source names a loadable dataset.
func (sc *SourceConfig) Validate() error {
	if sc.Type == "adbc" {
		if err := validate(sc.Driver != "", "driver is required for adbc sources"); err != nil {
			return err
		}
		return validate(sc.Table != "" || sc.Query != "", "either table or query is required for adbc sources")
	}
	return validate(sc.Path != "", "path is required")
}

// Validate checks the matching and tolerance settings.
func (cc *CompareConfig) Validate() error {
	if err := validate(!(cc.OnIndex && len(cc.JoinColumns) > 0),
		"join_columns and on_index are mutually exclusive"); err != nil {
		return err
	}
	if err := validate(cc.OnIndex || len(cc.JoinColumns) > 0,
		"either join_columns or on_index is required"); err != nil {
		return err
	}
	if err := validate(cc.AbsTol >= 0, "abs_tol must be non-negative"); err != nil {
		return err
	}
	return validate(cc.RelTol >= 0, "rel_tol must be non-negative")
}
