package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

var (
	validSources    = []string{SourceDir, SourceStore}
	validDrivers    = []string{DriverSQLite, DriverPostgres}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
	validOutputs    = []string{"text", "json"}
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TemplatesDir == "" && c.Source == SourceDir {
		return fmt.Errorf("templates_dir is required")
	}
	if err := oneOf("source", c.Source, validSources); err != nil {
		return err
	}
	if err := oneOf("store.driver", c.Store.Driver, validDrivers); err != nil {
		return err
	}
	if err := oneOf("log_level", strings.ToLower(c.LogLevel), validLogLevels); err != nil {
		return err
	}
	if err := oneOf("log_format", c.LogFormat, validLogFormats); err != nil {
		return err
	}
	if err := oneOf("output", c.Output, validOutputs); err != nil {
		return err
	}
	if c.Check.Concurrency < 1 {
		return fmt.Errorf("check.concurrency must be at least 1, got %d", c.Check.Concurrency)
	}
	return nil
}

// ValidateDirectories checks that the templates directory exists when it is the source.
func (c *Config) ValidateDirectories() error {
	if c.Source != SourceDir {
		return nil
	}
	if _, err := os.Stat(c.TemplatesDir); os.IsNotExist(err) {
		return fmt.Errorf("templates directory does not exist: %s\nHint: Create the directory or use --templates to specify a different path", c.TemplatesDir)
	}
	return nil
}

func oneOf(key, value string, valid []string) error {
	if slices.Contains(valid, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", key, value, strings.Join(valid, ", "))
}
