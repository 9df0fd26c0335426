package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dgrafuwsp/COVIDer/internal/fetch"
)

// OutputFormats lists the accepted values of the output key.
var OutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid. It does not touch the
// filesystem, so help and init work without any directories.
func (c *Config) Validate() error {
	var errs []error

	for key, v := range map[string]string{"data_dir": c.DataDir, "csv_dir": c.CSVDir, "output_dir": c.OutputDir} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if !slices.Contains(OutputFormats, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", OutputFormats, c.OutputFormat))
	}

	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout))
	}

	seen := make(map[string]bool, len(c.Datasets))
	for i, d := range c.Datasets {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("datasets[%d]: name is required", i))
			continue
		}
		if seen[d.Name] {
			errs = append(errs, fmt.Errorf("datasets[%d]: duplicate name %q", i, d.Name))
		}
		seen[d.Name] = true

		if d.Path == "" {
			errs = append(errs, fmt.Errorf("dataset %s: path is required", d.Name))
		}
		if _, ok := c.Sources[d.Source]; !ok {
			errs = append(errs, fmt.Errorf("dataset %s: unknown source %q", d.Name, d.Source))
		}
		if _, err := fetch.ParseEncoding(d.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("dataset %s: %w", d.Name, err))
		}
	}

	return errors.Join(errs...)
}

// ValidateDirectories checks that the data directory exists.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.DataDir); os.IsNotExist(err) {
		return fmt.Errorf("data directory does not exist: %s\nHint: run 'covider fetch' first or use --data-dir to specify a different path", c.DataDir)
	}
	return nil
}
