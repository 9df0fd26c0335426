// Package config provides configuration management for the COVIDer CLI.
//
// Configuration is layered with koanf: built-in defaults, then covider.yaml,
// then COVIDER_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgrafuwsp/COVIDer/internal/fetch"
	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// Config holds all CLI configuration options.
type Config struct {
	DataDir      string            `koanf:"data_dir" yaml:"data_dir"`
	CSVDir       string            `koanf:"csv_dir" yaml:"csv_dir"`
	OutputDir    string            `koanf:"output_dir" yaml:"output_dir"`
	StatePath    string            `koanf:"state_path" yaml:"state_path"`
	Verbose      bool              `koanf:"verbose" yaml:"verbose"`
	OutputFormat string            `koanf:"output" yaml:"output"`
	Fetch        FetchConfig       `koanf:"fetch" yaml:"fetch"`
	Sources      map[string]string `koanf:"sources" yaml:"sources"`
	Datasets     []DatasetConfig   `koanf:"datasets" yaml:"datasets"`
	Criteria     []table.Criterion `koanf:"criteria" yaml:"criteria"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// FetchConfig controls the bounded-retry fetcher.
type FetchConfig struct {
	MaxAttempts int           `koanf:"max_attempts" yaml:"max_attempts"`
	Timeout     time.Duration `koanf:"timeout" yaml:"timeout"`
	UserAgent   string        `koanf:"user_agent" yaml:"user_agent"`
}

// MarshalYAML writes the timeout as a duration string such as "1m0s".
func (f FetchConfig) MarshalYAML() (any, error) {
	return struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Timeout     string `yaml:"timeout"`
		UserAgent   string `yaml:"user_agent"`
	}{f.MaxAttempts, f.Timeout.String(), f.UserAgent}, nil
}

// ClientConfig converts f for fetch.New.
func (f FetchConfig) ClientConfig() fetch.Config {
	return fetch.Config{
		MaxAttempts: f.MaxAttempts,
		Timeout:     f.Timeout,
		UserAgent:   f.UserAgent,
	}
}

// DatasetConfig is one entry of the download manifest.
type DatasetConfig struct {
	Name     string `koanf:"name" yaml:"name"`
	Source   string `koanf:"source" yaml:"source"`
	Path     string `koanf:"path" yaml:"path"`
	Encoding string `koanf:"encoding" yaml:"encoding,omitempty"`
	// Quoted selects quote-aware comma conversion for files whose fields
	// contain commas.
	Quoted bool `koanf:"quoted" yaml:"quoted,omitempty"`
}

// URL joins the dataset path onto the base URL of its source.
func (d DatasetConfig) URL(sources map[string]string) (string, error) {
	base, ok := sources[d.Source]
	if !ok {
		return "", fmt.Errorf("dataset %s: unknown source %q", d.Name, d.Source)
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(d.Path, "/"), nil
}

// Dataset returns the manifest entry with the given name.
func (c *Config) Dataset(name string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetConfig{}, false
}

// DatasetNames lists manifest names in order.
func (c *Config) DatasetNames() []string {
	names := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		names[i] = d.Name
	}
	return names
}

// Default configuration values.
const (
	DefaultDataDir   = "covid_data"
	DefaultCSVDir    = "csv_data"
	DefaultOutputDir = "."
	DefaultStateFile = ".covider/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultSources maps source prefixes to base URLs.
func DefaultSources() map[string]string {
	return map[string]string{
		"nyt": "https://raw.githubusercontent.com/nytimes/covid-19-data/master",
		"atl": "https://covidtracking.com/api",
		"usc": "http://www2.census.gov/programs-surveys/popest/datasets/2010-2019/counties/totals",
	}
}

// DefaultDatasets is the built-in download manifest.
func DefaultDatasets() []DatasetConfig {
	return []DatasetConfig{
		{Name: "nyt_us_counties", Source: "nyt", Path: "us-counties.csv"},
		{Name: "nyt_us_states", Source: "nyt", Path: "us-states.csv"},
		{Name: "nyt_us", Source: "nyt", Path: "us.csv"},
		{Name: "nyt_mask_use", Source: "nyt", Path: "mask-use/mask-use-by-county.csv"},
		{Name: "nyt_excess_deaths", Source: "nyt", Path: "excess-deaths/deaths.csv", Quoted: true},
		{Name: "atl_historic_us", Source: "atl", Path: "v1/us/daily.csv"},
		{Name: "atl_historic_states", Source: "atl", Path: "v1/states/daily.csv"},
		{Name: "usc_counties_2019", Source: "usc", Path: "co-est2019-alldata.csv", Encoding: string(fetch.EncodingLatin1)},
	}
}

// DefaultCriteria selects Los Angeles County and every Wisconsin county.
func DefaultCriteria() []table.Criterion {
	return []table.Criterion{
		{Category: "California", Subcategory: "Los Angeles"},
		{Category: "Wisconsin", Subcategory: table.Wildcard},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:      DefaultDataDir,
		CSVDir:       DefaultCSVDir,
		OutputDir:    DefaultOutputDir,
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Fetch: FetchConfig{
			MaxAttempts: fetch.DefaultMaxAttempts,
			Timeout:     fetch.DefaultTimeout,
			UserAgent:   fetch.DefaultUserAgent,
		},
		Sources:  DefaultSources(),
		Datasets: DefaultDatasets(),
		Criteria: DefaultCriteria(),
	}
}
