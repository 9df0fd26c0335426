package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable read by LoadConfig.
// A double underscore separates nested keys: COVIDER_FETCH__MAX_ATTEMPTS.
const EnvPrefix = "COVIDER_"

// ConfigFileNames are searched, in order, in the working directory.
var ConfigFileNames = []string{"covider.yaml", "covider.yml"}

// flagKeys maps flag names to config keys. Flags not listed are not
// configuration and are left to the command that declares them.
var flagKeys = map[string]string{
	"data-dir":     "data_dir",
	"csv-dir":      "csv_dir",
	"output-dir":   "output_dir",
	"state":        "state_path",
	"verbose":      "verbose",
	"output":       "output",
	"max-attempts": "fetch.max_attempts",
	"timeout":      "fetch.timeout",
	"user-agent":   "fetch.user_agent",
}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > covider.yaml > covider.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// defaultValues flattens Default for the confmap provider.
func defaultValues() map[string]any {
	d := Default()

	sources := make(map[string]any, len(d.Sources))
	for prefix, url := range d.Sources {
		sources[prefix] = url
	}
	datasets := make([]any, len(d.Datasets))
	for i, ds := range d.Datasets {
		datasets[i] = map[string]any{
			"name":     ds.Name,
			"source":   ds.Source,
			"path":     ds.Path,
			"encoding": ds.Encoding,
			"quoted":   ds.Quoted,
		}
	}
	criteria := make([]any, len(d.Criteria))
	for i, c := range d.Criteria {
		criteria[i] = map[string]any{"state": c.Category, "county": c.Subcategory}
	}

	return map[string]any{
		"data_dir":   d.DataDir,
		"csv_dir":    d.CSVDir,
		"output_dir": d.OutputDir,
		"state_path": d.StatePath,
		"verbose":    d.Verbose,
		"output":     d.OutputFormat,
		"fetch": map[string]any{
			"max_attempts": d.Fetch.MaxAttempts,
			"timeout":      d.Fetch.Timeout.String(),
			"user_agent":   d.Fetch.UserAgent,
		},
		"sources":  sources,
		"datasets": datasets,
		"criteria": criteria,
	}
}

// envKey transforms COVIDER_FETCH__MAX_ATTEMPTS into fetch.max_attempts.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// Relative paths from the file, env or defaults resolve against the config
// file's directory (or the working directory when there is no file); relative
// paths given as flags resolve against the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	projectRoot := cwd

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (COVIDER_ prefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			val := posflag.FlagVal(flags, f)
			if strings.HasSuffix(key, "_dir") || key == "state_path" {
				if s, ok := val.(string); ok && s != "" {
					if abs, err := filepath.Abs(s); err == nil {
						flagPaths[key] = abs
					}
				}
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve relative paths
	cfg.ProjectRoot = projectRoot
	for key, p := range map[string]*string{
		"data_dir":   &cfg.DataDir,
		"csv_dir":    &cfg.CSVDir,
		"output_dir": &cfg.OutputDir,
		"state_path": &cfg.StatePath,
	} {
		if abs, ok := flagPaths[key]; ok {
			*p = abs
			continue
		}
		*p = resolvePathRelativeTo(*p, projectRoot)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last LoadConfig
// call, or nil.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
