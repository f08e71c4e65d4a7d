package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/primesieve/pkg/primesieve/output"
	"github.com/jamesainslie/primesieve/pkg/primesieve/sieve"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/viper"
)

// appName names the XDG subdirectories and the environment prefix.
const appName = "primesieve"

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation" yaml:"rotation"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// OutputConfig selects how results are written.
type OutputConfig struct {
	Format   string `mapstructure:"format" yaml:"format"`
	Path     string `mapstructure:"path" yaml:"path"` // empty means stdout
	Template string `mapstructure:"template" yaml:"template"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// HistoryConfig configures the run history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Path          string `mapstructure:"path" yaml:"path"`
	RetentionDays int    `mapstructure:"retention_days" yaml:"retention_days"`
}

// MemoryConfig configures the pre-run memory check.
type MemoryConfig struct {
	Check bool `mapstructure:"check" yaml:"check"`
}

// Config represents the application configuration.
type Config struct {
	Limit     string        `mapstructure:"limit" yaml:"limit"`
	Workers   int           `mapstructure:"workers" yaml:"workers"`
	TopK      int           `mapstructure:"top_k" yaml:"top_k"`
	Partition string        `mapstructure:"partition" yaml:"partition"`
	Output    OutputConfig  `mapstructure:"output" yaml:"output"`
	Cache     CacheConfig   `mapstructure:"cache" yaml:"cache"`
	History   HistoryConfig `mapstructure:"history" yaml:"history"`
	Memory    MemoryConfig  `mapstructure:"memory" yaml:"memory"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Setup prepares v to read configuration. An explicit configFile wins;
// otherwise the search path is, in order of precedence:
//   - $XDG_CONFIG_HOME/primesieve/config.yaml
//   - $HOME/.config/primesieve/config.yaml
//
// Environment variables are prefixed with PRIMESIEVE_ (e.g., PRIMESIEVE_TOP_K).
func Setup(v *viper.Viper, configFile string) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, appName))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", appName))
		}
	}

	v.SetEnvPrefix("PRIMESIEVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("partition", DefaultPartition)

	v.SetDefault("output.format", DefaultOutputFormat)
	v.SetDefault("output.path", "")
	v.SetDefault("output.template", "")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "") // Empty means use DefaultCachePath

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "") // Empty means use DefaultHistoryPath
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("memory.check", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// Read reads the config file registered on v, if any, and decodes the result.
// A missing config file is not an error.
func Read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return Decode(v)
}

// Decode unmarshals v into a Config and resolves default and ~ paths.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath()
	}
	if cfg.Cache.Path, err = ExpandPath(cfg.Cache.Path); err != nil {
		return nil, err
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}
	if cfg.History.Path, err = ExpandPath(cfg.History.Path); err != nil {
		return nil, err
	}
	if cfg.Output.Path, err = ExpandPath(cfg.Output.Path); err != nil {
		return nil, err
	}
	if cfg.Logging.Path, err = ExpandPath(cfg.Logging.Path); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load loads configuration from the default file locations and the environment.
func Load() (*Config, error) {
	v := viper.New()
	Setup(v, "")
	return Read(v)
}

// Validate checks the configuration before any work begins. Every error
// wraps sieve.ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.LimitValue(); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must be positive, or 0 for auto", c.Workers))
	}
	if c.TopK < 0 {
		errs = append(errs, fmt.Errorf("top_k %d must not be negative", c.TopK))
	}
	if _, err := sieve.ParsePolicy(c.Partition); err != nil {
		errs = append(errs, err)
	}
	if _, err := output.Get(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Output.Template != "" {
		if _, err := output.ParseTemplate(c.Output.Template); err != nil {
			errs = append(errs, err)
		}
	}
	if c.History.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("history.retention_days %d must not be negative", c.History.RetentionDays))
	}
	if c.Logging.Rotation.MaxSize != "" {
		if _, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize); err != nil {
			errs = append(errs, fmt.Errorf("logging.rotation.max_size %q: %w", c.Logging.Rotation.MaxSize, err))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", sieve.ErrInvalidConfig, errors.Join(errs...))
}

// LimitValue parses the configured bound N.
func (c *Config) LimitValue() (int, error) {
	n, err := types.ParseBound(c.Limit)
	if err != nil {
		return 0, fmt.Errorf("limit: %w", err)
	}
	if n < 1 {
		return 0, fmt.Errorf("limit %d must be at least 1", n)
	}
	return n, nil
}

// SieveOptions converts the configuration into sieve options. Workers is
// passed through unchanged, so a zero value must be resolved by the caller.
func (c *Config) SieveOptions() (sieve.Options, error) {
	if err := c.Validate(); err != nil {
		return sieve.Options{}, err
	}
	n, _ := c.LimitValue()
	policy, _ := sieve.ParsePolicy(c.Partition)
	return sieve.Options{
		Limit:   n,
		Workers: c.Workers,
		TopK:    c.TopK,
		Policy:  policy,
	}, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# primesieve configuration

# Inclusive upper bound N. Accepts 100000000, 100_000_000, 1e8 or 100M.
limit: %s

# Segment workers W (0 = one per CPU, capped at 64)
workers: %d

# Number of largest primes to report
top_k: %d

# What to do when (N - sqrt N) is not divisible by W:
#   remainder  the last worker also takes the remainder
#   strict     refuse to run
#   equal      leave the remainder unsieved and report the gap
partition: %s

# Output format: record, plain, pretty, json, yaml
output:
  format: %s
  # Output file (empty means stdout)
  path: ""

# Result cache keyed by (limit, partition policy); worker count joins the key
# only under the equal policy. A cached entry answers any smaller top_k.
cache:
  enabled: false
  # Empty means use default: $XDG_CACHE_HOME/primesieve/results
  path: ""

# Run history
history:
  enabled: true
  # Empty means use default: $XDG_DATA_HOME/primesieve/history
  path: ""
  retention_days: %d

# Refuse to run when the flag array would not fit in available memory
memory:
  check: true

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/primesieve/primesieve.log)
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
  # Per-component log levels
  components:
    sieve: info
    tuner: info
    cache: info
    manifest: info
    output: warn
    tui: info
`, DefaultLimit, DefaultWorkers, DefaultTopK, DefaultPartition, DefaultOutputFormat,
		DefaultRetentionDays, DefaultLogMaxSize)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}

	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/primesieve/ for run history.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/primesieve/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// CacheDir returns $XDG_CACHE_HOME/primesieve/ for the result cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

// DefaultCachePath returns the default result cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "results")
}

// DefaultHistoryPath returns the default run history directory.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "primesieve.log")
}

// EnsureDirs creates the data, state and cache directories.
func EnsureDirs() error {
	for _, dir := range []string{DataDir(), StateDir(), CacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
