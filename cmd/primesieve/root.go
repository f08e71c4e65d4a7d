package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jamesainslie/primesieve/pkg/primesieve/config"
	"github.com/jamesainslie/primesieve/pkg/primesieve/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string

	// configReadErr holds a config file that exists but failed to parse.
	configReadErr error

	rootCmd = &cobra.Command{
		Use:   "primesieve",
		Short: "Count, sum and list primes with a parallel segmented sieve",
		Long: `primesieve finds every prime up to a bound N with a segmented Sieve of
Eratosthenes. Seed primes up to sqrt(N) are found first; the rest of the range
is split among W workers that strike multiples in parallel.

By default it prints the elapsed time, the prime count and the prime sum on
one line, followed by the K largest primes in ascending order.

Examples:
  primesieve                       # N = 100,000,000, 8 workers, top 10
  primesieve -n 1e6 -w 4 -k 5      # smaller run
  primesieve -n 1M -o pretty       # styled output
  primesieve -n 1e9 --tui          # live progress
  primesieve verify -n 1e7         # cross-check against a single-threaded sieve
  primesieve partition -n 100 -w 4 # show worker ranges
  primesieve history               # past runs`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initializeLogging,
		RunE:              runSieve,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/primesieve/config.yaml)")
	rootCmd.PersistentFlags().StringP("limit", "n", "", "upper bound N (e.g., 100000000, 1e8, 100M)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "segment workers W (0=auto)")
	rootCmd.PersistentFlags().String("partition", "", "partition policy: remainder, strict or equal")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-history", false, "do not record this run in the history")

	// Run flags
	rootCmd.Flags().IntP("top", "k", 0, "number of largest primes to report")
	rootCmd.Flags().StringP("output", "o", "", "output format: record, plain, pretty, json, yaml, template")
	rootCmd.Flags().String("out-file", "", "write output to a file instead of stdout")
	rootCmd.Flags().String("template", "", "Go template for -o template")
	rootCmd.Flags().Bool("use-cache", false, "answer from and store into the result cache")
	rootCmd.Flags().Bool("tui", false, "show live progress in a terminal UI")

	// Bind flags to viper
	_ = viper.BindPFlag("limit", rootCmd.PersistentFlags().Lookup("limit"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("partition", rootCmd.PersistentFlags().Lookup("partition"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("top_k", rootCmd.Flags().Lookup("top"))
	_ = viper.BindPFlag("output.format", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("output.path", rootCmd.Flags().Lookup("out-file"))
	_ = viper.BindPFlag("output.template", rootCmd.Flags().Lookup("template"))
	_ = viper.BindPFlag("cache.enabled", rootCmd.Flags().Lookup("use-cache"))
	_ = viper.BindPFlag("no_history", rootCmd.PersistentFlags().Lookup("no-history"))
	_ = viper.BindPFlag("tui", rootCmd.Flags().Lookup("tui"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	v := viper.GetViper()
	config.Setup(v, cfgFile)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configReadErr = fmt.Errorf("failed to read config file: %w", err)
		}
	}
}

// loadConfig decodes the merged flag, environment, file and default settings.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, configReadErr
	}
	return config.Decode(viper.GetViper())
}

// initializeLogging is the PersistentPreRunE hook. It creates the XDG
// directories and configures the logging package from the loaded config.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.EnsureDirs(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Path == "" {
		logCfg.Path = config.DefaultLogPath()
	}
	// The TUI owns the terminal: logs go to its panel instead of stderr.
	if viper.GetBool("tui") {
		logCfg.Panel = true
	} else if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// parseRotationConfig converts the config rotation section, falling back to
// the default size when max_size is empty or invalid.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
	}
	if rc.MaxSize != "" {
		if size, err := humanize.ParseBytes(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = int64(size)
		}
	}
	return out
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+describeError(err))
	}
	return err
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr if quiet mode is not enabled.
// Results go to stdout, so status text stays out of pipelines.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printWarning prints a warning to stderr.
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
