// Package config provides configuration management for primesieve.
package config

// Default configuration values for primesieve.
const (
	// DefaultLimit is the default inclusive upper bound N.
	DefaultLimit = "100_000_000"

	// DefaultWorkers is the default number of segment workers. Zero means auto.
	DefaultWorkers = 8

	// DefaultTopK is the default number of largest primes to report.
	DefaultTopK = 10

	// DefaultPartition is the default partition policy.
	DefaultPartition = "remainder"

	// DefaultOutputFormat is the default output format.
	DefaultOutputFormat = "record"

	// DefaultRetentionDays is the default number of days to retain run history.
	DefaultRetentionDays = 30

	// DefaultLogMaxSize is the default log rotation threshold.
	DefaultLogMaxSize = "10MB"
)

// DefaultComponentLevels holds the per-component log levels written to new configs.
var DefaultComponentLevels = map[string]string{
	"sieve":    "info",
	"tuner":    "info",
	"cache":    "info",
	"manifest": "info",
	"output":   "warn",
	"tui":      "info",
}
