package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jamesainslie/primesieve/pkg/primesieve/cache"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the result cache",
	Long: `Commands for managing the primesieve result cache.

When cache.enabled is set (or --use-cache is given), the count, sum and
largest primes of each run are stored by limit and partition policy, and
repeat runs are answered without sieving. Cache data is stored in the XDG
cache directory (typically ~/.cache/primesieve/results).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached results",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays the cache location, its on-disk size and the cached entries.`,
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.Cache.Path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache opens the configured store, or returns nil when none exists yet.
func openCache() (*cache.Store, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	path := cfg.Cache.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, path, nil
	}
	store, err := cache.OpenStore(path)
	if err != nil {
		return nil, path, err
	}
	return store, path, nil
}

// runCacheClear drops every cached result.
func runCacheClear(_ *cobra.Command, _ []string) error {
	store, _, err := openCache()
	if err != nil {
		return err
	}
	if store == nil {
		printInfo("Cache is already empty.")
		return nil
	}
	defer func() { _ = store.Close() }()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	printInfo("Cache cleared.")
	return nil
}

// runCacheStats prints the store size and its entries.
func runCacheStats(_ *cobra.Command, _ []string) error {
	store, path, err := openCache()
	if err != nil {
		return err
	}
	fmt.Printf("Cache location: %s\n", path)
	if store == nil {
		fmt.Println("Cache: empty (no cache directory)")
		return nil
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	fmt.Printf("Cache size: %s (lsm %s, vlog %s)\n",
		types.FormatSize(stats.LSMSize+stats.VlogSize),
		types.FormatSize(stats.LSMSize), types.FormatSize(stats.VlogSize))
	fmt.Printf("Entries: %d\n", stats.Entries)
	if len(stats.Keys) == 0 {
		return nil
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LIMIT\tPARTITION\tWORKERS")
	for _, k := range stats.Keys {
		workers := "-"
		if k.Workers > 0 {
			workers = fmt.Sprint(k.Workers)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", types.FormatCount(int64(k.Limit)), k.Policy, workers)
	}
	return tw.Flush()
}
