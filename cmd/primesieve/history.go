package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jamesainslie/primesieve/pkg/primesieve/manifest"
	"github.com/jamesainslie/primesieve/pkg/primesieve/output"
	"github.com/jamesainslie/primesieve/pkg/primesieve/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	Long: `View the history of sieve and verify runs.

Every run records its parameters and outcome as a JSON file in the history
directory (typically ~/.local/share/primesieve/history).`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of a specific run",
	Long:  `Display the recorded details of a run by its ID or a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history entries",
	Long:  `Remove history entries older than the retention period, or all of them with --all.`,
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var (
	historyLimit int
	historyAll   bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyCleanCmd.Flags().BoolVar(&historyAll, "all", false, "remove every entry")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getManifest returns a manifest for the configured history directory.
func getManifest() (*manifest.Manifest, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, err := manifest.New(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	return m, nil
}

// runHistory lists recent runs, newest first.
func runHistory(_ *cobra.Command, _ []string) error {
	m, err := getManifest()
	if err != nil {
		return err
	}

	entries, err := m.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tOP\tLIMIT\tW\tCOUNT\tELAPSED\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			shortID(e.ID),
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Operation,
			types.FormatCount(int64(e.Params.Limit)),
			e.Params.Workers,
			types.FormatCount(e.Summary.Count),
			e.Summary.Elapsed,
			entryStatus(&e),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printInfo("Use 'primesieve history show <id>' for details on a specific entry.")
	return nil
}

// runHistoryShow displays one run.
func runHistoryShow(_ *cobra.Command, args []string) error {
	m, err := getManifest()
	if err != nil {
		return err
	}

	entry, err := m.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Println(output.TitleStyle.Render("Run " + entry.ID))
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Timestamp:  %s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Operation:  %s\n", entry.Operation)
	fmt.Printf("Limit:      %s\n", types.FormatCount(int64(entry.Params.Limit)))
	fmt.Printf("Workers:    %d\n", entry.Params.Workers)
	fmt.Printf("Top K:      %d\n", entry.Params.TopK)
	fmt.Printf("Partition:  %s\n", entry.Params.Partition)
	fmt.Printf("Status:     %s\n", entryStatus(entry))

	if entry.Failed() {
		fmt.Printf("Error:      %s\n", output.ErrorStyle.Render(entry.Error))
		return nil
	}

	fmt.Printf("Count:      %s\n", types.FormatCount(entry.Summary.Count))
	fmt.Printf("Sum:        %s\n", types.FormatBigCount(entry.Summary.Sum))
	fmt.Printf("Elapsed:    %s\n", entry.Summary.Elapsed)
	if entry.Summary.Gap != "" {
		fmt.Printf("Gap:        %s\n", output.WarningStyle.Render(entry.Summary.Gap))
	}
	if len(entry.Summary.Largest) > 0 {
		fmt.Printf("Largest:    %s\n", output.FormatPrimes(entry.Summary.Largest))
	}
	return nil
}

// runHistoryClean removes old or all entries.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, err := manifest.New(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	if historyAll {
		n, err := m.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		printInfo("Removed %d history entries.", n)
		return nil
	}

	days := cfg.History.RetentionDays
	if days <= 0 {
		printInfo("Retention is disabled (history.retention_days=%d); use --all to remove everything.", days)
		return nil
	}

	n, err := m.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d history entries older than %d days.", n, days)
	return nil
}

// shortID returns the first block of a UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// entryStatus labels an entry for listings.
func entryStatus(e *manifest.Entry) string {
	switch {
	case e.Failed():
		return "failed"
	case e.Summary.Cached:
		return "cached"
	case e.Summary.Gap != "":
		return "gap"
	default:
		return "ok"
	}
}
