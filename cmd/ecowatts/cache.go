package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the normalized table cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached tables",
	RunE:  runCacheList,
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove all cached tables",
	RunE:  runCachePurge,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, args []string) error {
	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tables, err := db.ListTables()
	if err != nil {
		return fmt.Errorf("listing cached tables: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(tables) == 0 {
		fmt.Fprintln(out, "No cached tables")
		return nil
	}

	fmt.Fprintln(out, rule+rule)
	fmt.Fprintf(out, "%-12s  %-30s  %10s  %8s  %s\n", "Fingerprint", "Source", "Rows", "Dropped", "Cached")
	fmt.Fprintln(out, rule+rule)
	for _, t := range tables {
		fmt.Fprintf(out, "%-12s  %-30s  %10s  %8s  %s\n",
			t.Fingerprint[:12], t.Source, humanize.Comma(int64(t.Rows)), humanize.Comma(int64(t.Dropped)), humanize.Time(t.CreatedAt))
	}
	fmt.Fprintln(out, rule+rule)
	fmt.Fprintf(out, "Total: %d cached tables\n", len(tables))
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	n, err := db.Purge()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d cached tables\n", n)
	return nil
}
