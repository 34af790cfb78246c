package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the hash cache",
	Long: `Commands for managing the file digest cache.

The cache remembers the content hash of every backed-up file by path, size
and modification time, so unchanged files are not re-read on the next
backup. It lives under hash_cache.path (typically ~/.cache/gamechanger/hashes).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached digests",
	Long:  `Removes all cached digests. The next backup hashes every file again.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(cfg.HashCache.Path); os.IsNotExist(err) {
			printInfo(cmd, "Cache is already empty.")
			return nil
		}
		hc, err := cache.Open(cfg.HashCache.Path)
		if err != nil {
			return err
		}
		defer hc.Close()

		n, err := hc.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		printInfo(cmd, "Cache cleared (%d entries).", n)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := os.Stat(cfg.HashCache.Path)
		if os.IsNotExist(err) {
			printInfo(cmd, "Cache: empty (no cache directory)")
			printInfo(cmd, "Cache location: %s", cfg.HashCache.Path)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		hc, err := cache.Open(cfg.HashCache.Path)
		if err != nil {
			return err
		}
		defer hc.Close()
		n, err := hc.Len()
		if err != nil {
			return err
		}

		printInfo(cmd, "Cache location: %s", cfg.HashCache.Path)
		printInfo(cmd, "Cached digests: %s", humanize.Comma(int64(n)))
		printInfo(cmd, "Last modified: %s (%s)", info.ModTime().Format("2006-01-02 15:04:05"), humanize.Time(info.ModTime()))
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cfg.HashCache.Path)
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
