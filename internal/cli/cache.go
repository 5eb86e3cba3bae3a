package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/emergence/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the rendered artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openStore opens the artifact store at the CLI cache directory.
func openStore() (*cache.FileCache, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	return cache.NewFileCache(dir)
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			removed, err := store.Clear()
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if removed.Entries == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %s cached renders (%s)", humanize.Comma(int64(removed.Entries)), humanize.Bytes(uint64(removed.Bytes)))
			printDetail("Directory: %s", store.Dir())
			return nil
		},
	}
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how much the cache holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			usage, err := store.Usage()
			if err != nil {
				return err
			}
			printKeyValue("directory", store.Dir())
			var total cache.Usage
			for _, kind := range slices.Sorted(maps.Keys(usage)) {
				u := usage[kind]
				printKeyValue(kind, fmt.Sprintf("%s entries, %s", humanize.Comma(int64(u.Entries)), humanize.Bytes(uint64(u.Bytes))))
				total.Entries += u.Entries
				total.Bytes += u.Bytes
			}
			printKeyValue("entries", humanize.Comma(int64(total.Entries)))
			printKeyValue("size", humanize.Bytes(uint64(total.Bytes)))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
