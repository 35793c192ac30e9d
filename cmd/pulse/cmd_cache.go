package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/pulse/internal/cache"
	"github.com/spf13/cobra"
)

func newCacheCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the completion cache",
		Long: `Manage the completion cache.

With caching enabled (cache.enabled in pulse.yaml, or run --cache), a
successful completion is stored under a key derived from the system prompt,
the assembled prompt and the model parameters. An identical run reuses it
instead of calling the model.`,
	}

	cmd.AddCommand(newCacheClearCommand(configPath))

	return cmd
}

func newCacheClearCommand(configPath *string) *cobra.Command {
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the completion cache",
		Long: `Remove every cached completion. The next run calls the model again.

The directory defaults to cache.dir from pulse.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cacheClearE(cmd, *configPath, cacheDir)
		},
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (overrides cache.dir)")

	return cmd
}

func cacheClearE(cmd *cobra.Command, configPath, cacheDir string) error {
	dir := cacheDir
	if dir == "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		dir = cfg.Resolve(cfg.Cache.Dir)
	}

	// Resolve to absolute path
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
