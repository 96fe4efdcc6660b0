package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/comfyscope/pkg/cache"
	"github.com/matzehuels/comfyscope/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached extractions and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			return c.clearCache(cmd.Context(), cfg.Cache)
		},
	}
}

func (c *CLI) clearCache(ctx context.Context, cfg config.CacheConfig) error {
	switch cfg.Backend {
	case config.BackendNone:
		printInfo("Caching is disabled")
		return nil

	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer rc.Close()
		count, err := rc.Clear(ctx, cfg.Prefix)
		if err != nil {
			return err
		}
		printSuccess("Cleared %d cached entries", count)
		printDetail("Redis: %s (prefix %q)", cfg.RedisAddr, cfg.Prefix)
		return nil

	default:
		dir, err := cacheDir(cfg)
		if err != nil {
			return fmt.Errorf("get cache dir: %w", err)
		}
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			printInfo("Cache is empty")
			return nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return err
		}
		count, err := fc.Clear()
		if err != nil {
			return err
		}
		printSuccess("Cleared %d cached entries", count)
		printDetail("Directory: %s", fc.Dir())
		return nil
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Cache.Backend == config.BackendRedis {
				fmt.Printf("redis://%s/%d\n", cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
				return nil
			}
			dir, err := cacheDir(cfg.Cache)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
