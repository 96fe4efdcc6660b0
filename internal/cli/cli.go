// Package cli implements the comfyscope command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/comfyscope/pkg/buildinfo"
	"github.com/matzehuels/comfyscope/pkg/cache"
	"github.com/matzehuels/comfyscope/pkg/config"
	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
	"github.com/matzehuels/comfyscope/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "comfyscope"

	// defaultJobs bounds concurrent extractions.
	defaultJobs = 4
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by --config. Empty means config.DefaultPath.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Comfyscope recovers ComfyUI workflows from PNG images",
		Long:         `Comfyscope reads the workflow graph that ComfyUI embeds in generated PNG images, lists its positive and negative prompts, exports the workflow as JSON, and draws it as a node-link diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/comfyscope/config.toml)")

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	store, keyer, err := c.newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	if ttl := cfg.Cache.TTLDuration(); ttl > 0 {
		r.ExtractTTL = ttl
		r.ArtifactTTL = ttl
	}
	return r, nil
}

// newCache opens the configured backend. An unusable file cache directory
// disables caching instead of failing the command.
func (c *CLI) newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, cache.Keyer, error) {
	backend := cfg.Backend
	if noCache {
		backend = config.BackendNone
	}

	switch backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil, nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rc, cache.NewScopedKeyer(nil, cfg.Prefix), nil
	default:
		dir, err := cacheDir(cfg)
		if err != nil {
			c.Logger.Warn("cache disabled", "err", err)
			return cache.NewNullCache(), nil, nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), nil, nil
		}
		return fc, nil, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured directory, or the XDG standard
// (~/.cache/comfyscope/).
func cacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Input
// =============================================================================

// readImage reads an image file, mapping a missing file to a coded error.
func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, cerrors.Wrap(cerrors.ErrCodeFileNotFound, err, "file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// pipelineOptions builds run options from config for one image.
func pipelineOptions(cfg *config.Config, path string, image []byte) pipeline.Options {
	return pipeline.Options{
		Image:           image,
		Source:          path,
		TextEncodeTypes: cfg.Classify.TextEncodeTypes,
		NegativeSlot:    cfg.Classify.NegativeSlot,
	}
}
