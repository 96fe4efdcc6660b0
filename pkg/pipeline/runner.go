package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comfyscope/pkg/cache"
	"github.com/matzehuels/comfyscope/pkg/observability"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ExtractTTL and ArtifactTTL default to the cache package defaults.
	ExtractTTL  time.Duration
	ArtifactTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:       c,
		Keyer:       keyer,
		Logger:      logger,
		ExtractTTL:  cache.DefaultExtractTTL,
		ArtifactTTL: cache.DefaultArtifactTTL,
	}
}

// Execute runs the complete extract → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		ImageHash: cache.Hash(opts.Image),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Extract
	extractStart := time.Now()
	res, extractHit, err := r.ExtractWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Extraction = res
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.NodeCount = len(res.Workflow.Nodes)
	result.Stats.LinkCount = len(res.Workflow.Links)
	result.CacheInfo.ExtractHit = extractHit

	r.Logger.Info("extracted workflow",
		"source", opts.Source,
		"nodes", result.Stats.NodeCount,
		"positive", len(res.Positive),
		"negative", len(res.Negative),
		"duration", result.Stats.ExtractTime)

	if len(opts.Formats) == 0 {
		return result, nil
	}

	// Stage 2: Render
	renderStart := time.Now()
	extractKey := r.Keyer.ExtractKey(result.ImageHash, opts.ExtractKeyOpts())
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res.Workflow, extractKey, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ExtractWithCacheInfo extracts the workflow with caching and returns cache hit info.
//
// The repaired source document is cached rather than the result, so prompts
// are always classified with the current options. Extraction failures are
// not cached.
func (r *Runner) ExtractWithCacheInfo(ctx context.Context, opts Options) (*workflow.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	extractor := workflow.NewExtractor(opts.ClassifyOptions(), opts.Logger)
	hooks := observability.Cache()
	cacheKey := r.Keyer.ExtractKey(cache.Hash(opts.Image), opts.ExtractKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var doc workflow.Document
			if err := json.Unmarshal(data, &doc); err == nil {
				if res, ok := extractor.FromDocument(doc); ok {
					hooks.OnCacheHit(ctx, cache.KeyTypeExtract)
					return res, true, nil
				}
			}
		} else if err != nil {
			r.Logger.Warn("cache read failed", "err", err)
		}
		hooks.OnCacheMiss(ctx, cache.KeyTypeExtract)
	}

	res, err := extractor.ExtractImage(ctx, bytes.NewReader(opts.Image))
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(res.Source); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ExtractTTL); err != nil {
			r.Logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cache.KeyTypeExtract, len(data))
		}
	}

	return res, false, nil
}

// Extract is a convenience wrapper that calls ExtractWithCacheInfo and discards the cache hit info.
func (r *Runner) Extract(ctx context.Context, opts Options) (*workflow.Result, error) {
	res, _, err := r.ExtractWithCacheInfo(ctx, opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// extractKey identifies the extraction the workflow came from.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, wf *workflow.Workflow, extractKey string, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Cache()
	renderHooks := observability.Render()

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(extractKey, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				hooks.OnCacheMiss(ctx, cache.KeyTypeArtifact)
				break
			}
			hooks.OnCacheHit(ctx, cache.KeyTypeArtifact)
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	start := time.Now()
	renderHooks.OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(ctx, wf, opts)
	renderHooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(extractKey, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, r.ArtifactTTL); err == nil {
			hooks.OnCacheSet(ctx, cache.KeyTypeArtifact, len(data))
		}
	}

	return rendered, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
