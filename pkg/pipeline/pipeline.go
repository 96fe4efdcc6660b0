// Package pipeline provides the extract and render pipeline for comfyscope.
//
// This package implements the complete decode → extract → render pipeline
// used by the CLI and the HTTP server. By centralizing this logic, both entry
// points share caching and produce identical artifacts.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Extract: decode the PNG, recover the embedded workflow and classify prompts
//  2. Render: produce artifacts in the requested formats (json, dot, svg)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Image:   data,
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Extraction.Negative)
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/comfyscope/pkg/cache"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ContentTypes maps each format to its media type.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Image is the raw PNG file content.
	Image []byte `json:"-"`

	// Source names the image in logs. Optional.
	Source string `json:"source,omitempty"`

	// Classification options
	TextEncodeTypes []string `json:"text_encode_types,omitempty"`
	NegativeSlot    string   `json:"negative_slot,omitempty"`

	// Render options. No formats means extract only.
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Polarity bool     `json:"polarity,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Extraction is the recovered workflow and its prompts.
	Extraction *workflow.Result

	// ImageHash is the SHA-256 of the input image.
	ImageHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	LinkCount   int
	ExtractTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ExtractHit bool // Whether the extraction came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Image) == 0 {
		return fmt.Errorf("image is required")
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.SetExtractDefaults()
	o.validated = true
	return nil
}

// SetExtractDefaults sets default values for extraction.
func (o *Options) SetExtractDefaults() {
	if len(o.TextEncodeTypes) == 0 {
		o.TextEncodeTypes = []string{workflow.DefaultTextEncodeType}
	}
	if o.NegativeSlot == "" {
		o.NegativeSlot = workflow.DefaultNegativeSlot
	}
	if o.Source == "" {
		o.Source = "image"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates the render options.
func (o *Options) ValidateForRender() error {
	o.SetExtractDefaults()
	return ValidateFormats(o.Formats)
}

// ClassifyOptions returns the classifier options.
func (o *Options) ClassifyOptions() workflow.ClassifyOptions {
	return workflow.ClassifyOptions{
		TextEncodeTypes: o.TextEncodeTypes,
		NegativeSlot:    o.NegativeSlot,
		Logger:          o.Logger,
	}
}

// ExtractKeyOpts returns cache key options for extraction.
func (o *Options) ExtractKeyOpts() cache.ExtractKeyOpts {
	return cache.ExtractKeyOpts{
		TextEncodeTypes: o.TextEncodeTypes,
		NegativeSlot:    o.NegativeSlot,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		Polarity: o.Polarity,
	}
}
