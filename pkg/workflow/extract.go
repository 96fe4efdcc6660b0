package workflow

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
	"github.com/matzehuels/comfyscope/pkg/observability"
	"github.com/matzehuels/comfyscope/pkg/png"
)

// Result is the outcome of one extraction. It is built from scratch on every
// call and never mutated afterwards.
type Result struct {
	// Workflow is the workflow recovered from the last usable chunk.
	Workflow *Workflow `json:"workflow"`

	// Prompts are classified from that same chunk.
	Prompts

	// Chunk is the position of the usable chunk among the scanned candidates.
	Chunk int `json:"-"`

	// Source is the repaired document the workflow was resolved from.
	Source Document `json:"-"`
}

// Extractor runs scan, repair, resolve and classify over an image's chunks.
type Extractor struct {
	Repairer Repairer
	Options  ClassifyOptions
	Logger   *log.Logger
}

// NewExtractor returns an Extractor using [MarkerRepairer] and opts.
// A nil logger discards output.
func NewExtractor(opts ClassifyOptions, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logger
	}
	opts.SetDefaults()
	return &Extractor{
		Repairer: MarkerRepairer{},
		Options:  opts,
		Logger:   logger,
	}
}

// ExtractImage decodes the PNG in r and extracts its workflow.
//
// A decoding failure is returned as an [cerrors.ErrCodeImageProcessing] error.
// See [Extractor.Extract] for the remaining behavior.
func (e *Extractor) ExtractImage(ctx context.Context, r io.Reader) (*Result, error) {
	chunks, err := png.Decode(r)
	if err != nil {
		e.Logger.Error("error processing image file", "err", err)
		return nil, cerrors.ImageProcessing(err)
	}
	return e.Extract(ctx, chunks)
}

// Extract scans chunks for an embedded workflow.
//
// Every candidate text chunk is tried in order. Chunks without the marker,
// with malformed JSON, or without a workflow are skipped. When several chunks
// succeed, the last one wins. If none succeeds the error has code
// [cerrors.ErrCodeNoWorkflow].
func (e *Extractor) Extract(ctx context.Context, chunks []png.Chunk) (*Result, error) {
	start := time.Now()
	hooks := observability.Extract()

	texts := Scan(chunks)
	hooks.OnExtractStart(ctx, len(texts))
	e.Logger.Debug("scanned chunks", "chunks", len(chunks), "candidates", len(texts))

	var result *Result
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			hooks.OnExtractComplete(ctx, 0, 0, time.Since(start), err)
			return nil, err
		}

		doc, err := e.Repairer.Repair(text)
		switch {
		case errors.Is(err, ErrNoMarker):
			hooks.OnChunkSkipped(ctx, i, "no marker")
			continue
		case err != nil:
			e.Logger.Warn("invalid JSON format in extracted workflow data", "chunk", i, "err", err)
			hooks.OnChunkSkipped(ctx, i, "malformed json")
			continue
		}

		res, ok := e.FromDocument(doc)
		if !ok {
			hooks.OnChunkSkipped(ctx, i, "not a workflow")
			continue
		}
		res.Chunk = i
		result = res
		e.Logger.Debug("found workflow", "chunk", i, "nodes", len(res.Workflow.Nodes), "links", len(res.Workflow.Links))
	}

	if result == nil {
		err := cerrors.NoWorkflow()
		hooks.OnExtractComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}

	hooks.OnExtractComplete(ctx, len(result.Positive), len(result.Negative), time.Since(start), nil)
	return result, nil
}

// FromDocument resolves and classifies an already repaired document. ok is
// false when doc holds no workflow.
func (e *Extractor) FromDocument(doc Document) (res *Result, ok bool) {
	wf, ok := Resolve(doc)
	if !ok {
		return nil, false
	}
	return &Result{
		Workflow: wf,
		Prompts:  Classify(wf.Nodes, wf.Links, e.Options),
		Source:   doc,
	}, true
}
