// Package pkg provides the core libraries for Comfyscope workflow recovery.
//
// # Overview
//
// ComfyUI stores the node graph that produced an image inside the PNG's text
// chunks. Comfyscope finds that graph again, even when the producer wrapped it
// in a non-JSON prefix, and answers three questions about it: which prompts
// were positive, which were negative, and what the graph looked like.
//
// # Architecture
//
// The typical data flow:
//
//	PNG bytes
//	    ↓
//	[png] (split into chunks)
//	    ↓
//	[workflow] (scan, repair, resolve, classify)
//	    ↓
//	[io] / [render/nodelink] (canonical JSON, DOT, SVG)
//
// [pipeline] ties these stages together behind a [cache] and is shared by the
// CLI and the HTTP server.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/comfyscope/pkg/workflow"
//	)
//
//	f, _ := os.Open("image.png")
//	defer f.Close()
//
//	ex := workflow.NewExtractor(workflow.ClassifyOptions{}, nil)
//	res, err := ex.ExtractImage(context.Background(), f)
//	if err != nil {
//	    // errors.GetCode(err) is NO_WORKFLOW or IMAGE_PROCESSING
//	}
//	fmt.Println(res.Positive, res.Negative)
//
// # Main Packages
//
//   - [png]: chunk-level PNG reader
//   - [workflow]: workflow recovery and prompt classification
//   - [io]: canonical JSON import and export
//   - [render/nodelink]: Graphviz diagrams
//   - [pipeline]: cached extract and render orchestration
//   - [cache]: file, Redis, and null cache backends
//   - [config]: TOML and environment configuration
//   - [errors]: coded errors for user-facing boundaries
//   - [observability]: hooks for metrics and tracing
//
// [png]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/png
// [workflow]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/workflow
// [io]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/render/nodelink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/comfyscope/pkg/observability
package pkg
