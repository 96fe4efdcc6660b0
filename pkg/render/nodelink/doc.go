// Package nodelink renders workflows as node-link diagrams.
//
// # Usage
//
// Convert a workflow to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(wf, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: node labels include the node id and widget values
//   - Polarity: text-encoding nodes are filled by prompt polarity
//
// # DOT Format
//
// The generated DOT uses left-to-right layout (rankdir=LR), matching the
// flow direction of the node editor. Node types are opaque labels; a type
// never seen before renders like any other.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package nodelink
