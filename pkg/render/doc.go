// Package render turns workflows into visual outputs.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage renders a workflow as a directed graph diagram
// using Graphviz. Nodes appear as boxes labelled with their type, and links
// appear as arrows labelled with the data type they carry.
//
//	dot := nodelink.ToDOT(wf, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/comfyscope/pkg/render/nodelink
package render
