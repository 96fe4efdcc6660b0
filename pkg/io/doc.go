// Package io reads and writes workflows in the canonical on-disk format.
//
// # Overview
//
// The canonical format is the workflow object recovered from an image with
// its "links" array normalized to array-form entries:
//
//	{
//	  "last_node_id": 9,
//	  "nodes": [...],
//	  "links": [
//	    [10, 1, 0, 3, 0, "CONDITIONING"],
//	    [11, 2, 0, 3, 1, "CONDITIONING"]
//	  ],
//	  "extra": {...},
//	  "version": 0.4
//	}
//
// Every field other than "links" passes through unchanged, so node
// positions, groups and editor state survive the export. Link entries that
// are null or otherwise empty are dropped. Numeric link fields that cannot be
// read as numbers are written as null.
//
// # Export
//
// Use [ExportJSON] to write a workflow to a file, or [WriteJSON] to write to
// any io.Writer. Output is a single line of JSON with no indentation, which is
// what ComfyUI's loader accepts directly:
//
//	err := io.ExportJSON(res.Workflow, io.DefaultFilename)
//
// # Import
//
// Use [ImportJSON] or [ReadJSON] to load an exported file, or any plain
// workflow JSON saved from the editor, back into a [workflow.Workflow]. No
// marker repair is needed because these files are already valid JSON.
//
// [workflow.Workflow]: github.com/matzehuels/comfyscope/pkg/workflow.Workflow
package io
