package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// DefaultFilename is the file name suggested for exported workflows.
const DefaultFilename = "comfyui_workflow.json"

// MediaType is the content type of exported workflows.
const MediaType = "application/json"

// Canonical returns a shallow copy of wf's root object with "links" replaced
// by [workflow.EncodeLinks] when it is an array. wf.Root is not modified.
func Canonical(wf *workflow.Workflow) (map[string]any, error) {
	if wf == nil || wf.Root == nil {
		return nil, fmt.Errorf("export: %w", ErrNoWorkflow)
	}
	out := make(map[string]any, len(wf.Root))
	for k, v := range wf.Root {
		out[k] = v
	}
	if links, ok := wf.Root["links"].([]any); ok {
		out["links"] = workflow.EncodeLinks(links)
	}
	return out, nil
}

// WriteJSON encodes wf in the canonical format and writes it to w as a
// single line. The output can be re-imported with [ReadJSON].
func WriteJSON(wf *workflow.Workflow, w io.Writer) error {
	out, err := Canonical(wf)
	if err != nil {
		return err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportJSON writes wf to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(wf *workflow.Workflow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(wf, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
