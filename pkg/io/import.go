package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// ErrNoWorkflow is returned when a JSON document holds no workflow.
var ErrNoWorkflow = errors.New("no workflow in document")

// ReadJSON decodes a workflow JSON document from r.
//
// The document may be an exported file, a workflow saved from the editor, or
// an object nesting either under a "workflow" key. It is located with
// [workflow.Resolve]. ReadJSON returns an error if the JSON is malformed or is
// not an object, or if it holds no workflow. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*workflow.Workflow, error) {
	var doc workflow.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	wf, ok := workflow.Resolve(doc)
	if !ok {
		return nil, ErrNoWorkflow
	}
	return wf, nil
}

// ImportJSON reads a JSON file at path and returns the decoded workflow.
func ImportJSON(path string) (*workflow.Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
