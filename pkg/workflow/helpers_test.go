package workflow

import (
	"encoding/json"
	"testing"
)

// mustResolve parses a JSON workflow object and resolves it.
func mustResolve(t *testing.T, src string) *Workflow {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("invalid test workflow: %v", err)
	}
	wf, ok := Resolve(doc)
	if !ok {
		t.Fatalf("test document is not a workflow: %s", src)
	}
	return wf
}

// polarityWorkflow has one positive and one negative text node feeding a sampler.
const polarityWorkflow = `{
	"nodes": [
		{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["a cat"]},
		{"id": 2, "type": "CLIPTextEncode", "widgets_values": ["blurry"]},
		{"id": 3, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]}
	],
	"links": [
		[10, 1, 0, 3, 0, "CONDITIONING"],
		[11, 2, 0, 3, 1, "CONDITIONING"]
	]
}`
