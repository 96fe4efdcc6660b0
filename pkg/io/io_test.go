package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

func resolve(t *testing.T, src string) *workflow.Workflow {
	t.Helper()
	wf, err := ReadJSON(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return wf
}

func TestWriteJSON(t *testing.T) {
	wf := resolve(t, `{
		"last_node_id": 3,
		"nodes": [{"id": 1, "type": "CLIPTextEncode", "pos": [10, 20]}],
		"links": [
			{"id": 1, "origin_id": 1, "origin_slot": 0, "target_id": 3, "target_slot": 1, "type": "CONDITIONING"},
			null,
			[2, 1, 0, 3, 0, "CONDITIONING"],
			{"id": 3, "origin_id": "bad"}
		],
		"extra": {"ds": {"scale": 1}}
	}`)

	var buf bytes.Buffer
	if err := WriteJSON(wf, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "\n") {
		t.Errorf("output should be a single line, got %q", out)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := map[string]any{
		"last_node_id": 3.0,
		"nodes": []any{map[string]any{
			"id": 1.0, "type": "CLIPTextEncode", "pos": []any{10.0, 20.0},
		}},
		"links": []any{
			[]any{1.0, 1.0, 0.0, 3.0, 1.0, "CONDITIONING"},
			[]any{2.0, 1.0, 0.0, 3.0, 0.0, "CONDITIONING"},
			[]any{3.0, nil, nil, nil, nil, "undefined"},
		},
		"extra": map[string]any{"ds": map[string]any{"scale": 1.0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSONDoesNotModifyWorkflow(t *testing.T) {
	wf := resolve(t, `{"nodes": [], "links": [{"id": 1}]}`)

	if err := WriteJSON(wf, &bytes.Buffer{}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if _, ok := wf.Root["links"].([]any)[0].(map[string]any); !ok {
		t.Error("WriteJSON replaced links on the source workflow")
	}
}

func TestWriteJSONPassesThroughNonArrayLinks(t *testing.T) {
	wf := resolve(t, `{"nodes": [], "links": "opaque"}`)

	var buf bytes.Buffer
	if err := WriteJSON(wf, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if want := `{"links":"opaque","nodes":[]}`; buf.String() != want {
		t.Errorf("WriteJSON() = %s, want %s", buf.String(), want)
	}
}

func TestWriteJSONNil(t *testing.T) {
	if err := WriteJSON(nil, &bytes.Buffer{}); !errors.Is(err, ErrNoWorkflow) {
		t.Errorf("WriteJSON(nil) error = %v, want ErrNoWorkflow", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src := `{"workflow": {
		"nodes": [
			{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["a cat"]},
			{"id": 2, "type": "CLIPTextEncode", "widgets_values": ["blurry"]},
			{"id": 3, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]}
		],
		"links": [
			{"id": 10, "origin_id": 1, "origin_slot": 0, "target_id": 3, "target_slot": 0, "type": "CONDITIONING"},
			{"id": 11, "origin_id": 2, "origin_slot": 0, "target_id": 3, "target_slot": 1, "type": "CONDITIONING"}
		]
	}}`
	wf := resolve(t, src)

	path := filepath.Join(t.TempDir(), DefaultFilename)
	if err := ExportJSON(wf, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	back, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}

	// Object-form links are not read by the classifier; after export they
	// are array form and polarity becomes visible.
	before := workflow.Classify(wf.Nodes, wf.Links, workflow.ClassifyOptions{})
	after := workflow.Classify(back.Nodes, back.Links, workflow.ClassifyOptions{})
	if diff := cmp.Diff([]string{}, before.Negative); diff != "" {
		t.Errorf("object links should not classify (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"blurry"}, after.Negative); diff != "" {
		t.Errorf("exported links should classify (-want +got):\n%s", diff)
	}

	// A second export is byte-identical to the first.
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var again bytes.Buffer
	if err := WriteJSON(back, &again); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if diff := cmp.Diff(string(first), again.String()); diff != "" {
		t.Errorf("re-export changed output (-first +second):\n%s", diff)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"not json", `{`, nil},
		{"array", `[]`, nil},
		{"no workflow", `{"prompt": {}}`, ErrNoWorkflow},
		{"null", `null`, ErrNoWorkflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.src))
			if err == nil {
				t.Fatal("ReadJSON() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ReadJSON() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ImportJSON() error = %v, want not-exist", err)
	}
}
