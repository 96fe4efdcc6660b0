package workflow

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveNested(t *testing.T) {
	doc := Document{"workflow": map[string]any{
		"nodes": []any{map[string]any{"id": 1.0, "type": "KSampler"}},
		"links": []any{[]any{1.0, 1.0, 0.0, 2.0, 0.0, "LATENT"}},
		"extra": "kept",
	}}

	wf, ok := Resolve(doc)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if wf.Root["extra"] != "kept" {
		t.Errorf("Root = %v, want the nested workflow object", wf.Root)
	}
	if len(wf.Nodes) != 1 || wf.Nodes[0].ID != 1 || wf.Nodes[0].Type != "KSampler" {
		t.Errorf("Nodes = %+v", wf.Nodes)
	}
	if len(wf.Links) != 1 {
		t.Errorf("Links = %v, want 1 entry", wf.Links)
	}
}

func TestResolveTopLevel(t *testing.T) {
	doc := Document{
		"nodes": []any{map[string]any{"id": 4.0, "type": "SaveImage"}},
		"links": []any{},
	}

	wf, ok := Resolve(doc)
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if diff := cmp.Diff(map[string]any(doc), map[string]any(wf.Root)); diff != "" {
		t.Errorf("Root should be the document itself (-want +got):\n%s", diff)
	}
	if len(wf.Nodes) != 1 {
		t.Errorf("Nodes = %+v", wf.Nodes)
	}
}

func TestResolveNotWorkflow(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"empty", Document{}},
		{"workflow not object", Document{"workflow": "text"}},
		{"workflow array", Document{"workflow": []any{}}},
		{"unrelated", Document{"prompt": map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if wf, ok := Resolve(tt.doc); ok || wf != nil {
				t.Errorf("Resolve() = (%v, %v), want (nil, false)", wf, ok)
			}
		})
	}
}

func TestResolveLinkFallbacks(t *testing.T) {
	outer := []any{[]any{1.0, 1.0, 0.0, 2.0, 0.0, "OUTER"}}
	inner := []any{[]any{2.0, 1.0, 0.0, 2.0, 0.0, "INNER"}}

	tests := []struct {
		name string
		doc  Document
		want []any
	}{
		{
			name: "links beside workflow",
			doc:  Document{"workflow": map[string]any{"nodes": []any{}}, "links": outer},
			want: outer,
		},
		{
			name: "links inside workflow",
			doc:  Document{"workflow": map[string]any{"nodes": []any{}, "links": inner}},
			want: inner,
		},
		{
			name: "document level wins",
			doc:  Document{"workflow": map[string]any{"nodes": []any{}, "links": inner}, "links": outer},
			want: outer,
		},
		{
			name: "absent",
			doc:  Document{"workflow": map[string]any{}},
			want: []any{},
		},
		{
			name: "not an array",
			doc:  Document{"workflow": map[string]any{"links": "nope"}},
			want: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, ok := Resolve(tt.doc)
			if !ok {
				t.Fatal("Resolve() ok = false")
			}
			if diff := cmp.Diff(tt.want, wf.Links); diff != "" {
				t.Errorf("Links mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveNodesDefaultEmpty(t *testing.T) {
	wf, ok := Resolve(Document{"workflow": map[string]any{}})
	if !ok {
		t.Fatal("Resolve() ok = false")
	}
	if wf.Nodes == nil || len(wf.Nodes) != 0 {
		t.Errorf("Nodes = %#v, want empty non-nil slice", wf.Nodes)
	}
}

func TestResolveSkipsNonObjectNodes(t *testing.T) {
	doc := Document{"nodes": []any{
		nil,
		"text",
		map[string]any{"id": 2.5, "type": "Odd"},
		map[string]any{"id": 3.0, "type": "Note", "inputs": []any{map[string]any{"name": 7.0}, "bad"}},
	}}

	wf, _ := Resolve(doc)
	if len(wf.Nodes) != 2 {
		t.Fatalf("Nodes = %+v, want 2", wf.Nodes)
	}
	if wf.Nodes[0].HasID() {
		t.Error("fractional id should not count as an id")
	}
	note := wf.Nodes[1]
	if !note.HasID() || note.ID != 3 {
		t.Errorf("node = %+v", note)
	}
	if len(note.Inputs) != 2 || note.Inputs[0].Named() || note.Inputs[1].Named() {
		t.Errorf("inputs = %+v, want two unnamed inputs", note.Inputs)
	}
}
