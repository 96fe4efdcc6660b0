package nodelink

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

func mustWorkflow(t *testing.T, src string) *workflow.Workflow {
	t.Helper()
	var doc workflow.Document
	if err := json.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatal(err)
	}
	wf, ok := workflow.Resolve(doc)
	if !ok {
		t.Fatal("not a workflow")
	}
	return wf
}

const sample = `{
	"nodes": [
		{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["a cat"]},
		{"id": 2, "type": "CLIPTextEncode", "widgets_values": ["blurry"]},
		{"id": 3, "type": "KSampler", "widgets_values": [42, "fixed"], "inputs": [{"name": "positive"}, {"name": "negative"}]}
	],
	"links": [
		[10, 1, 0, 3, 0, "CONDITIONING"],
		[11, 2, 0, 3, 1, "CONDITIONING"]
	]
}`

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(mustWorkflow(t, sample), Options{})

	if !strings.Contains(dot, "digraph G") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, `"n1" [label="CLIPTextEncode"]`) {
		t.Errorf("ToDOT() output missing node 1:\n%s", dot)
	}
	if !strings.Contains(dot, `"n3" [label="KSampler"]`) {
		t.Errorf("ToDOT() output missing node 3:\n%s", dot)
	}
	if !strings.Contains(dot, `"n2" -> "n3" [label="CONDITIONING"]`) {
		t.Errorf("ToDOT() output missing edge:\n%s", dot)
	}
	if strings.Contains(dot, "fillcolor=\"#") {
		t.Error("ToDOT() should not color nodes without Polarity")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(mustWorkflow(t, sample), Options{Detailed: true})

	if !strings.Contains(dot, `KSampler\nid: 3\n42\nfixed`) {
		t.Errorf("ToDOT() detailed output missing widgets:\n%s", dot)
	}
}

func TestToDOT_Polarity(t *testing.T) {
	dot := ToDOT(mustWorkflow(t, sample), Options{Polarity: true})

	if !strings.Contains(dot, `"n1" [label="CLIPTextEncode", fillcolor="`+positiveFill+`"]`) {
		t.Errorf("ToDOT() positive node not filled:\n%s", dot)
	}
	if !strings.Contains(dot, `"n2" [label="CLIPTextEncode", fillcolor="`+negativeFill+`"]`) {
		t.Errorf("ToDOT() negative node not filled:\n%s", dot)
	}
	if !strings.Contains(dot, `"n3" [label="KSampler"];`) {
		t.Errorf("ToDOT() sampler should not be filled:\n%s", dot)
	}
}

func TestToDOT_UnknownAndBrokenEntries(t *testing.T) {
	wf := mustWorkflow(t, `{
		"nodes": [
			{"id": 1, "type": "SomeCustomNode"},
			{"id": 1, "type": "Duplicate"},
			{"type": "Note"},
			{"id": 2}
		],
		"links": [
			null,
			[5, 1, 0, 99, 0, "MISSING_TARGET"],
			[6, "x", 0, 2, 0, "BAD_ORIGIN"],
			{"id": 7, "origin_id": 1, "origin_slot": 0, "target_id": 2, "target_slot": 0, "type": "IMAGE"}
		]
	}`)

	dot := ToDOT(wf, Options{})

	for _, want := range []string{`label="SomeCustomNode"`, `"anon2" [label="Note"]`, `label="(untyped)"`, `"n1" -> "n2" [label="IMAGE"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %s:\n%s", want, dot)
		}
	}
	for _, unwanted := range []string{"Duplicate", "MISSING_TARGET", "BAD_ORIGIN"} {
		if strings.Contains(dot, unwanted) {
			t.Errorf("ToDOT() should omit %s:\n%s", unwanted, dot)
		}
	}
}

func TestToDOT_Nil(t *testing.T) {
	dot := ToDOT(nil, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT(nil) = %q", dot)
	}
}

func TestFmtLabel_Simple(t *testing.T) {
	n := workflow.Node{Type: "VAEDecode"}
	if got := fmtLabel(n, false); got != "VAEDecode" {
		t.Errorf("fmtLabel() simple mode = %q, want %q", got, "VAEDecode")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"line\nbreak", 20, "line break"},
		{"abcdefghij", 5, "abcd…"},
		{"ééééé", 3, "éé…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))

	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("normalizeViewBox() should leave SVGs without a viewBox alone")
	}
}
