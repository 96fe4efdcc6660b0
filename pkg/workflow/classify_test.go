package workflow

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

func TestClassifyPolarity(t *testing.T) {
	wf := mustResolve(t, polarityWorkflow)

	got := Classify(wf.Nodes, wf.Links, ClassifyOptions{})

	want := Prompts{Positive: []string{"a cat"}, Negative: []string{"blurry"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
}

// A text node that is the target of a link into an input named "negative"
// is not negative: only links leaving the node count.
func TestClassifyUsesLinkOrigin(t *testing.T) {
	wf := mustResolve(t, `{
		"nodes": [
			{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["upstream"], "inputs": [{"name": "negative"}]},
			{"id": 3, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]}
		],
		"links": [[10, 3, 0, 1, 0, "CONDITIONING"]]
	}`)

	got := Classify(wf.Nodes, wf.Links, ClassifyOptions{})

	want := Prompts{Positive: []string{"upstream"}, Negative: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("link direction is reversed (-want +got):\n%s", diff)
	}
}

func TestClassifyEmptyNodes(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	got := Classify(nil, []any{[]any{1.0, 1.0, 0.0, 2.0, 0.0, "X"}}, ClassifyOptions{Logger: logger})

	want := Prompts{Positive: []string{}, Negative: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "no nodes found in workflow") {
		t.Errorf("expected warning, got log %q", buf.String())
	}
}

func TestClassifyKeepsNodeOrder(t *testing.T) {
	wf := mustResolve(t, `{
		"nodes": [
			{"id": 5, "type": "CLIPTextEncode", "widgets_values": ["p1"]},
			{"id": 6, "type": "CLIPTextEncode", "widgets_values": ["n1"]},
			{"id": 7, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]},
			{"id": 8, "type": "CLIPTextEncode", "widgets_values": ["p2"]},
			{"id": 9, "type": "CLIPTextEncode", "widgets_values": ["n2"]}
		],
		"links": [
			[1, 9, 0, 7, 1, "CONDITIONING"],
			[2, 6, 0, 7, 1, "CONDITIONING"]
		]
	}`)

	first := Classify(wf.Nodes, wf.Links, ClassifyOptions{})
	second := Classify(wf.Nodes, wf.Links, ClassifyOptions{})

	want := Prompts{Positive: []string{"p1", "p2"}, Negative: []string{"n1", "n2"}}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Classify() not repeatable (-first +second):\n%s", diff)
	}
}

func TestClassifyToleratesMalformedLinks(t *testing.T) {
	wf := mustResolve(t, `{
		"nodes": [
			{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["kept"]},
			{"id": 2, "type": "CLIPTextEncode", "widgets_values": ["neg"]},
			{"id": 3, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]}
		],
		"links": [
			null,
			"garbage",
			[1, 1],
			["x", "1", 0, "3", 1, "CONDITIONING"],
			[2, 1, 0, 3, 1.5, "CONDITIONING"],
			[3, 1, 0, 3, -1, "CONDITIONING"],
			[4, 1, 0, 99, 1, "CONDITIONING"],
			[5, 1, 0, 3, 7, "CONDITIONING"],
			{"id": 6, "origin_id": 1, "origin_slot": 0, "target_id": 3, "target_slot": 1, "type": "CONDITIONING"},
			[7, 2, 0, 3, 1, "CONDITIONING"]
		]
	}`)

	got := Classify(wf.Nodes, wf.Links, ClassifyOptions{})

	want := Prompts{Positive: []string{"kept"}, Negative: []string{"neg"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyCases(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts ClassifyOptions
		want Prompts
	}{
		{
			name: "slot name is case-insensitive",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["x"]},
				{"id": 2, "type": "KSampler", "inputs": [{"name": "NeGaTiVe"}]}
			], "links": [[1, 1, 0, 2, 0, "CONDITIONING"]]}`,
			want: Prompts{Positive: []string{}, Negative: []string{"x"}},
		},
		{
			name: "any negative consumer wins",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["shared"]},
				{"id": 2, "type": "KSampler", "inputs": [{"name": "positive"}, {"name": "negative"}]}
			], "links": [[1, 1, 0, 2, 0, "CONDITIONING"], [2, 1, 0, 2, 1, "CONDITIONING"]]}`,
			want: Prompts{Positive: []string{}, Negative: []string{"shared"}},
		},
		{
			name: "unconnected node is positive",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["alone"]}
			]}`,
			want: Prompts{Positive: []string{"alone"}, Negative: []string{}},
		},
		{
			name: "other node types ignored",
			src: `{"nodes": [
				{"id": 1, "type": "CheckpointLoaderSimple", "widgets_values": ["model.safetensors"]},
				{"id": 2, "type": "CLIPTextEncodeSDXL", "widgets_values": ["sdxl"]}
			]}`,
			want: Prompts{Positive: []string{}, Negative: []string{}},
		},
		{
			name: "custom encoder types",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncodeSDXL", "widgets_values": ["sdxl"]},
				{"id": 2, "type": "CLIPTextEncode", "widgets_values": ["plain"]}
			]}`,
			opts: ClassifyOptions{TextEncodeTypes: []string{"CLIPTextEncodeSDXL"}},
			want: Prompts{Positive: []string{"sdxl"}, Negative: []string{}},
		},
		{
			name: "custom negative slot",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["x"]},
				{"id": 2, "type": "Guider", "inputs": [{"name": "uncond"}]}
			], "links": [[1, 1, 0, 2, 0, "CONDITIONING"]]}`,
			opts: ClassifyOptions{NegativeSlot: "uncond"},
			want: Prompts{Positive: []string{}, Negative: []string{"x"}},
		},
		{
			name: "node without widgets skipped",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode"},
				{"id": 2, "type": "CLIPTextEncode", "widgets_values": []}
			]}`,
			want: Prompts{Positive: []string{}, Negative: []string{}},
		},
		{
			name: "non-string widget values",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": [42]},
				{"id": 2, "type": "CLIPTextEncode", "widgets_values": [null]},
				{"id": 3, "type": "CLIPTextEncode", "widgets_values": [true]}
			]}`,
			want: Prompts{Positive: []string{"42", "", "true"}, Negative: []string{}},
		},
		{
			name: "duplicate target id uses first node",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["x"]},
				{"id": 2, "type": "KSampler", "inputs": [{"name": "positive"}]},
				{"id": 2, "type": "KSampler", "inputs": [{"name": "negative"}]}
			], "links": [[1, 1, 0, 2, 0, "CONDITIONING"]]}`,
			want: Prompts{Positive: []string{"x"}, Negative: []string{}},
		},
		{
			name: "unnamed input never matches",
			src: `{"nodes": [
				{"id": 1, "type": "CLIPTextEncode", "widgets_values": ["x"]},
				{"id": 2, "type": "KSampler", "inputs": [{"type": "CONDITIONING"}]}
			], "links": [[1, 1, 0, 2, 0, "CONDITIONING"]]}`,
			want: Prompts{Positive: []string{"x"}, Negative: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := mustResolve(t, tt.src)
			got := Classify(wf.Nodes, wf.Links, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPolarities(t *testing.T) {
	wf := mustResolve(t, polarityWorkflow)

	got := Polarities(wf.Nodes, wf.Links, ClassifyOptions{})

	want := []Polarity{PolarityPositive, PolarityNegative, PolarityNone}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Polarities() mismatch (-want +got):\n%s", diff)
	}
	if got[1].String() != "negative" || got[2].String() != "" {
		t.Errorf("String() = %q, %q", got[1], got[2])
	}
}

func TestIsCandidate(t *testing.T) {
	opts := ClassifyOptions{}
	if !IsCandidate(Node{Type: "CLIPTextEncode", WidgetsValues: []any{"x"}}, opts) {
		t.Error("text encoder with widgets should be a candidate")
	}
	if IsCandidate(Node{Type: "CLIPTextEncode"}, opts) {
		t.Error("text encoder without widgets should not be a candidate")
	}
	if IsCandidate(Node{Type: "KSampler", WidgetsValues: []any{1.0}}, opts) {
		t.Error("sampler should not be a candidate")
	}
}
