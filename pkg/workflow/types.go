package workflow

import (
	"encoding/json"
	"math"
)

// DefaultTextEncodeType is the node type whose first widget value holds prompt text.
const DefaultTextEncodeType = "CLIPTextEncode"

// DefaultNegativeSlot is the consuming input name that marks a prompt negative.
// It is compared case-insensitively.
const DefaultNegativeSlot = "negative"

// Document is a parsed JSON object recovered from a metadata chunk.
type Document map[string]any

// Input is a named input slot on a node.
type Input struct {
	Name string
	Type string

	// named is false when the source "name" field was absent or not a string.
	named bool
}

// Named reports whether the input carried a string name.
func (in Input) Named() bool { return in.named }

// Node is a typed unit in the workflow graph. Unrecognized types are kept
// as-is; no registry of known types exists.
type Node struct {
	ID            int64
	Type          string
	WidgetsValues []any
	Inputs        []Input

	// hasID is false when the source id was absent or not an integer.
	hasID bool
}

// HasID reports whether the node carried an integer id.
func (n Node) HasID() bool { return n.hasID }

// Widget returns widget value i as text. Missing and null values are empty;
// other values are stringified the way the editor displays them.
func (n Node) Widget(i int) string {
	if i < 0 || i >= len(n.WidgetsValues) || n.WidgetsValues[i] == nil {
		return ""
	}
	return toString(n.WidgetsValues[i], true)
}

// Workflow is a resolved workflow: the root object plus typed views of its
// nodes and the raw link entries used for classification.
type Workflow struct {
	// Root is the workflow object as parsed. Export passes its fields through.
	Root Document

	// Nodes are parsed from the "nodes" array in source order.
	Nodes []Node

	// Links are the raw entries of the "links" array. They are kept untyped
	// because producers mix array and object shapes and may include holes.
	Links []any
}

// MarshalJSON encodes the workflow as its root object.
func (w *Workflow) MarshalJSON() ([]byte, error) {
	if w == nil || w.Root == nil {
		return []byte("null"), nil
	}
	return json.Marshal(w.Root)
}

// Prompts holds prompt texts split by polarity, in node order.
type Prompts struct {
	Positive []string `json:"positive" yaml:"positive"`
	Negative []string `json:"negative" yaml:"negative"`
}

func emptyPrompts() Prompts {
	return Prompts{Positive: []string{}, Negative: []string{}}
}

func parseNodes(v any) []Node {
	raw, ok := v.([]any)
	if !ok {
		return []Node{}
	}
	nodes := make([]Node, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		nodes = append(nodes, parseNode(obj))
	}
	return nodes
}

func parseNode(obj map[string]any) Node {
	n := Node{}
	if id, ok := integer(obj["id"]); ok {
		n.ID = id
		n.hasID = true
	}
	n.Type, _ = obj["type"].(string)
	if wv, ok := obj["widgets_values"].([]any); ok {
		n.WidgetsValues = wv
	}
	if inputs, ok := obj["inputs"].([]any); ok {
		n.Inputs = make([]Input, len(inputs))
		for i, in := range inputs {
			m, ok := in.(map[string]any)
			if !ok {
				continue
			}
			name, named := m["name"].(string)
			typ, _ := m["type"].(string)
			n.Inputs[i] = Input{Name: name, Type: typ, named: named}
		}
	}
	return n
}

// integer reports v as an int64 when it is a JSON number with no fractional part.
func integer(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
