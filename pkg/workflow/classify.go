package workflow

import (
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// ClassifyOptions configures [Classify].
type ClassifyOptions struct {
	// TextEncodeTypes lists node types whose first widget value is prompt text.
	// Defaults to [DefaultTextEncodeType].
	TextEncodeTypes []string `json:"text_encode_types,omitempty" toml:"text_encode_types"`

	// NegativeSlot is the input name, compared case-insensitively, that marks
	// a prompt negative. Defaults to [DefaultNegativeSlot].
	NegativeSlot string `json:"negative_slot,omitempty" toml:"negative_slot"`

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *log.Logger `json:"-" toml:"-"`
}

// SetDefaults fills unset fields.
func (o *ClassifyOptions) SetDefaults() {
	if len(o.TextEncodeTypes) == 0 {
		o.TextEncodeTypes = []string{DefaultTextEncodeType}
	}
	if o.NegativeSlot == "" {
		o.NegativeSlot = DefaultNegativeSlot
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// linkRef is the part of an array-form link the classifier reads.
type linkRef struct {
	target int64
	slot   int
}

// Polarity is the classification of a single node.
type Polarity int

const (
	// PolarityNone marks nodes that are not prompt candidates.
	PolarityNone Polarity = iota
	PolarityPositive
	PolarityNegative
)

// String returns "positive", "negative" or "".
func (p Polarity) String() string {
	switch p {
	case PolarityPositive:
		return "positive"
	case PolarityNegative:
		return "negative"
	default:
		return ""
	}
}

// Classify splits the prompt texts of text-encoding nodes into positive and
// negative sets.
//
// A candidate node is negative when some array-form link has the candidate as
// its origin (index 1) and feeds a target node (index 3) whose input at the
// slot in index 4 is named like opts.NegativeSlot. Every other candidate is
// positive. Each node contributes one prompt, its first widget value, and
// results keep node order.
//
// Malformed links are skipped individually. Classify never fails; with no
// nodes it logs a warning and returns empty sets.
func Classify(nodes []Node, links []any, opts ClassifyOptions) Prompts {
	opts.SetDefaults()
	result := emptyPrompts()

	if len(nodes) == 0 {
		opts.Logger.Warn("no nodes found in workflow")
		return result
	}

	for i, p := range Polarities(nodes, links, opts) {
		switch p {
		case PolarityNegative:
			result.Negative = append(result.Negative, nodes[i].Widget(0))
		case PolarityPositive:
			result.Positive = append(result.Positive, nodes[i].Widget(0))
		}
	}

	opts.Logger.Debug("classified prompts",
		"positive", len(result.Positive),
		"negative", len(result.Negative))
	return result
}

// Polarities returns one [Polarity] per node, in node order. Nodes that are
// not prompt candidates get [PolarityNone].
func Polarities(nodes []Node, links []any, opts ClassifyOptions) []Polarity {
	opts.SetDefaults()
	out := make([]Polarity, len(nodes))

	index := indexNodes(nodes)
	byOrigin := make(map[int64][]linkRef)
	skipped := 0
	for _, l := range links {
		origin, ref, ok := parseLinkRef(l)
		if !ok {
			skipped++
			continue
		}
		byOrigin[origin] = append(byOrigin[origin], ref)
	}
	if skipped > 0 {
		opts.Logger.Debug("skipped malformed links", "count", skipped)
	}

	for i, n := range nodes {
		if !slices.Contains(opts.TextEncodeTypes, n.Type) || len(n.WidgetsValues) == 0 {
			continue
		}
		out[i] = PolarityPositive
		if !n.hasID {
			continue
		}
		for _, ref := range byOrigin[n.ID] {
			if feedsSlot(nodes, index, ref, opts.NegativeSlot) {
				out[i] = PolarityNegative
				break
			}
		}
	}
	return out
}

// IsCandidate reports whether n is a text-encoding node carrying prompt text.
func IsCandidate(n Node, opts ClassifyOptions) bool {
	opts.SetDefaults()
	return slices.Contains(opts.TextEncodeTypes, n.Type) && len(n.WidgetsValues) > 0
}

// parseLinkRef reads origin, target and target slot from an array-form link.
func parseLinkRef(v any) (origin int64, ref linkRef, ok bool) {
	arr, isArr := v.([]any)
	if !isArr || len(arr) < 5 {
		return 0, linkRef{}, false
	}
	origin, ok = integer(arr[1])
	if !ok {
		return 0, linkRef{}, false
	}
	target, ok := integer(arr[3])
	if !ok {
		return 0, linkRef{}, false
	}
	slot, ok := integer(arr[4])
	if !ok || slot < 0 {
		return 0, linkRef{}, false
	}
	return origin, linkRef{target: target, slot: int(slot)}, true
}

// feedsSlot reports whether ref's target input is named slotName.
func feedsSlot(nodes []Node, index map[int64]int, ref linkRef, slotName string) bool {
	i, ok := index[ref.target]
	if !ok {
		return false
	}
	target := nodes[i]
	if ref.slot >= len(target.Inputs) {
		return false
	}
	in := target.Inputs[ref.slot]
	return in.named && strings.ToLower(in.Name) == strings.ToLower(slotName)
}
