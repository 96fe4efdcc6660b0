package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// linkFields names the six link fields in positional order.
var linkFields = [6]string{"id", "origin_id", "origin_slot", "target_id", "target_slot", "type"}

// Link is a directed edge from an origin node's output slot to a target
// node's input slot.
//
// Numeric fields are float64 so that values which fail numeric coercion can be
// carried as NaN rather than collapsing to 0. In JSON a NaN field is written as
// null, and null reads back as NaN.
type Link struct {
	ID         float64
	OriginID   float64
	OriginSlot float64
	TargetID   float64
	TargetSlot float64
	Type       string
}

// EncodeLink converts a raw link entry to a [Link].
//
// Object entries are read by field name (id, origin_id, origin_slot,
// target_id, target_slot, type); array entries are read by position. The first
// five fields are coerced like JavaScript's Number() and the sixth like
// String(): missing numbers become NaN and a missing type becomes "undefined".
func EncodeLink(v any) Link {
	get := func(i int) (any, bool) { return nil, false }
	switch x := v.(type) {
	case map[string]any:
		get = func(i int) (any, bool) {
			val, ok := x[linkFields[i]]
			return val, ok
		}
	case []any:
		get = func(i int) (any, bool) {
			if i < len(x) {
				return x[i], true
			}
			return nil, false
		}
	}

	num := func(i int) float64 { return toNumber(get(i)) }
	typ, ok := get(5)
	return Link{
		ID:         num(0),
		OriginID:   num(1),
		OriginSlot: num(2),
		TargetID:   num(3),
		TargetSlot: num(4),
		Type:       toString(typ, ok),
	}
}

// EncodeLinks converts every entry of links with [EncodeLink]. Falsy entries
// (null, false, 0, "") are dropped rather than kept as placeholders, so the
// result may be shorter than the input.
func EncodeLinks(links []any) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if !truthy(l) {
			continue
		}
		out = append(out, EncodeLink(l))
	}
	return out
}

// DecodeLink returns the object form of l, keyed by the canonical field names.
// NaN values are preserved as float64 NaN.
func DecodeLink(l Link) map[string]any {
	return map[string]any{
		"id":          l.ID,
		"origin_id":   l.OriginID,
		"origin_slot": l.OriginSlot,
		"target_id":   l.TargetID,
		"target_slot": l.TargetSlot,
		"type":        l.Type,
	}
}

// Tuple returns the link in positional order.
func (l Link) Tuple() [6]any {
	return [6]any{l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot, l.Type}
}

// Valid reports whether every numeric field is a finite number.
func (l Link) Valid() bool {
	for _, f := range []float64{l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the link as [id, origin_id, origin_slot, target_id, target_slot, "type"].
func (l Link) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for _, f := range []float64{l.ID, l.OriginID, l.OriginSlot, l.TargetID, l.TargetSlot} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf.WriteString("null")
		} else {
			b, err := json.Marshal(f)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(',')
	}
	typ, err := json.Marshal(l.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(typ)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the array form written by [Link.MarshalJSON].
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if len(raw) != len(linkFields) {
		return fmt.Errorf("link: want %d fields, got %d", len(linkFields), len(raw))
	}

	nums := make([]float64, 5)
	for i := range nums {
		var f *float64
		if err := json.Unmarshal(raw[i], &f); err != nil {
			return fmt.Errorf("link %s: %w", linkFields[i], err)
		}
		if f == nil {
			nums[i] = math.NaN()
		} else {
			nums[i] = *f
		}
	}
	var typ string
	if err := json.Unmarshal(raw[5], &typ); err != nil {
		return fmt.Errorf("link type: %w", err)
	}

	*l = Link{
		ID:         nums[0],
		OriginID:   nums[1],
		OriginSlot: nums[2],
		TargetID:   nums[3],
		TargetSlot: nums[4],
		Type:       typ,
	}
	return nil
}
