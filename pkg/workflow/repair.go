package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNoMarker is returned by [Repair] when text does not start with the
	// workflow marker. It means "not a workflow chunk", not a failure.
	ErrNoMarker = errors.New("no workflow marker")

	// ErrMalformedWorkflow is returned by [Repair] when the rewritten text is
	// not a valid JSON object.
	ErrMalformedWorkflow = errors.New("malformed workflow JSON")
)

// markerPattern matches the bare "workflow" keyword and everything up to and
// including the first opening brace, across newlines and NUL separators.
var markerPattern = regexp.MustCompile(`(?s)^workflow\s*.*?\{`)

// markerReplacement is the proper JSON key that replaces the marker.
const markerReplacement = `"workflow": {`

// Repairer turns chunk text into a parsed document.
type Repairer interface {
	Repair(text string) (Document, error)
}

// MarkerRepairer rewrites the "workflow<sep>{" prefix into a JSON key and
// wraps the text in an outer object.
type MarkerRepairer struct{}

// Repair implements [Repairer].
func (MarkerRepairer) Repair(text string) (Document, error) {
	loc := markerPattern.FindStringIndex(text)
	if loc == nil {
		return nil, ErrNoMarker
	}
	fixed := "{" + markerReplacement + text[loc[1]:] + "}"

	var doc Document
	if err := json.Unmarshal([]byte(fixed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkflow, err)
	}
	return doc, nil
}

// Repair parses text with the default [MarkerRepairer].
func Repair(text string) (Document, error) {
	return MarkerRepairer{}.Repair(text)
}
