package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/comfyscope/pkg/workflow"
)

// maxWidgetLen caps each widget value shown in detailed labels.
const maxWidgetLen = 48

// Fill colors for prompt polarity.
const (
	positiveFill = "#d9f2d9"
	negativeFill = "#f7d4d4"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the node id and widget values in node labels.
	// When false, only the node type is shown.
	Detailed bool

	// Polarity fills text-encoding nodes by classified prompt polarity.
	Polarity bool

	// Classify configures polarity classification when Polarity is set.
	Classify workflow.ClassifyOptions
}

// ToDOT converts a workflow to Graphviz DOT format.
//
// Nodes sharing an id are drawn once, using the first. Nodes without an id are
// drawn but cannot be linked. Links whose endpoints do not name a drawn node
// are omitted.
func ToDOT(wf *workflow.Workflow, opts Options) string {
	if wf == nil {
		wf = &workflow.Workflow{}
	}
	g := workflow.NewGraph(wf)
	nodes := g.Nodes()

	var polarity []workflow.Polarity
	if opts.Polarity {
		polarity = workflow.Polarities(nodes, wf.Links, opts.Classify)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	drawn := make(map[int64]bool, len(nodes))
	for i, n := range nodes {
		name := nodeName(n, i)
		if n.HasID() {
			if drawn[n.ID] {
				continue
			}
			drawn[n.ID] = true
		}
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, opts.Detailed))}
		if polarity != nil {
			attrs = append(attrs, fmtPolarity(polarity[i])...)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range g.Links() {
		from, ok := endpoint(l.OriginID, drawn)
		if !ok {
			continue
		}
		to, ok := endpoint(l.TargetID, drawn)
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", from, to, l.Type)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeName(n workflow.Node, pos int) string {
	if n.HasID() {
		return "n" + strconv.FormatInt(n.ID, 10)
	}
	return "anon" + strconv.Itoa(pos)
}

func endpoint(id float64, drawn map[int64]bool) (string, bool) {
	if id != float64(int64(id)) || !drawn[int64(id)] {
		return "", false
	}
	return "n" + strconv.FormatInt(int64(id), 10), true
}

func fmtLabel(n workflow.Node, detailed bool) string {
	label := n.Type
	if label == "" {
		label = "(untyped)"
	}
	if !detailed {
		return label
	}

	parts := []string{label}
	if n.HasID() {
		parts = append(parts, fmt.Sprintf("id: %d", n.ID))
	}
	for i := range n.WidgetsValues {
		parts = append(parts, truncate(n.Widget(i), maxWidgetLen))
	}
	return strings.Join(parts, "\n")
}

func fmtPolarity(p workflow.Polarity) []string {
	switch p {
	case workflow.PolarityPositive:
		return []string{"fillcolor=\"" + positiveFill + "\""}
	case workflow.PolarityNegative:
		return []string{"fillcolor=\"" + negativeFill + "\""}
	default:
		return nil
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
