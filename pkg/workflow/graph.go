package workflow

import "slices"

// Graph is an indexed, read-only view over a [Workflow].
//
// Nodes are looked up by id in O(1). When several nodes share an id the first
// one in source order wins. Links whose endpoints are not valid numbers are
// dropped from the adjacency lists but still counted by [Graph.Links].
type Graph struct {
	wf       *Workflow
	index    map[int64]int
	links    []Link
	outgoing map[int64][]int // node id -> positions in links
	incoming map[int64][]int
}

// NewGraph indexes wf. A nil workflow yields an empty graph.
func NewGraph(wf *Workflow) *Graph {
	if wf == nil {
		wf = &Workflow{}
	}
	g := &Graph{
		wf:       wf,
		index:    indexNodes(wf.Nodes),
		links:    EncodeLinks(wf.Links),
		outgoing: make(map[int64][]int),
		incoming: make(map[int64][]int),
	}
	for i, l := range g.links {
		if from, ok := integer(l.OriginID); ok {
			g.outgoing[from] = append(g.outgoing[from], i)
		}
		if to, ok := integer(l.TargetID); ok {
			g.incoming[to] = append(g.incoming[to], i)
		}
	}
	return g
}

// indexNodes maps node ids to positions in nodes, keeping the first occurrence.
func indexNodes(nodes []Node) map[int64]int {
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		if !n.hasID {
			continue
		}
		if _, seen := index[n.ID]; !seen {
			index[n.ID] = i
		}
	}
	return index
}

// Nodes returns the nodes in source order.
func (g *Graph) Nodes() []Node { return g.wf.Nodes }

// Links returns every non-empty link entry in array form.
func (g *Graph) Links() []Link { return g.links }

// NodeCount returns the number of parsed nodes.
func (g *Graph) NodeCount() int { return len(g.wf.Nodes) }

// LinkCount returns the number of non-empty link entries.
func (g *Graph) LinkCount() int { return len(g.links) }

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.wf.Nodes[i], true
}

// Outgoing returns the links whose origin is id, in link order.
func (g *Graph) Outgoing(id int64) []Link { return g.pick(g.outgoing[id]) }

// Incoming returns the links whose target is id, in link order.
func (g *Graph) Incoming(id int64) []Link { return g.pick(g.incoming[id]) }

func (g *Graph) pick(positions []int) []Link {
	out := make([]Link, len(positions))
	for i, p := range positions {
		out[i] = g.links[p]
	}
	return out
}

// Types returns the distinct node types in first-seen order. Renderers treat
// each as an opaque label; no registration step is needed.
func (g *Graph) Types() []string {
	var types []string
	for _, n := range g.wf.Nodes {
		if !slices.Contains(types, n.Type) {
			types = append(types, n.Type)
		}
	}
	return types
}
