package workflow

// Resolve locates the workflow inside doc.
//
// The root is doc["workflow"] when that is an object, otherwise doc itself
// when it has a "nodes" field. Nodes and links are read from doc first and
// from the root second, because producers disagree on nesting depth. ok is
// false when doc is not a workflow.
func Resolve(doc Document) (wf *Workflow, ok bool) {
	var root Document
	if w, isObj := doc["workflow"].(map[string]any); isObj {
		root = w
	} else if _, has := doc["nodes"]; has {
		root = doc
	} else {
		return nil, false
	}

	nodes := firstTruthy(doc["nodes"], root["nodes"])
	links, _ := firstTruthy(doc["links"], root["links"]).([]any)
	if links == nil {
		links = []any{}
	}

	return &Workflow{
		Root:  root,
		Nodes: parseNodes(nodes),
		Links: links,
	}, true
}

func firstTruthy(vals ...any) any {
	for _, v := range vals {
		if truthy(v) {
			return v
		}
	}
	return nil
}
