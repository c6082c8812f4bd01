package domain

// ChangeType identifies the kind of delta reported by the canvas
type ChangeType string

const (
	ChangeAdd        ChangeType = "add"
	ChangeRemove     ChangeType = "remove"
	ChangeSelect     ChangeType = "select"
	ChangePosition   ChangeType = "position"
	ChangeDimensions ChangeType = "dimensions"
	ChangeReset      ChangeType = "reset"
)

// NodeChange is a single delta against the node list
type NodeChange struct {
	Type       ChangeType  `json:"type" validate:"required,oneof=add remove select position dimensions reset"`
	ID         string      `json:"id,omitempty"`
	Item       *Node       `json:"item,omitempty"`
	Selected   bool        `json:"selected,omitempty"`
	Position   *XYPosition `json:"position,omitempty"`
	Dragging   bool        `json:"dragging,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// EdgeChange is a single delta against the edge list
type EdgeChange struct {
	Type     ChangeType `json:"type" validate:"required,oneof=add remove select reset"`
	ID       string     `json:"id,omitempty"`
	Item     *Edge      `json:"item,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// RemoveNodes builds remove changes for the given ids
func RemoveNodes(ids ...string) []NodeChange {
	changes := make([]NodeChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, NodeChange{Type: ChangeRemove, ID: id})
	}
	return changes
}

// RemoveEdges builds remove changes for the given ids
func RemoveEdges(ids ...string) []EdgeChange {
	changes := make([]EdgeChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, EdgeChange{Type: ChangeRemove, ID: id})
	}
	return changes
}

// ApplyNodeChanges folds a batch of changes into a new node list.
//
// Untouched nodes keep their relative order and added nodes are appended.
// Removing a node also removes every node nested under it, transitively. A
// reset change replaces the whole list with the reset items. Adds with a
// duplicate id, an unknown kind or a parent that is not an existing group
// are dropped.
func ApplyNodeChanges(changes []NodeChange, nodes []Node) []Node {
	if resets, ok := nodeResets(changes); ok {
		return appendNodes(make([]Node, 0, len(resets)), resets)
	}

	byID := make(map[string][]NodeChange)
	removed := make(map[string]struct{})
	var adds []Node
	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item != nil {
				adds = append(adds, c.Item.Clone())
			}
		case ChangeRemove:
			removed[c.ID] = struct{}{}
		default:
			byID[c.ID] = append(byID[c.ID], c)
		}
	}
	cascadeRemovals(nodes, removed)

	out := make([]Node, 0, len(nodes)+len(adds))
	for _, n := range nodes {
		if _, gone := removed[n.ID]; gone {
			continue
		}
		pending, ok := byID[n.ID]
		if !ok {
			out = append(out, n)
			continue
		}
		updated := n
		for _, c := range pending {
			applyNodeChange(&updated, c)
		}
		out = append(out, updated)
	}
	return appendNodes(out, adds)
}

// ApplyEdgeChanges folds a batch of changes into a new edge list. Adds with
// a duplicate id are dropped; endpoint checks happen at the graph level.
func ApplyEdgeChanges(changes []EdgeChange, edges []Edge) []Edge {
	if resets, ok := edgeResets(changes); ok {
		return appendEdges(make([]Edge, 0, len(resets)), resets)
	}

	selects := make(map[string]bool)
	removed := make(map[string]struct{})
	var adds []Edge
	for _, c := range changes {
		switch c.Type {
		case ChangeAdd:
			if c.Item != nil {
				adds = append(adds, c.Item.Clone())
			}
		case ChangeRemove:
			removed[c.ID] = struct{}{}
		case ChangeSelect:
			selects[c.ID] = c.Selected
		}
	}

	out := make([]Edge, 0, len(edges)+len(adds))
	for _, e := range edges {
		if _, gone := removed[e.ID]; gone {
			continue
		}
		if selected, ok := selects[e.ID]; ok {
			e.Selected = selected
		}
		out = append(out, e)
	}
	return appendEdges(out, adds)
}

// ApplyNodeChanges applies node changes and drops edges left dangling
func (g Graph) ApplyNodeChanges(changes []NodeChange) Graph {
	nodes := ApplyNodeChanges(changes, g.Nodes)
	return Graph{Nodes: nodes, Edges: PruneEdges(nodes, g.Edges)}
}

// ApplyEdgeChanges applies edge changes, dropping added edges whose
// endpoints or handles do not resolve
func (g Graph) ApplyEdgeChanges(changes []EdgeChange) Graph {
	edges := ApplyEdgeChanges(changes, g.Edges)
	return Graph{Nodes: g.Nodes, Edges: resolvableEdges(g.Nodes, edges)}
}

func applyNodeChange(n *Node, c NodeChange) {
	switch c.Type {
	case ChangeSelect:
		n.Selected = c.Selected
	case ChangePosition:
		if c.Position != nil {
			n.Position = *c.Position
		}
		n.Dragging = c.Dragging
	case ChangeDimensions:
		if c.Dimensions != nil {
			n.Width = c.Dimensions.Width
			n.Height = c.Dimensions.Height
		}
	}
}

func nodeResets(changes []NodeChange) ([]Node, bool) {
	var items []Node
	found := false
	for _, c := range changes {
		if c.Type != ChangeReset {
			continue
		}
		found = true
		if c.Item != nil {
			items = append(items, c.Item.Clone())
		}
	}
	return items, found
}

func edgeResets(changes []EdgeChange) ([]Edge, bool) {
	var items []Edge
	found := false
	for _, c := range changes {
		if c.Type != ChangeReset {
			continue
		}
		found = true
		if c.Item != nil {
			items = append(items, c.Item.Clone())
		}
	}
	return items, found
}

// cascadeRemovals grows removed with every descendant of a removed node
func cascadeRemovals(nodes []Node, removed map[string]struct{}) {
	for grew := len(removed) > 0; grew; {
		grew = false
		for _, n := range nodes {
			if n.ParentNode == "" {
				continue
			}
			if _, gone := removed[n.ID]; gone {
				continue
			}
			if _, parentGone := removed[n.ParentNode]; parentGone {
				removed[n.ID] = struct{}{}
				grew = true
			}
		}
	}
}

// appendNodes appends the candidates that keep the list well-formed. base
// is trusted and must not alias a caller's slice.
func appendNodes(base []Node, candidates []Node) []Node {
	index := indexNodes(base)
	accepted := make([]Node, 0, len(candidates))
	for _, n := range candidates {
		if n.ID == "" || !n.Type.Valid() {
			continue
		}
		if _, dup := index[n.ID]; dup {
			continue
		}
		index[n.ID] = n
		accepted = append(accepted, n)
	}

	// Dropping a group invalidates its children, so filter to a fixpoint.
	for changed := true; changed; {
		changed = false
		kept := accepted[:0]
		for _, n := range accepted {
			if n.ParentNode != "" {
				parent, ok := index[n.ParentNode]
				if !ok || !parent.IsGroup() || hasParentCycle(index, n) {
					delete(index, n.ID)
					changed = true
					continue
				}
			}
			kept = append(kept, n)
		}
		accepted = kept
	}
	return append(base, accepted...)
}

func appendEdges(base []Edge, candidates []Edge) []Edge {
	seen := make(map[string]struct{}, len(base)+len(candidates))
	for _, e := range base {
		seen[e.ID] = struct{}{}
	}
	for _, e := range candidates {
		if e.ID == "" {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		base = append(base, e)
	}
	return base
}

func resolvableEdges(nodes []Node, edges []Edge) []Edge {
	index := indexNodes(nodes)
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Type.Valid() {
			continue
		}
		if checkEndpoints(index, e.Connection()) != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}
