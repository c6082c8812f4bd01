// Package clipboard tracks the selected subgraph and implements cut, copy
// and paste with identifier remapping.
//
// Paste builds an old-id to new-id table over the whole clipboard before
// rewriting anything, so parent and endpoint references are always looked up
// by their original id.
package clipboard

import (
	"flowpad/internal/domain"
)

// Selection is the set of node and edge ids the canvas reports as selected
type Selection struct {
	Nodes []string `json:"nodes"`
	Edges []string `json:"edges"`
}

// SelectionOf collects the ids whose selected flag is set
func SelectionOf(g domain.Graph) Selection {
	sel := Selection{Nodes: []string{}, Edges: []string{}}
	for _, n := range g.Nodes {
		if n.Selected {
			sel.Nodes = append(sel.Nodes, n.ID)
		}
	}
	for _, e := range g.Edges {
		if e.Selected {
			sel.Edges = append(sel.Edges, e.ID)
		}
	}
	return sel
}

// Controller holds the current selection and the clipboard contents. It is
// not safe for concurrent use.
type Controller struct {
	selection Selection
	clipboard domain.GraphFragment
}

// NewController creates a controller with nothing selected and an empty
// clipboard
func NewController() *Controller {
	return &Controller{
		selection: Selection{Nodes: []string{}, Edges: []string{}},
		clipboard: *domain.NewGraphFragment(),
	}
}

// OnSelectionChange replaces the tracked selection
func (c *Controller) OnSelectionChange(sel Selection) {
	c.selection = Selection{
		Nodes: append([]string{}, sel.Nodes...),
		Edges: append([]string{}, sel.Edges...),
	}
}

// Selection returns a copy of the tracked selection
func (c *Controller) Selection() Selection {
	return Selection{
		Nodes: append([]string{}, c.selection.Nodes...),
		Edges: append([]string{}, c.selection.Edges...),
	}
}

// Retain drops selected ids that no longer exist in g
func (c *Controller) Retain(g domain.Graph) {
	nodes := c.selection.Nodes[:0]
	for _, id := range c.selection.Nodes {
		if g.HasNode(id) {
			nodes = append(nodes, id)
		}
	}
	edges := c.selection.Edges[:0]
	for _, id := range c.selection.Edges {
		if g.HasEdge(id) {
			edges = append(edges, id)
		}
	}
	c.selection = Selection{Nodes: nodes, Edges: edges}
}

// Clipboard returns a deep copy of the clipboard contents
func (c *Controller) Clipboard() domain.GraphFragment {
	return c.clipboard.Clone()
}

// CanCopy reports whether at least one node is selected
func (c *Controller) CanCopy() bool {
	return len(c.selection.Nodes) > 0
}

// CanPaste reports whether the clipboard holds anything
func (c *Controller) CanPaste() bool {
	return !c.clipboard.IsEmpty()
}

// Copy deep-copies the selected part of g into the clipboard. It reports
// false, leaving the clipboard alone, when nothing selected exists in g.
func (c *Controller) Copy(g domain.Graph) bool {
	if !c.CanCopy() {
		return false
	}
	fragment := g.Fragment(c.selection.Nodes, c.selection.Edges)
	if len(fragment.Nodes) == 0 {
		return false
	}
	c.clipboard = fragment
	return true
}

// Cut copies the selection and returns g without the selected nodes and
// edges. Removal cascades to children and attached edges.
func (c *Controller) Cut(g domain.Graph) (domain.Graph, bool) {
	if !c.Copy(g) {
		return g, false
	}

	nodeIDs := make([]string, 0, len(c.clipboard.Nodes))
	for _, n := range c.clipboard.Nodes {
		nodeIDs = append(nodeIDs, n.ID)
	}
	edgeIDs := make([]string, 0, len(c.clipboard.Edges))
	for _, e := range c.clipboard.Edges {
		edgeIDs = append(edgeIDs, e.ID)
	}

	out := g.ApplyNodeChanges(domain.RemoveNodes(nodeIDs...)).
		ApplyEdgeChanges(domain.RemoveEdges(edgeIDs...))
	c.selection = Selection{Nodes: []string{}, Edges: []string{}}
	return out, true
}

// Paste appends the clipboard to g. The clipboard itself is kept so it can
// be pasted again; every paste yields fresh ids for anything that collides.
func (c *Controller) Paste(g domain.Graph, gen domain.IDGenerator) (domain.Graph, bool) {
	if !c.CanPaste() {
		return g, false
	}
	out := Paste(c.clipboard, g, gen)
	return out, !out.Equal(g)
}

// Paste appends a copy of fragment to g.
//
// Clipboard nodes whose id collides with a live node get a fresh id from
// gen, and the parent and edge endpoint references pointing at them are
// rewritten to match. Colliding edge ids are replaced as well. Everything
// else keeps its id. Pasted nodes whose parent is neither pasted nor a live
// group become top-level, and pasted edges whose endpoints do not resolve
// are dropped.
func Paste(fragment domain.GraphFragment, g domain.Graph, gen domain.IDGenerator) domain.Graph {
	if fragment.IsEmpty() {
		return g
	}

	takenNodes := make(map[string]struct{}, len(g.Nodes)+len(fragment.Nodes))
	for _, n := range g.Nodes {
		takenNodes[n.ID] = struct{}{}
	}
	isTakenNode := func(id string) bool {
		_, ok := takenNodes[id]
		return ok
	}

	// First pass: assign every clipboard node its final id.
	remap := make(map[string]string, len(fragment.Nodes))
	pastedKind := make(map[string]domain.NodeKind, len(fragment.Nodes))
	for _, n := range fragment.Nodes {
		id := n.ID
		if isTakenNode(id) {
			id = domain.UniqueID(gen, isTakenNode)
		}
		takenNodes[id] = struct{}{}
		remap[n.ID] = id
		pastedKind[n.ID] = n.Type
	}

	// Second pass: rewrite ids and references through the table.
	nodeAdds := make([]domain.NodeChange, 0, len(fragment.Nodes))
	for _, orig := range fragment.Nodes {
		n := orig.Clone()
		n.ID = remap[orig.ID]
		n.Dragging = false
		if n.ParentNode != "" {
			if newParent, ok := remap[orig.ParentNode]; ok && pastedKind[orig.ParentNode] == domain.KindGroup {
				n.ParentNode = newParent
			} else if parent, ok := g.Node(orig.ParentNode); !ok || !parent.IsGroup() {
				n.ParentNode = ""
				n.Extent = ""
			}
		}
		nodeAdds = append(nodeAdds, domain.NodeChange{Type: domain.ChangeAdd, Item: &n})
	}

	takenEdges := make(map[string]struct{}, len(g.Edges)+len(fragment.Edges))
	for _, e := range g.Edges {
		takenEdges[e.ID] = struct{}{}
	}
	isTakenEdge := func(id string) bool {
		_, ok := takenEdges[id]
		return ok
	}

	edgeAdds := make([]domain.EdgeChange, 0, len(fragment.Edges))
	for _, orig := range fragment.Edges {
		e := orig.Clone()
		if isTakenEdge(e.ID) {
			e.ID = domain.UniqueID(gen, isTakenEdge)
		}
		takenEdges[e.ID] = struct{}{}
		if id, ok := remap[orig.Source]; ok {
			e.Source = id
		}
		if id, ok := remap[orig.Target]; ok {
			e.Target = id
		}
		edgeAdds = append(edgeAdds, domain.EdgeChange{Type: domain.ChangeAdd, Item: &e})
	}

	return g.ApplyNodeChanges(nodeAdds).ApplyEdgeChanges(edgeAdds)
}
