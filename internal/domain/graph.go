package domain

import (
	"fmt"
	"reflect"
)

// Graph is an immutable (nodes, edges) snapshot of the diagram
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraph creates an empty graph with initialized collections
func NewGraph() Graph {
	return Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Clone returns a deep copy of the graph
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// Equal reports whether two snapshots hold identical lists
func (g Graph) Equal(o Graph) bool {
	if len(g.Nodes) != len(o.Nodes) || len(g.Edges) != len(o.Edges) {
		return false
	}
	for i := range g.Nodes {
		if !reflect.DeepEqual(g.Nodes[i], o.Nodes[i]) {
			return false
		}
	}
	for i := range g.Edges {
		if !reflect.DeepEqual(g.Edges[i], o.Edges[i]) {
			return false
		}
	}
	return true
}

// Node returns the node with the given id
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edge returns the edge with the given id
func (g Graph) Edge(id string) (Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return Edge{}, false
}

// HasNode reports whether a node id is in use
func (g Graph) HasNode(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// HasEdge reports whether an edge id is in use
func (g Graph) HasEdge(id string) bool {
	_, ok := g.Edge(id)
	return ok
}

// Fragment returns a deep copy of the nodes and edges with the given ids,
// in graph order. Unknown ids are ignored.
func (g Graph) Fragment(nodeIDs, edgeIDs []string) GraphFragment {
	wantNodes := toSet(nodeIDs)
	wantEdges := toSet(edgeIDs)

	fragment := NewGraphFragment()
	for _, n := range g.Nodes {
		if _, ok := wantNodes[n.ID]; ok {
			fragment.AddNode(n.Clone())
		}
	}
	for _, e := range g.Edges {
		if _, ok := wantEdges[e.ID]; ok {
			fragment.AddEdge(e.Clone())
		}
	}
	return *fragment
}

// AbsolutePosition returns the node's position with every ancestor's
// position added. Cycles and missing parents stop the walk.
func (g Graph) AbsolutePosition(n Node) XYPosition {
	return absolutePosition(indexNodes(g.Nodes), n)
}

func absolutePosition(index map[string]Node, n Node) XYPosition {
	pos := n.Position
	seen := map[string]struct{}{n.ID: {}}
	parentID := n.ParentNode
	for parentID != "" {
		if _, loop := seen[parentID]; loop {
			break
		}
		parent, ok := index[parentID]
		if !ok {
			break
		}
		seen[parentID] = struct{}{}
		pos = pos.Add(parent.Position)
		parentID = parent.ParentNode
	}
	return pos
}

// Validate checks the structural invariants of the snapshot
func (g Graph) Validate() error {
	index := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id: %w", ErrDuplicateID)
		}
		if _, dup := index[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("node %s has type %q: %w", n.ID, n.Type, ErrUnknownKind)
		}
		index[n.ID] = n
	}

	for _, n := range g.Nodes {
		if n.ParentNode == "" {
			continue
		}
		parent, ok := index[n.ParentNode]
		if !ok || !parent.IsGroup() {
			return fmt.Errorf("node %s parent %s: %w", n.ID, n.ParentNode, ErrInvalidParent)
		}
		if hasParentCycle(index, n) {
			return fmt.Errorf("node %s: %w", n.ID, ErrParentCycle)
		}
	}

	edgeIDs := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge with empty id: %w", ErrDuplicateID)
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		edgeIDs[e.ID] = struct{}{}

		if !e.Type.Valid() {
			return fmt.Errorf("edge %s has type %q: %w", e.ID, e.Type, ErrUnknownEdgeKind)
		}
		if err := checkEndpoints(index, e.Connection()); err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// PruneEdges drops edges whose source or target is not among nodes
func PruneEdges(nodes []Node, edges []Edge) []Edge {
	index := indexNodes(nodes)
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		_, okSource := index[e.Source]
		_, okTarget := index[e.Target]
		if okSource && okTarget {
			out = append(out, e)
		}
	}
	return out
}

func checkEndpoints(index map[string]Node, c Connection) error {
	source, ok := index[c.Source]
	if !ok {
		return fmt.Errorf("source %s: %w", c.Source, ErrDanglingEdge)
	}
	target, ok := index[c.Target]
	if !ok {
		return fmt.Errorf("target %s: %w", c.Target, ErrDanglingEdge)
	}
	// An empty handle id resolves to the kind's first handle of that type,
	// so kinds without one cannot take part at that end.
	if spec, _ := LookupKind(source.Type); !hasHandle(spec, c.SourceHandle, HandleSource) {
		return fmt.Errorf("source %s handle %q: %w", c.Source, c.SourceHandle, ErrInvalidHandle)
	}
	if spec, _ := LookupKind(target.Type); !hasHandle(spec, c.TargetHandle, HandleTarget) {
		return fmt.Errorf("target %s handle %q: %w", c.Target, c.TargetHandle, ErrInvalidHandle)
	}
	return nil
}

func hasHandle(spec KindSpec, id string, t HandleType) bool {
	_, ok := spec.FindHandle(id, t)
	return ok
}

func hasParentCycle(index map[string]Node, n Node) bool {
	seen := map[string]struct{}{n.ID: {}}
	for parentID := n.ParentNode; parentID != ""; {
		if _, loop := seen[parentID]; loop {
			return true
		}
		seen[parentID] = struct{}{}
		parent, ok := index[parentID]
		if !ok {
			return false
		}
		parentID = parent.ParentNode
	}
	return false
}

func indexNodes(nodes []Node) map[string]Node {
	index := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		index[n.ID] = n
	}
	return index
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
