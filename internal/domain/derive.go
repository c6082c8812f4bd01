package domain

// DefaultDerivedLabel is the label given to nodes spawned from a connection
// dropped on the empty canvas
const DefaultDerivedLabel = "new node"

// IDGenerator produces candidate identifiers for new nodes and edges
type IDGenerator func() string

// UniqueID draws from gen until it returns an id that is not taken
func UniqueID(gen IDGenerator, taken func(string) bool) string {
	for {
		id := gen()
		if id != "" && !taken(id) {
			return id
		}
	}
}

// DeriveNode copies source's kind, style, data and size into a new top-level
// node at position with the given id and label
func DeriveNode(source Node, id string, position XYPosition, label string) Node {
	n := source.Clone()
	n.ID = id
	n.Position = position
	n.ParentNode = ""
	n.Extent = ""
	n.Selected = false
	n.Dragging = false
	n.SetData("label", label)
	return n
}

// AddDerivedNode appends a copy of the source node at position together with
// an edge from the source to the copy. A copy of a kind without a target
// handle becomes a default node so the edge can attach. The second result
// is false, and g is returned unchanged, when the source node does not exist
// or its kind has no source handle.
func (g Graph) AddDerivedNode(sourceID string, position XYPosition, gen IDGenerator, label string) (Graph, bool) {
	source, ok := g.Node(sourceID)
	if !ok {
		return g, false
	}
	if spec, _ := LookupKind(source.Type); !hasHandle(spec, "", HandleSource) {
		return g, false
	}

	nodeIndex := indexNodes(g.Nodes)
	nodeID := UniqueID(gen, func(id string) bool {
		_, taken := nodeIndex[id]
		return taken
	})
	node := DeriveNode(source, nodeID, position, label)
	if spec, _ := LookupKind(node.Type); !hasHandle(spec, "", HandleTarget) {
		node.Type = KindDefault
	}

	edgeIndex := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		edgeIndex[e.ID] = struct{}{}
	}
	edgeID := UniqueID(gen, func(id string) bool {
		_, taken := edgeIndex[id]
		return taken
	})

	nodes := make([]Node, 0, len(g.Nodes)+1)
	nodes = append(nodes, g.Nodes...)
	edges := make([]Edge, 0, len(g.Edges)+1)
	edges = append(edges, g.Edges...)

	return Graph{
		Nodes: append(nodes, node),
		Edges: append(edges, *NewEdge(edgeID, source.ID, node.ID)),
	}, true
}

// DeleteEdgeByID removes exactly one edge. The input is returned unchanged
// when no edge has that id.
func DeleteEdgeByID(id string, edges []Edge) []Edge {
	for i, e := range edges {
		if e.ID != id {
			continue
		}
		out := make([]Edge, 0, len(edges)-1)
		out = append(out, edges[:i]...)
		return append(out, edges[i+1:]...)
	}
	return edges
}

// DeleteEdge removes one edge from the graph
func (g Graph) DeleteEdge(id string) Graph {
	return Graph{Nodes: g.Nodes, Edges: DeleteEdgeByID(id, g.Edges)}
}

// ConnectEnd describes a connection gesture released somewhere on the canvas.
// Start and End are pointer positions in client coordinates.
type ConnectEnd struct {
	SourceID string     `json:"source_id" validate:"required"`
	Start    XYPosition `json:"start"`
	End      XYPosition `json:"end"`
	OverPane bool       `json:"over_pane"`
}

// DropPosition places the spawned node where the pointer was released,
// measured from origin, the source node's absolute position
func (c ConnectEnd) DropPosition(origin XYPosition) XYPosition {
	return origin.Sub(c.Start.Sub(c.End))
}
