package domain

// GraphFragment is a detached subset of a graph, used for the clipboard and
// for diagram documents
type GraphFragment struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NewGraphFragment creates an empty graph fragment
func NewGraphFragment() *GraphFragment {
	return &GraphFragment{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode adds a node to the fragment
func (g *GraphFragment) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the fragment
func (g *GraphFragment) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}

// IsEmpty reports whether the fragment holds no nodes and no edges
func (g *GraphFragment) IsEmpty() bool {
	return len(g.Nodes) == 0 && len(g.Edges) == 0
}

// Clone returns a deep copy of the fragment
func (g GraphFragment) Clone() GraphFragment {
	graph := Graph{Nodes: g.Nodes, Edges: g.Edges}.Clone()
	return GraphFragment{Nodes: graph.Nodes, Edges: graph.Edges}
}

// Graph converts the fragment into a full snapshot
func (g GraphFragment) Graph() Graph {
	return Graph{Nodes: g.Nodes, Edges: g.Edges}.Clone()
}
