package domain

import "strconv"

// Connection is the endpoint tuple the canvas reports when the user draws an
// edge between two handles
type Connection struct {
	Source       string `json:"source" validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target" validate:"required"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// EdgeOptions are defaults applied to edges created by Connect
type EdgeOptions struct {
	Animated bool
	Type     EdgeKind
}

// EdgeIDFor derives the id of an edge created from a connection
func EdgeIDFor(c Connection) string {
	return "reactflow__edge-" + c.Source + c.SourceHandle + "-" + c.Target + c.TargetHandle
}

// Same reports whether two connections join the same handles. Empty handles
// only match empty handles.
func (c Connection) Same(o Connection) bool {
	return c.Source == o.Source &&
		c.Target == o.Target &&
		c.SourceHandle == o.SourceHandle &&
		c.TargetHandle == o.TargetHandle
}

// ConnectionExists reports whether an edge already joins the same handles
func ConnectionExists(c Connection, edges []Edge) bool {
	for _, e := range edges {
		if e.Connection().Same(c) {
			return true
		}
	}
	return false
}

// Connect appends an edge for the connection unless one with the identical
// (source, sourceHandle, target, targetHandle) tuple already exists. The
// input list is returned unchanged on a duplicate or an incomplete connection.
func Connect(c Connection, edges []Edge, opts EdgeOptions) []Edge {
	if c.Source == "" || c.Target == "" {
		return edges
	}
	if ConnectionExists(c, edges) {
		return edges
	}

	edge := Edge{
		ID:           uniqueEdgeID(EdgeIDFor(c), edges),
		Source:       c.Source,
		SourceHandle: c.SourceHandle,
		Target:       c.Target,
		TargetHandle: c.TargetHandle,
		Type:         opts.Type,
		Animated:     opts.Animated,
	}

	out := make([]Edge, 0, len(edges)+1)
	out = append(out, edges...)
	return append(out, edge)
}

// Connect adds an edge for the connection when both endpoints and handles
// resolve and the tuple is not already connected
func (g Graph) Connect(c Connection, opts EdgeOptions) Graph {
	if checkEndpoints(indexNodes(g.Nodes), c) != nil {
		return g
	}
	return Graph{Nodes: g.Nodes, Edges: Connect(c, g.Edges, opts)}
}

// uniqueEdgeID suffixes the derived id when a different tuple already
// produced the same string
func uniqueEdgeID(id string, edges []Edge) string {
	taken := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		taken[e.ID] = struct{}{}
	}
	if _, ok := taken[id]; !ok {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "-" + strconv.Itoa(i)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}
