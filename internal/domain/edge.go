package domain

// EdgeKind selects how the canvas draws an edge
type EdgeKind string

const (
	EdgeKindDefault      EdgeKind = "default"
	EdgeKindStraight     EdgeKind = "straight"
	EdgeKindStep         EdgeKind = "step"
	EdgeKindSmoothStep   EdgeKind = "smoothstep"
	EdgeKindDeleteButton EdgeKind = "deleteBtn" // straight edge with a hover delete button
)

// Valid reports whether the edge kind is known. The empty kind is the default.
func (k EdgeKind) Valid() bool {
	switch k {
	case "", EdgeKindDefault, EdgeKindStraight, EdgeKindStep, EdgeKindSmoothStep, EdgeKindDeleteButton:
		return true
	}
	return false
}

// Edge is a directed connection between two nodes
type Edge struct {
	ID           string            `json:"id" validate:"required"`
	Source       string            `json:"source" validate:"required"`
	Target       string            `json:"target" validate:"required"`
	SourceHandle string            `json:"sourceHandle,omitempty"`
	TargetHandle string            `json:"targetHandle,omitempty"`
	Type         EdgeKind          `json:"type,omitempty"`
	Animated     bool              `json:"animated,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
	Selected     bool              `json:"selected,omitempty"`
}

// NewEdge creates an edge between two nodes
func NewEdge(id, source, target string) *Edge {
	return &Edge{
		ID:     id,
		Source: source,
		Target: target,
	}
}

// Involves checks if the edge touches the given node
func (e *Edge) Involves(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Connection returns the endpoint tuple of the edge
func (e *Edge) Connection() Connection {
	return Connection{
		Source:       e.Source,
		SourceHandle: e.SourceHandle,
		Target:       e.Target,
		TargetHandle: e.TargetHandle,
	}
}

// Clone returns a deep copy of the edge
func (e Edge) Clone() Edge {
	out := e
	if e.Style != nil {
		out.Style = make(map[string]string, len(e.Style))
		for k, v := range e.Style {
			out.Style[k] = v
		}
	}
	return out
}
