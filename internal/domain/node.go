package domain

// ExtentParent keeps a child node inside its parent's bounds while dragging
const ExtentParent = "parent"

// Node is a positioned, typed element of the diagram
type Node struct {
	ID         string            `json:"id" validate:"required"`
	Type       NodeKind          `json:"type" validate:"required"`
	Position   XYPosition        `json:"position"`
	Data       map[string]any    `json:"data"`
	Style      map[string]string `json:"style,omitempty"`
	ParentNode string            `json:"parentNode,omitempty"`
	Extent     string            `json:"extent,omitempty" validate:"omitempty,oneof=parent"`

	// Measured size reported by the canvas; zero means unmeasured
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Selected bool `json:"selected,omitempty"`
	Dragging bool `json:"dragging,omitempty"`
}

// NewNode creates a node with the given label
func NewNode(id string, kind NodeKind, label string, pos XYPosition) *Node {
	return &Node{
		ID:       id,
		Type:     kind,
		Position: pos,
		Data:     map[string]any{"label": label},
	}
}

// Label returns data.label when it is a string
func (n *Node) Label() string {
	if n.Data == nil {
		return ""
	}
	if s, ok := n.Data["label"].(string); ok {
		return s
	}
	return ""
}

// SetData sets a data value
func (n *Node) SetData(key string, value any) {
	if n.Data == nil {
		n.Data = make(map[string]any)
	}
	n.Data[key] = value
}

// GetData gets a data value
func (n *Node) GetData(key string) (any, bool) {
	if n.Data == nil {
		return nil, false
	}
	val, ok := n.Data[key]
	return val, ok
}

// StyleValue returns a style hint, or "" when unset
func (n *Node) StyleValue(key string) string {
	if n.Style == nil {
		return ""
	}
	return n.Style[key]
}

// Size returns the measured size, falling back to the kind's default
func (n *Node) Size() (float64, float64) {
	w, h := n.Width, n.Height
	if w > 0 && h > 0 {
		return w, h
	}
	spec, ok := LookupKind(n.Type)
	if !ok {
		return w, h
	}
	if w <= 0 {
		w = spec.Width
	}
	if h <= 0 {
		h = spec.Height
	}
	return w, h
}

// IsGroup reports whether the node can contain children
func (n *Node) IsGroup() bool {
	return n.Type == KindGroup
}

// Clone returns a deep copy of the node
func (n Node) Clone() Node {
	out := n
	out.Data = cloneData(n.Data)
	if n.Style != nil {
		out.Style = make(map[string]string, len(n.Style))
		for k, v := range n.Style {
			out.Style[k] = v
		}
	}
	return out
}

func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneData(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
