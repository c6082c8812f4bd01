package domain

// NodeKind is the type tag of a node
type NodeKind string

const (
	KindInput       NodeKind = "input"
	KindDefault     NodeKind = "default"
	KindTextUpdater NodeKind = "textUpdater" // custom text node
	KindTriangle    NodeKind = "triangle"
	KindGroup       NodeKind = "group"
)

// HandleType says whether a handle starts or ends a connection
type HandleType string

const (
	HandleSource HandleType = "source"
	HandleTarget HandleType = "target"
)

// Side is the node boundary a handle is attached to
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Handle is a named connection point on a node's boundary
type Handle struct {
	ID   string     `json:"id"`
	Type HandleType `json:"type"`
	Side Side       `json:"side"`
}

// KindSpec describes how nodes of one kind look and behave
type KindSpec struct {
	Kind         NodeKind `json:"kind"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	MiniMapColor string   `json:"minimap_color"`
	Handles      []Handle `json:"handles"`
	ClickMessage string   `json:"click_message,omitempty"`
}

// kindSpecs is resolved once; order is the order Kinds reports.
var kindSpecs = []KindSpec{
	{
		Kind:         KindInput,
		Width:        150,
		Height:       40,
		MiniMapColor: "lightgreen",
		Handles: []Handle{
			{Type: HandleSource, Side: SideBottom},
		},
	},
	{
		Kind:         KindDefault,
		Width:        150,
		Height:       40,
		MiniMapColor: "pink",
		Handles: []Handle{
			{Type: HandleTarget, Side: SideTop},
			{Type: HandleSource, Side: SideBottom},
		},
	},
	{
		Kind:         KindTextUpdater,
		Width:        160,
		Height:       70,
		MiniMapColor: "purple",
		Handles: []Handle{
			{Type: HandleTarget, Side: SideLeft},
			{ID: "a", Type: HandleSource, Side: SideTop},
			{ID: "b", Type: HandleSource, Side: SideTop},
		},
	},
	{
		Kind:         KindTriangle,
		Width:        80,
		Height:       70,
		MiniMapColor: "red",
		Handles: []Handle{
			{ID: "t-s", Type: HandleSource, Side: SideRight},
			{ID: "t-t", Type: HandleTarget, Side: SideLeft},
		},
		ClickMessage: `You clicked on the "Triangular" node.`,
	},
	{
		Kind:         KindGroup,
		Width:        250,
		Height:       150,
		MiniMapColor: "grey",
		ClickMessage: `You clicked on the "Rectangular" node.`,
	},
}

var kindIndex = func() map[NodeKind]int {
	idx := make(map[NodeKind]int, len(kindSpecs))
	for i, spec := range kindSpecs {
		idx[spec.Kind] = i
	}
	return idx
}()

// LookupKind returns the KindSpec registered for a kind
func LookupKind(kind NodeKind) (KindSpec, bool) {
	i, ok := kindIndex[kind]
	if !ok {
		return KindSpec{}, false
	}
	return kindSpecs[i], true
}

// Kinds returns every registered kind spec
func Kinds() []KindSpec {
	out := make([]KindSpec, len(kindSpecs))
	copy(out, kindSpecs)
	return out
}

// Valid reports whether the kind is registered
func (k NodeKind) Valid() bool {
	_, ok := kindIndex[k]
	return ok
}

// MiniMapColor returns the minimap fill for a kind, grey for unknown kinds
func (k NodeKind) MiniMapColor() string {
	if spec, ok := LookupKind(k); ok {
		return spec.MiniMapColor
	}
	return "grey"
}

// FindHandle looks up a handle by id and type. An empty id matches the first
// handle of that type.
func (s KindSpec) FindHandle(id string, t HandleType) (Handle, bool) {
	for _, h := range s.Handles {
		if h.Type != t {
			continue
		}
		if id == "" || h.ID == id {
			return h, true
		}
	}
	return Handle{}, false
}
