package domain

// DefaultGraph returns the diagram a fresh editor starts with
func DefaultGraph() Graph {
	return Graph{
		Nodes: []Node{
			{
				ID:       "1",
				Type:     KindInput,
				Position: XYPosition{X: 100, Y: 0},
				Data:     map[string]any{"label": "Input Node"},
				Style:    map[string]string{"backgroundColor": "lightgreen"},
			},
			{
				ID:       "2",
				Type:     KindDefault,
				Position: XYPosition{X: 0, Y: 100},
				Data:     map[string]any{"label": "Default Node"},
				Style:    map[string]string{"backgroundColor": "#D60A88", "color": "white"},
			},
			{
				ID:       "3",
				Type:     KindTextUpdater,
				Position: XYPosition{X: 100, Y: 200},
				Data:     map[string]any{"label": "Custom Node"},
				Style:    map[string]string{"backgroundColor": "purple", "color": "wheat"},
			},
			{
				ID:       "4",
				Type:     KindGroup,
				Position: XYPosition{X: 300, Y: 65},
				Data:     map[string]any{"label": nil},
				Style:    map[string]string{"backgroundColor": "lightgreen"},
			},
			{
				ID:         "5",
				Type:       KindTriangle,
				ParentNode: "4",
				Extent:     ExtentParent,
				Position:   XYPosition{X: 50, Y: 30},
				Data:       map[string]any{"label": nil},
			},
		},
		Edges: []Edge{
			{ID: "e1-2", Source: "1", Target: "2"},
			{ID: "e2-3", Source: "2", Target: "3", Animated: true},
			{ID: "e3-5b", Source: "3", Target: "5", SourceHandle: "b"},
			{ID: "e3-5a", Source: "3", Target: "5", SourceHandle: "a", Animated: true},
		},
	}
}
