package domain

import "math"

const (
	DefaultMinZoom = 0.5
	DefaultMaxZoom = 2.0
	DefaultPadding = 0.1
)

// NodeRect returns the node's box in absolute canvas coordinates
func (g Graph) NodeRect(n Node) Rect {
	return nodeRect(indexNodes(g.Nodes), n)
}

func nodeRect(index map[string]Node, n Node) Rect {
	pos := absolutePosition(index, n)
	w, h := n.Size()
	return Rect{X: pos.X, Y: pos.Y, Width: w, Height: h}
}

// RectOfNodes returns the union of every node's absolute box. An empty list
// yields the zero rect.
func RectOfNodes(nodes []Node) Rect {
	if len(nodes) == 0 {
		return Rect{}
	}
	index := indexNodes(nodes)
	box := nodeRect(index, nodes[0])
	for _, n := range nodes[1:] {
		box = box.Union(nodeRect(index, n))
	}
	return box
}

// TransformForBounds fits bounds into a width x height frame with padding,
// clamping the zoom to [minZoom, maxZoom] and centering the bounds
func TransformForBounds(bounds Rect, width, height, minZoom, maxZoom, padding float64) Transform {
	// A degenerate axis places no limit on the zoom.
	xZoom, yZoom := math.Inf(1), math.Inf(1)
	if bounds.Width > 0 {
		xZoom = width / (bounds.Width * (1 + padding))
	}
	if bounds.Height > 0 {
		yZoom = height / (bounds.Height * (1 + padding))
	}
	zoom := math.Max(minZoom, math.Min(maxZoom, math.Min(xZoom, yZoom)))

	center := bounds.Center()
	return Transform{
		X:    width/2 - center.X*zoom,
		Y:    height/2 - center.Y*zoom,
		Zoom: zoom,
	}
}
