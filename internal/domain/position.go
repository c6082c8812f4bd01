package domain

import "math"

// XYPosition is a point in canvas units
type XYPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + o
func (p XYPosition) Add(o XYPosition) XYPosition {
	return XYPosition{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o
func (p XYPosition) Sub(o XYPosition) XYPosition {
	return XYPosition{X: p.X - o.X, Y: p.Y - o.Y}
}

// Dimensions is a measured node size
type Dimensions struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// Rect is an axis-aligned box in canvas units
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Union returns the smallest rect containing both
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.Width, o.X+o.Width)
	y1 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the midpoint of the rect
func (r Rect) Center() XYPosition {
	return XYPosition{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Transform maps canvas units to raster pixels: pixel = canvas*Zoom + (X, Y)
type Transform struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Apply maps a canvas point into the raster frame
func (t Transform) Apply(p XYPosition) XYPosition {
	return XYPosition{X: p.X*t.Zoom + t.X, Y: p.Y*t.Zoom + t.Y}
}

// ApplyRect maps a canvas rect into the raster frame
func (t Transform) ApplyRect(r Rect) Rect {
	origin := t.Apply(XYPosition{X: r.X, Y: r.Y})
	return Rect{X: origin.X, Y: origin.Y, Width: r.Width * t.Zoom, Height: r.Height * t.Zoom}
}
