// Package export rasterizes diagrams. It fits the node bounds into the output
// frame, draws groups, edges, nodes and labels with golang.org/x/image, and
// caches encoded PNGs per diagram revision.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"flowpad/internal/domain"
)

// MaxDimension bounds the raster size a caller may request
const MaxDimension = 8192

// ErrInvalidSize is returned for non-positive or oversized frames
var ErrInvalidSize = errors.New("invalid export size")

// Options configures rendering
type Options struct {
	Width      int
	Height     int
	MinZoom    float64
	MaxZoom    float64
	Padding    float64
	Background string
	FontSize   float64
}

// DefaultOptions returns the defaults used by the PNG export
func DefaultOptions() Options {
	return Options{
		Width:      1024,
		Height:     768,
		MinZoom:    domain.DefaultMinZoom,
		MaxZoom:    domain.DefaultMaxZoom,
		Padding:    domain.DefaultPadding,
		Background: "whitesmoke",
		FontSize:   12,
	}
}

// Colors used when a style leaves one unset
var (
	colorNodeFill   = color.RGBA{255, 255, 255, 255}
	colorNodeBorder = color.RGBA{26, 25, 43, 255}    // #1a192b
	colorLabel      = color.RGBA{34, 34, 34, 255}    // #222
	colorEdge       = color.RGBA{177, 177, 183, 255} // #b1b1b7
)

var parseFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Renderer draws diagrams into images. It is safe for concurrent use.
type Renderer struct {
	opts Options
	font *opentype.Font
}

// NewRenderer creates a renderer, filling zero options from DefaultOptions
func NewRenderer(opts Options) (*Renderer, error) {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = def.MaxZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		return nil, fmt.Errorf("max zoom %g below min zoom %g", opts.MaxZoom, opts.MinZoom)
	}
	if opts.Padding < 0 {
		opts.Padding = def.Padding
	}
	if opts.Background == "" {
		opts.Background = def.Background
	}
	if _, ok := ParseColor(opts.Background); !ok {
		return nil, fmt.Errorf("unknown background color %q", opts.Background)
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}

	fnt, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return &Renderer{opts: opts, font: fnt}, nil
}

// Options returns the effective options
func (r *Renderer) Options() Options {
	return r.opts
}

// Size resolves a requested frame, substituting defaults for zero values
func (r *Renderer) Size(width, height int) (int, int, error) {
	if width == 0 {
		width = r.opts.Width
	}
	if height == 0 {
		height = r.opts.Height
	}
	if width < 0 || height < 0 || width > MaxDimension || height > MaxDimension {
		return 0, 0, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return width, height, nil
}

// Transform returns the viewport that fits every node into the frame
func (r *Renderer) Transform(g domain.Graph, width, height int) domain.Transform {
	return domain.TransformForBounds(
		domain.RectOfNodes(g.Nodes),
		float64(width), float64(height),
		r.opts.MinZoom, r.opts.MaxZoom, r.opts.Padding,
	)
}

// Render draws the diagram into a new image
func (r *Renderer) Render(g domain.Graph, width, height int) (*image.RGBA, error) {
	width, height, err := r.Size(width, height)
	if err != nil {
		return nil, err
	}

	t := r.Transform(g, width, height)
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    math.Max(6, r.opts.FontSize*t.Zoom),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg, _ := ParseColor(r.opts.Background)
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	c := &canvas{
		img:  img,
		z:    vector.NewRasterizer(width, height),
		face: face,
		line: math.Max(1, t.Zoom),
	}

	rects := make(map[string]domain.Rect, len(g.Nodes))
	for _, n := range g.Nodes {
		rects[n.ID] = t.ApplyRect(g.NodeRect(n))
	}

	// Groups sit under edges, edges under the remaining nodes.
	for _, n := range g.Nodes {
		if n.IsGroup() {
			c.node(n, rects[n.ID])
		}
	}
	for _, e := range g.Edges {
		src, okS := g.Node(e.Source)
		dst, okT := g.Node(e.Target)
		if !okS || !okT {
			continue
		}
		from := handlePoint(src, rects[src.ID], e.SourceHandle, domain.HandleSource)
		to := handlePoint(dst, rects[dst.ID], e.TargetHandle, domain.HandleTarget)
		c.edge(e, from, to, t.Zoom)
	}
	for _, n := range g.Nodes {
		if !n.IsGroup() {
			c.node(n, rects[n.ID])
		}
	}
	return img, nil
}

// Encode renders the diagram as PNG into w
func (r *Renderer) Encode(w io.Writer, g domain.Graph, width, height int) error {
	img, err := r.Render(g, width, height)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// handlePoint places a handle on its side of the box. Handles sharing a side
// are spread evenly along it; kinds without the handle connect at the center.
func handlePoint(n domain.Node, box domain.Rect, id string, t domain.HandleType) domain.XYPosition {
	spec, ok := domain.LookupKind(n.Type)
	if !ok {
		return box.Center()
	}
	h, ok := spec.FindHandle(id, t)
	if !ok {
		return box.Center()
	}

	index, count := 0, 0
	for _, other := range spec.Handles {
		if other.Side != h.Side {
			continue
		}
		if other == h {
			index = count
		}
		count++
	}
	frac := float64(index+1) / float64(count+1)

	switch h.Side {
	case domain.SideTop:
		return domain.XYPosition{X: box.X + box.Width*frac, Y: box.Y}
	case domain.SideBottom:
		return domain.XYPosition{X: box.X + box.Width*frac, Y: box.Y + box.Height}
	case domain.SideLeft:
		return domain.XYPosition{X: box.X, Y: box.Y + box.Height*frac}
	case domain.SideRight:
		return domain.XYPosition{X: box.X + box.Width, Y: box.Y + box.Height*frac}
	}
	return box.Center()
}

type canvas struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face
	line float64
}

func (c *canvas) node(n domain.Node, box domain.Rect) {
	var shape []domain.XYPosition
	if n.Type == domain.KindTriangle {
		shape = []domain.XYPosition{
			{X: box.X + box.Width/2, Y: box.Y},
			{X: box.X + box.Width, Y: box.Y + box.Height},
			{X: box.X, Y: box.Y + box.Height},
		}
	} else {
		shape = []domain.XYPosition{
			{X: box.X, Y: box.Y},
			{X: box.X + box.Width, Y: box.Y},
			{X: box.X + box.Width, Y: box.Y + box.Height},
			{X: box.X, Y: box.Y + box.Height},
		}
	}

	c.fill(shape, colorOr(n.StyleValue("backgroundColor"), colorNodeFill))
	border := c.line
	if n.Selected {
		border *= 2
	}
	c.outline(shape, border, colorOr(n.StyleValue("borderColor"), colorNodeBorder))

	if label := n.Label(); label != "" {
		c.text(label, box.Center(), colorOr(n.StyleValue("color"), colorLabel))
	}
}

func (c *canvas) edge(e domain.Edge, from, to domain.XYPosition, zoom float64) {
	col := colorOr(e.Style["stroke"], colorEdge)
	if !e.Animated {
		c.segment(from, to, c.line, col)
		return
	}

	// Animated edges render as a dashed line.
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	dash := math.Max(2, 5*zoom)
	for s := 0.0; s < length; s += 2 * dash {
		end := math.Min(s+dash, length)
		c.segment(
			domain.XYPosition{X: from.X + dx*s/length, Y: from.Y + dy*s/length},
			domain.XYPosition{X: from.X + dx*end/length, Y: from.Y + dy*end/length},
			c.line, col,
		)
	}
}

func (c *canvas) fill(pts []domain.XYPosition, col color.RGBA) {
	if len(pts) < 3 || col.A == 0 {
		return
	}
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		c.z.LineTo(float32(p.X), float32(p.Y))
	}
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) outline(pts []domain.XYPosition, width float64, col color.RGBA) {
	for i := range pts {
		c.segment(pts[i], pts[(i+1)%len(pts)], width, col)
	}
}

// segment strokes a straight line as a quad of the given width
func (c *canvas) segment(a, b domain.XYPosition, width float64, col color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	c.fill([]domain.XYPosition{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	}, col)
}

func (c *canvas) text(s string, center domain.XYPosition, col color.RGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
	}
	m := c.face.Metrics()
	advance := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.Int26_6(center.X*64) - advance/2,
		Y: fixed.Int26_6(center.Y*64) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(s)
}
