package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowpad/internal/domain"
	"flowpad/internal/metrics"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"whitesmoke", color.RGBA{245, 245, 245, 255}, true},
		{"LightGreen", color.RGBA{144, 238, 144, 255}, true},
		{"#D60A88", color.RGBA{214, 10, 136, 255}, true},
		{"#fff", color.RGBA{255, 255, 255, 255}, true},
		{"#00000000", color.RGBA{0, 0, 0, 0}, true},
		{"rgb(1, 2, 3)", color.RGBA{1, 2, 3, 255}, true},
		{"rgba(255, 0, 0, 0)", color.RGBA{0, 0, 0, 0}, true},
		{"transparent", color.RGBA{}, true},
		{"", color.RGBA{}, false},
		{"#12345", color.RGBA{}, false},
		{"rgb(300, 0, 0)", color.RGBA{}, false},
		{"not-a-color", color.RGBA{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultOptions())
	require.NoError(t, err)
	return r
}

func pixelAt(img *image.RGBA, t domain.Transform, p domain.XYPosition) color.RGBA {
	px := t.Apply(p)
	return img.RGBAAt(int(px.X), int(px.Y))
}

func TestRenderSeed(t *testing.T) {
	r := newRenderer(t)
	g := domain.DefaultGraph()

	img, err := r.Render(g, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1024, 768), img.Bounds())

	tr := r.Transform(g, 1024, 768)

	// Nothing is drawn in the corner of the frame.
	assert.Equal(t, color.RGBA{245, 245, 245, 255}, img.RGBAAt(0, 0))

	// Node 2 is filled with its background color.
	assert.Equal(t, color.RGBA{214, 10, 136, 255}, pixelAt(img, tr, domain.XYPosition{X: 10, Y: 105}))

	// The triangle child is white inside and leaves the group visible
	// around its apex.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, pixelAt(img, tr, domain.XYPosition{X: 390, Y: 155}))
	assert.Equal(t, color.RGBA{144, 238, 144, 255}, pixelAt(img, tr, domain.XYPosition{X: 352, Y: 97}))
}

func TestRenderEmptyGraph(t *testing.T) {
	r := newRenderer(t)
	img, err := r.Render(domain.NewGraph(), 64, 32)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{245, 245, 245, 255}, img.RGBAAt(32, 16))
	assert.Equal(t, domain.DefaultMaxZoom, r.Transform(domain.NewGraph(), 64, 32).Zoom)
}

func TestRenderRejectsBadSizes(t *testing.T) {
	r := newRenderer(t)
	for _, size := range [][2]int{{-1, 10}, {10, MaxDimension + 1}} {
		_, err := r.Render(domain.DefaultGraph(), size[0], size[1])
		assert.True(t, errors.Is(err, ErrInvalidSize), "size %v", size)
	}
}

func TestNewRendererOptions(t *testing.T) {
	_, err := NewRenderer(Options{Background: "nope"})
	assert.Error(t, err)

	_, err = NewRenderer(Options{MinZoom: 2, MaxZoom: 1})
	assert.Error(t, err)

	r, err := NewRenderer(Options{Width: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, r.Options().Width)
	assert.Equal(t, 768, r.Options().Height)
	assert.Equal(t, "whitesmoke", r.Options().Background)
}

func TestHandlePointSpreadsSharedSides(t *testing.T) {
	n := *domain.NewNode("3", domain.KindTextUpdater, "x", domain.XYPosition{})
	box := domain.Rect{X: 0, Y: 0, Width: 90, Height: 60}

	a := handlePoint(n, box, "a", domain.HandleSource)
	b := handlePoint(n, box, "b", domain.HandleSource)
	target := handlePoint(n, box, "", domain.HandleTarget)

	assert.Equal(t, domain.XYPosition{X: 30, Y: 0}, a)
	assert.Equal(t, domain.XYPosition{X: 60, Y: 0}, b)
	assert.Equal(t, domain.XYPosition{X: 0, Y: 30}, target)

	group := *domain.NewNode("g", domain.KindGroup, "", domain.XYPosition{})
	assert.Equal(t, box.Center(), handlePoint(group, box, "", domain.HandleSource))
}

func TestCache(t *testing.T) {
	collector := metrics.NewCollector("flowpad_test")
	cache, err := NewCache(newRenderer(t), 2, collector)
	require.NoError(t, err)

	g := domain.DefaultGraph()
	first, err := cache.PNG(g, 1, 200, 100)
	require.NoError(t, err)
	second, err := cache.PNG(g, 1, 200, 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CacheMisses))

	img, err := png.Decode(bytes.NewReader(first))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

	_, err = cache.PNG(g, 2, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.CacheMisses))
	assert.Equal(t, 2, cache.Len())

	_, err = cache.PNG(g, 3, 0, -5)
	assert.ErrorIs(t, err, ErrInvalidSize)
}
