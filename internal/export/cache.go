package export

import (
	"bytes"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"flowpad/internal/domain"
	"flowpad/internal/metrics"
)

// DefaultCacheSize is the number of encoded images kept when unset
const DefaultCacheSize = 32

type cacheKey struct {
	revision uint64
	width    int
	height   int
}

// Cache memoizes encoded PNGs per (revision, width, height)
type Cache struct {
	renderer *Renderer
	images   *lru.Cache[cacheKey, []byte]
	metrics  *metrics.Collector
}

// NewCache wraps renderer with an LRU of the given size. collector may be nil.
func NewCache(renderer *Renderer, size int, collector *metrics.Collector) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New[cacheKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create export cache: %w", err)
	}
	return &Cache{renderer: renderer, images: images, metrics: collector}, nil
}

// Renderer returns the wrapped renderer
func (c *Cache) Renderer() *Renderer {
	return c.renderer
}

// PNG returns the encoded image of g at revision. Zero sizes use the
// renderer defaults.
func (c *Cache) PNG(g domain.Graph, revision uint64, width, height int) ([]byte, error) {
	width, height, err := c.renderer.Size(width, height)
	if err != nil {
		return nil, err
	}

	key := cacheKey{revision: revision, width: width, height: height}
	if data, ok := c.images.Get(key); ok {
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
		}
		return data, nil
	}
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := c.renderer.Encode(&buf, g, width, height); err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ExportDuration.Observe(time.Since(start).Seconds())
	}

	data := buf.Bytes()
	c.images.Add(key, data)
	return data, nil
}

// Len reports how many images are cached
func (c *Cache) Len() int {
	return c.images.Len()
}
