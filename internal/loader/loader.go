// Package loader reads and writes diagram documents on disk and reloads the
// live diagram from its seed file.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"flowpad/internal/codec"
	"flowpad/internal/domain"
	"flowpad/internal/service"
)

// BuiltinSeed names the compiled-in seed in logs
const BuiltinSeed = "(built-in)"

// Replacer swaps the live diagram
type Replacer interface {
	Replace(g domain.Graph, reason string) (service.Snapshot, error)
}

// LoadFile decodes a JSON or YAML document, picking the codec by extension
func LoadFile(path string) (domain.Graph, error) {
	c, err := codec.ForFormat(codec.FormatForPath(path))
	if err != nil {
		return domain.Graph{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("open diagram: %w", err)
	}
	defer f.Close()

	g, err := codec.Decode(c, f)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("load %s: %w", path, err)
	}
	return g, nil
}

// SaveFile writes g as a document, picking the codec by extension. The file
// is replaced atomically.
func SaveFile(path string, g domain.Graph) error {
	c, err := codec.ForFormat(codec.FormatForPath(path))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fragment := domain.GraphFragment{Nodes: g.Nodes, Edges: g.Edges}
	if err := c.Export(&fragment, &buf); err != nil {
		return fmt.Errorf("encode diagram: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".flowpad-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write diagram: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write diagram: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Seed returns the initial diagram: the document at path, or the built-in
// dataset when path is empty
func Seed(path string, logger *zap.Logger) (domain.Graph, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		g := domain.DefaultGraph()
		logger.Info("loaded seed", zap.String("path", BuiltinSeed),
			zap.Int("nodes", len(g.Nodes)), zap.Int("edges", len(g.Edges)))
		return g, nil
	}

	g, err := LoadFile(path)
	if err != nil {
		return domain.Graph{}, err
	}
	logger.Info("loaded seed", zap.String("path", path),
		zap.Int("nodes", len(g.Nodes)), zap.Int("edges", len(g.Edges)))
	return g, nil
}

// Reload reads path and installs it into target. A document that fails to
// load leaves the live diagram untouched.
func Reload(path string, target Replacer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	g, err := LoadFile(path)
	if err != nil {
		logger.Warn("seed reload failed", zap.String("path", path), zap.Error(err))
		return err
	}
	snap, err := target.Replace(g, "seed_reload")
	if err != nil {
		logger.Warn("seed reload rejected", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Info("seed reloaded", zap.String("path", path), zap.Uint64("revision", snap.Revision))
	return nil
}
