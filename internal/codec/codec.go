package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"flowpad/internal/domain"
	"flowpad/internal/validation"
)

// ErrUnknownFormat is returned for a document format without a codec
var ErrUnknownFormat = errors.New("unknown document format")

// Importer interface for importing diagram documents from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.GraphFragment, error)
	Format() string
}

// Exporter interface for exporting diagram documents to various formats
type Exporter interface {
	Export(fragment *domain.GraphFragment, w io.Writer) error
	Format() string
}

// Codec reads and writes one document format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for a format name
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// FormatForPath guesses the document format from a file extension,
// defaulting to YAML
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return "json"
	}
	return "yaml"
}

// Decode parses a document and checks that it describes a well-formed
// diagram. Every failure wraps domain.ErrInvalidDocument.
func Decode(c Importer, r io.Reader) (domain.Graph, error) {
	fragment, err := c.Parse(r)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	g := fragment.Graph()
	if err := Validate(g); err != nil {
		return domain.Graph{}, err
	}
	return g, nil
}

// Validate checks struct tags on every element and then the graph's
// structural invariants
func Validate(g domain.Graph) error {
	for i := range g.Nodes {
		if err := validation.Struct(g.Nodes[i]); err != nil {
			return fmt.Errorf("%w: node %d: %v", domain.ErrInvalidDocument, i, err)
		}
	}
	for i := range g.Edges {
		if err := validation.Struct(g.Edges[i]); err != nil {
			return fmt.Errorf("%w: edge %d: %v", domain.ErrInvalidDocument, i, err)
		}
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}
	return nil
}
