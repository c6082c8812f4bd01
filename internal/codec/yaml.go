package codec

import (
	"fmt"
	"io"

	"flowpad/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML diagram documents
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlFragment represents the YAML structure for diagram data
type yamlFragment struct {
	Nodes []yamlNode `yaml:"nodes"`
	Edges []yamlEdge `yaml:"edges"`
}

type yamlPosition struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type yamlNode struct {
	ID         string            `yaml:"id"`
	Type       string            `yaml:"type"`
	Position   yamlPosition      `yaml:"position"`
	Data       map[string]any    `yaml:"data,omitempty"`
	Style      map[string]string `yaml:"style,omitempty"`
	ParentNode string            `yaml:"parentNode,omitempty"`
	Extent     string            `yaml:"extent,omitempty"`
	Width      float64           `yaml:"width,omitempty"`
	Height     float64           `yaml:"height,omitempty"`
}

type yamlEdge struct {
	ID           string            `yaml:"id"`
	Source       string            `yaml:"source"`
	Target       string            `yaml:"target"`
	SourceHandle string            `yaml:"sourceHandle,omitempty"`
	TargetHandle string            `yaml:"targetHandle,omitempty"`
	Type         string            `yaml:"type,omitempty"`
	Animated     bool              `yaml:"animated,omitempty"`
	Style        map[string]string `yaml:"style,omitempty"`
}

// Parse imports a diagram document from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.GraphFragment, error) {
	var yf yamlFragment
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fragment := domain.NewGraphFragment()

	for _, yn := range yf.Nodes {
		node := domain.Node{
			ID:         yn.ID,
			Type:       domain.NodeKind(yn.Type),
			Position:   domain.XYPosition{X: yn.Position.X, Y: yn.Position.Y},
			Data:       yn.Data,
			Style:      yn.Style,
			ParentNode: yn.ParentNode,
			Extent:     yn.Extent,
			Width:      yn.Width,
			Height:     yn.Height,
		}
		if node.Data == nil {
			node.Data = map[string]any{"label": nil}
		}
		fragment.AddNode(node)
	}

	for _, ye := range yf.Edges {
		fragment.AddEdge(domain.Edge{
			ID:           ye.ID,
			Source:       ye.Source,
			Target:       ye.Target,
			SourceHandle: ye.SourceHandle,
			TargetHandle: ye.TargetHandle,
			Type:         domain.EdgeKind(ye.Type),
			Animated:     ye.Animated,
			Style:        ye.Style,
		})
	}

	return fragment, nil
}

// Export exports a diagram document to YAML
func (c *YAMLCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	yf := yamlFragment{
		Nodes: make([]yamlNode, 0, len(fragment.Nodes)),
		Edges: make([]yamlEdge, 0, len(fragment.Edges)),
	}

	for _, node := range fragment.Nodes {
		yf.Nodes = append(yf.Nodes, yamlNode{
			ID:         node.ID,
			Type:       string(node.Type),
			Position:   yamlPosition{X: node.Position.X, Y: node.Position.Y},
			Data:       node.Data,
			Style:      node.Style,
			ParentNode: node.ParentNode,
			Extent:     node.Extent,
			Width:      node.Width,
			Height:     node.Height,
		})
	}

	for _, edge := range fragment.Edges {
		yf.Edges = append(yf.Edges, yamlEdge{
			ID:           edge.ID,
			Source:       edge.Source,
			Target:       edge.Target,
			SourceHandle: edge.SourceHandle,
			TargetHandle: edge.TargetHandle,
			Type:         string(edge.Type),
			Animated:     edge.Animated,
			Style:        edge.Style,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
