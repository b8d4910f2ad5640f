package config

import (
	"bytes"

	"github.com/vango-dev/waypoint/internal/errors"
	"gopkg.in/yaml.v3"
)

// decodeYAML decodes data into cfg and returns the position of every route
// declaration, keyed by full dotted name.
func decodeYAML(data []byte, cfg *Config) (map[string]*errors.Location, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	if err := doc.Content[0].Decode(cfg); err != nil {
		return nil, err
	}

	locations := make(map[string]*errors.Location)
	if routes := mappingValue(doc.Content[0], "routes"); routes != nil {
		collectRoutes(routes, "", locations)
	}
	return locations, nil
}

func collectRoutes(seq *yaml.Node, prefix string, locations map[string]*errors.Location) {
	if seq.Kind != yaml.SequenceNode {
		return
	}
	for _, item := range seq.Content {
		name := mappingValue(item, "name")
		if name == nil {
			continue
		}
		full := name.Value
		if prefix != "" {
			full = prefix + "." + full
		}
		locations[full] = &errors.Location{Line: item.Line, Column: item.Column}
		if children := mappingValue(item, "children"); children != nil {
			collectRoutes(children, full, locations)
		}
	}
}

// mappingValue returns the value node of key in a mapping node.
func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
