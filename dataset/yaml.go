package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	validus "github.com/validus/validus-go"
)

// modelDoc is the YAML shape of a model file: global config, an optional
// carrier declaration list, technology definitions and per-node technology
// placements with overrides.
type modelDoc struct {
	Config   map[string]interface{}            `yaml:"config"`
	Carriers []string                          `yaml:"carriers"`
	Techs    map[string]map[string]interface{} `yaml:"techs"`
	Nodes    map[string]nodeDoc                `yaml:"nodes"`
}

type nodeDoc struct {
	Techs map[string]map[string]interface{} `yaml:"techs"`
}

// LoadYAMLFile reads a model file and builds its dataset table.
func LoadYAMLFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	return LoadYAML(data)
}

// LoadYAML builds a dataset table from a YAML model document. Technology
// sections become technology-level defaults; node sections permit
// technologies per node and may override parameters at (tech, node) scope;
// map-valued parameters spread across carriers, checked against the
// top-level carriers list when one is declared. Node keys are expanded
// ("1--3,6" spans and unions).
func LoadYAML(data []byte) (*Table, error) {
	var doc modelDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse model yaml: %w", err)
	}
	return buildModel(&doc)
}

func buildModel(doc *modelDoc) (*Table, error) {
	b := NewBuilder()

	for key, raw := range flattenConfig("", doc.Config) {
		v, ok := validus.ValueOf(raw)
		if !ok {
			return nil, fmt.Errorf("config %s: unsupported value %v", key, raw)
		}
		b.SetConfig(key, v)
	}

	declared := make(map[string]bool, len(doc.Carriers))
	for _, carrier := range doc.Carriers {
		b.AddCarrier(carrier)
		declared[carrier] = true
	}

	for tech, attrs := range doc.Techs {
		b.AddTech(tech)
		for attr, raw := range attrs {
			if err := setTechAttr(b, declared, tech, attr, raw); err != nil {
				return nil, err
			}
		}
	}

	for key, node := range doc.Nodes {
		names, err := ExpandNodeKey(key)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			b.AddNode(name)
			for tech, attrs := range node.Techs {
				b.Allow(name, tech)
				for attr, raw := range attrs {
					if err := setNodeAttr(b, declared, tech, name, attr, raw); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	return b.Build(), nil
}

func setTechAttr(b *Builder, declared map[string]bool, tech, attr string, raw interface{}) error {
	if carriers, ok := carrierMap(raw); ok {
		for carrier, cv := range carriers {
			if len(declared) > 0 && !declared[carrier] {
				return fmt.Errorf("tech %s: %s: unknown carrier %q", tech, attr, carrier)
			}
			v, ok := validus.ValueOf(cv)
			if !ok {
				return fmt.Errorf("tech %s: %s.%s: unsupported value %v", tech, attr, carrier, cv)
			}
			if err := b.Set(validus.Entity{Tech: tech, Carrier: carrier}, attr, v); err != nil {
				return fmt.Errorf("tech %s: %w", tech, err)
			}
		}
		return nil
	}
	v, ok := validus.ValueOf(raw)
	if !ok {
		return fmt.Errorf("tech %s: %s: unsupported value %v", tech, attr, raw)
	}
	b.SetDefault(tech, attr, v)
	return nil
}

func setNodeAttr(b *Builder, declared map[string]bool, tech, node, attr string, raw interface{}) error {
	if carriers, ok := carrierMap(raw); ok {
		for carrier, cv := range carriers {
			if len(declared) > 0 && !declared[carrier] {
				return fmt.Errorf("node %s: %s.%s: unknown carrier %q", node, tech, attr, carrier)
			}
			v, ok := validus.ValueOf(cv)
			if !ok {
				return fmt.Errorf("node %s: %s.%s.%s: unsupported value %v", node, tech, attr, carrier, cv)
			}
			if err := b.Set(validus.Entity{Tech: tech, Node: node, Carrier: carrier}, attr, v); err != nil {
				return fmt.Errorf("node %s: %w", node, err)
			}
		}
		return nil
	}
	v, ok := validus.ValueOf(raw)
	if !ok {
		return fmt.Errorf("node %s: %s.%s: unsupported value %v", node, tech, attr, raw)
	}
	if err := b.Set(validus.Entity{Tech: tech, Node: node}, attr, v); err != nil {
		return fmt.Errorf("node %s: %w", node, err)
	}
	return nil
}

// carrierMap reports whether raw is a per-carrier value map.
func carrierMap(raw interface{}) (map[string]interface{}, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// flattenConfig turns nested config maps into dotted keys, so
// {solver: {name: cbc}} reads as solver.name.
func flattenConfig(prefix string, m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, raw := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := raw.(map[string]interface{}); ok {
			for k, v := range flattenConfig(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = raw
	}
	return out
}
