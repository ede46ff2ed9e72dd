// Package schema declares the known parameter space of a model: each
// parameter's name, dimensions and value kind. The vocabulary feeds the
// dataset builder and lets lint flag unknown attribute references without a
// dataset at hand.
package schema

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	validus "github.com/validus/validus-go"
)

// Value kinds a parameter may declare.
const (
	KindNumber = "number"
	KindBool   = "bool"
	KindString = "string"
)

// Parameter is one vocabulary entry.
type Parameter struct {
	Name        string   `yaml:"name" json:"name"`
	Dims        []string `yaml:"dims" json:"dims"`
	Kind        string   `yaml:"kind" json:"kind"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
}

// Vocabulary is a registry of declared parameters. It is assembled once and
// read-only afterwards.
type Vocabulary struct {
	params map[string]Parameter
}

// New creates an empty vocabulary.
func New() *Vocabulary {
	return &Vocabulary{params: make(map[string]Parameter)}
}

// Register adds a parameter. Dimensions must be canonical axes; registering
// an existing name replaces it, so user schemas can refine the core set.
func (v *Vocabulary) Register(p Parameter) error {
	if p.Name == "" {
		return fmt.Errorf("parameter without a name")
	}
	for _, dim := range p.Dims {
		switch dim {
		case validus.DimTechs, validus.DimNodes, validus.DimCarriers:
		default:
			return fmt.Errorf("parameter %s: unknown dimension %q", p.Name, dim)
		}
	}
	switch p.Kind {
	case "", KindNumber, KindBool, KindString:
	default:
		return fmt.Errorf("parameter %s: unknown kind %q", p.Name, p.Kind)
	}
	v.params[p.Name] = p
	return nil
}

// Has reports whether name is declared.
func (v *Vocabulary) Has(name string) bool {
	_, ok := v.params[name]
	return ok
}

// Lookup returns the declared parameter.
func (v *Vocabulary) Lookup(name string) (Parameter, bool) {
	p, ok := v.params[name]
	return p, ok
}

// Parameters returns all entries sorted by name.
func (v *Vocabulary) Parameters() []Parameter {
	out := make([]Parameter, 0, len(v.params))
	for _, p := range v.params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Merge copies o's entries over v's, o winning on name clashes.
func (v *Vocabulary) Merge(o *Vocabulary) {
	if o == nil {
		return
	}
	for name, p := range o.params {
		v.params[name] = p
	}
}

// document is the YAML shape of a schema file.
type document struct {
	Parameters []Parameter `yaml:"parameters"`
}

// Load parses a schema document and layers it over the core vocabulary.
func Load(data []byte) (*Vocabulary, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	v := Core()
	for _, p := range doc.Parameters {
		if err := v.Register(p); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	v, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
