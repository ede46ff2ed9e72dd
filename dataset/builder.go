package dataset

import (
	"fmt"
	"sort"
	"strings"

	validus "github.com/validus/validus-go"
)

// Builder assembles a Table. It is not safe for concurrent use; Build
// freezes the result and the builder must not be touched afterwards.
type Builder struct {
	table *Table
	seen  map[string]map[string]bool
}

// NewBuilder creates an empty dataset builder.
func NewBuilder() *Builder {
	return &Builder{
		table: &Table{
			params:  make(map[string]*Param),
			config:  make(map[string]validus.Value),
			allowed: make(map[string]map[string]bool),
		},
		seen: map[string]map[string]bool{
			validus.DimTechs:    {},
			validus.DimNodes:    {},
			validus.DimCarriers: {},
		},
	}
}

// AddTech registers a technology name.
func (b *Builder) AddTech(name string) { b.addDimValue(validus.DimTechs, name) }

// AddNode registers a node name.
func (b *Builder) AddNode(name string) { b.addDimValue(validus.DimNodes, name) }

// AddCarrier registers a carrier name.
func (b *Builder) AddCarrier(name string) { b.addDimValue(validus.DimCarriers, name) }

func (b *Builder) addDimValue(dim, name string) {
	if name == "" || b.seen[dim][name] {
		return
	}
	b.seen[dim][name] = true
	switch dim {
	case validus.DimTechs:
		b.table.techs = append(b.table.techs, name)
	case validus.DimNodes:
		b.table.nodes = append(b.table.nodes, name)
	case validus.DimCarriers:
		b.table.carriers = append(b.table.carriers, name)
	}
}

// Allow marks tech as permitted at node, registering both names. Once any
// pair is allowed the matrix is restrictive: unlisted pairs do not exist.
func (b *Builder) Allow(node, tech string) {
	b.AddNode(node)
	b.AddTech(tech)
	row, ok := b.table.allowed[node]
	if !ok {
		row = make(map[string]bool)
		b.table.allowed[node] = row
	}
	row[tech] = true
}

// Declare adds a parameter to the vocabulary with explicit dimensions.
// Re-declaring with the same dimensions is a no-op.
func (b *Builder) Declare(name string, dims ...string) error {
	norm, err := normalizeDims(dims)
	if err != nil {
		return fmt.Errorf("declare %s: %w", name, err)
	}
	if p, ok := b.table.params[name]; ok {
		if len(p.cells) == 0 && len(p.defaults) == 0 {
			p.dims = norm
			return nil
		}
		return nil
	}
	b.table.params[name] = &Param{
		name:     name,
		dims:     norm,
		cells:    make(map[string]validus.Value),
		defaults: make(map[string]validus.Value),
	}
	return nil
}

// SetDefault stores a technology-level value for the parameter, the coarse
// scope that Get falls back to when no finer cell exists.
func (b *Builder) SetDefault(tech, name string, v validus.Value) {
	b.AddTech(tech)
	p := b.param(name, []string{validus.DimTechs})
	p.defaults[tech] = v
}

// Set stores a cell at the entity's bound coordinates. An undeclared
// parameter is declared with the entity's bound dimensions. Dimensions widen
// only while the parameter has no cells, so loaders must write coarse scopes
// before fine ones; once cells exist, the entity must bind exactly the
// declared dimensions — a looser binding has no coordinate for a required
// axis and a tighter one would collapse distinct cells onto one key.
func (b *Builder) Set(e validus.Entity, name string, v validus.Value) error {
	b.AddTech(e.Tech)
	b.AddNode(e.Node)
	b.AddCarrier(e.Carrier)

	bound := boundDims(e)
	p, ok := b.table.params[name]
	if !ok {
		p = &Param{
			name:     name,
			dims:     bound,
			cells:    make(map[string]validus.Value),
			defaults: make(map[string]validus.Value),
		}
		b.table.params[name] = p
	}
	dims := p.dims
	if len(p.cells) == 0 {
		dims = unionDims(dims, bound)
	}
	if !equalDims(dims, bound) {
		return fmt.Errorf("set %s: cell binds (%s), parameter is scoped (%s)",
			name, strings.Join(bound, ", "), strings.Join(p.dims, ", "))
	}
	p.dims = dims
	key, _ := p.key(e)
	p.cells[key] = v
	return nil
}

// SetConfig stores a global configuration value under a dotted key.
func (b *Builder) SetConfig(key string, v validus.Value) {
	b.table.config[key] = v
}

// Build sorts the dimension registries and returns the finished table. The
// builder must not be used afterwards.
func (b *Builder) Build() *Table {
	sort.Strings(b.table.techs)
	sort.Strings(b.table.nodes)
	sort.Strings(b.table.carriers)
	t := b.table
	b.table = nil
	return t
}

func (b *Builder) param(name string, dims []string) *Param {
	p, ok := b.table.params[name]
	if !ok {
		p = &Param{
			name:     name,
			dims:     dims,
			cells:    make(map[string]validus.Value),
			defaults: make(map[string]validus.Value),
		}
		b.table.params[name] = p
		return p
	}
	if len(p.cells) == 0 {
		p.dims = unionDims(p.dims, dims)
	}
	return p
}

// boundDims returns the canonical dimension list for the entity's bound
// coordinates.
func boundDims(e validus.Entity) []string {
	var dims []string
	if e.Tech != "" {
		dims = append(dims, validus.DimTechs)
	}
	if e.Node != "" {
		dims = append(dims, validus.DimNodes)
	}
	if e.Carrier != "" {
		dims = append(dims, validus.DimCarriers)
	}
	return dims
}

func normalizeDims(dims []string) ([]string, error) {
	var out []string
	for _, canonical := range canonicalDims {
		for _, dim := range dims {
			if dim == canonical {
				out = append(out, canonical)
				break
			}
		}
	}
	for _, dim := range dims {
		if !containsDim(canonicalDims, dim) {
			return nil, fmt.Errorf("unknown dimension %q", dim)
		}
	}
	return out, nil
}

// equalDims compares canonical-ordered dimension lists.
func equalDims(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func unionDims(a, b []string) []string {
	var out []string
	for _, canonical := range canonicalDims {
		if containsDim(a, canonical) || containsDim(b, canonical) {
			out = append(out, canonical)
		}
	}
	return out
}
