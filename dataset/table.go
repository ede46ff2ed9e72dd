// Package dataset holds the sparse attribute table the engine validates: a
// (technology, node, carrier) parameter space with explicit absence, a
// node-tech permission matrix and a flat configuration namespace. Tables are
// assembled through a Builder or a loader and are immutable afterwards.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	validus "github.com/validus/validus-go"
)

// canonicalDims is the fixed axis order used for cell keys and dimension
// normalization.
var canonicalDims = []string{validus.DimTechs, validus.DimNodes, validus.DimCarriers}

// Param is one declared parameter: its dimensions and its sparse cells.
type Param struct {
	name     string
	dims     []string
	cells    map[string]validus.Value
	defaults map[string]validus.Value
}

// key builds the cell key for e restricted to the parameter's dimensions.
// ok is false when a required coordinate is unbound.
func (p *Param) key(e validus.Entity) (string, bool) {
	parts := make([]string, 0, len(p.dims))
	for _, dim := range p.dims {
		coord, err := e.Coordinate(dim)
		if err != nil || coord == "" {
			return "", false
		}
		parts = append(parts, coord)
	}
	return strings.Join(parts, ":"), true
}

// Table is an immutable sparse dataset. It implements validus.Dataset.
type Table struct {
	techs    []string
	nodes    []string
	carriers []string
	params   map[string]*Param
	config   map[string]validus.Value
	allowed  map[string]map[string]bool
}

// Get returns the value of attr for e. Resolution is a two-step chain,
// coarse scope filling in for fine: the exact cell at the entity's
// coordinates first, then the technology-level default. A miss on both is
// absence — never zero, never false.
func (t *Table) Get(e validus.Entity, attr string) (validus.Value, bool) {
	p, ok := t.params[attr]
	if !ok {
		return validus.Value{}, false
	}
	if key, ok := p.key(e); ok {
		if v, ok := p.cells[key]; ok {
			return v, true
		}
	}
	if e.Tech != "" {
		if v, ok := p.defaults[e.Tech]; ok {
			return v, true
		}
	}
	return validus.Value{}, false
}

// HasParameter reports whether attr is part of the declared vocabulary.
func (t *Table) HasParameter(attr string) bool {
	_, ok := t.params[attr]
	return ok
}

// ParameterDims returns the declared dimensions of attr, nil if undeclared.
func (t *Table) ParameterDims(attr string) []string {
	p, ok := t.params[attr]
	if !ok {
		return nil
	}
	return append([]string(nil), p.dims...)
}

// Parameters returns the declared parameter names, sorted.
func (t *Table) Parameters() []string {
	names := make([]string, 0, len(t.params))
	for name := range t.params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DimensionValues returns the values along dim applicable to e. With a bound
// technology the node axis narrows to nodes permitting that technology, and
// vice versa; the carrier axis is global.
func (t *Table) DimensionValues(e validus.Entity, dim string) ([]string, error) {
	switch dim {
	case validus.DimTechs:
		if e.Node != "" {
			return t.permittedTechs(e.Node), nil
		}
		return append([]string(nil), t.techs...), nil
	case validus.DimNodes:
		if e.Tech != "" {
			return t.permittedNodes(e.Tech), nil
		}
		return append([]string(nil), t.nodes...), nil
	case validus.DimCarriers:
		return append([]string(nil), t.carriers...), nil
	}
	return nil, fmt.Errorf("unknown dimension %q", dim)
}

// Config returns the configuration value for a dotted key.
func (t *Table) Config(key string) (validus.Value, bool) {
	v, ok := t.config[key]
	return v, ok
}

// Entities enumerates the addressable instances over the given dimensions in
// deterministic order: sorted technologies, then nodes, then carriers,
// restricted by the permission matrix. Dimensions outside the canonical
// three are ignored. An empty dims yields the single global entity.
func (t *Table) Entities(dims []string) []validus.Entity {
	wantTech := containsDim(dims, validus.DimTechs)
	wantNode := containsDim(dims, validus.DimNodes)
	wantCarrier := containsDim(dims, validus.DimCarriers)
	if !wantTech && !wantNode && !wantCarrier {
		return []validus.Entity{validus.Global}
	}

	techList := []string{""}
	if wantTech {
		techList = t.techs
	}
	nodeList := []string{""}
	if wantNode {
		nodeList = t.nodes
	}
	carrierList := []string{""}
	if wantCarrier {
		carrierList = t.carriers
	}

	var out []validus.Entity
	for _, tech := range techList {
		for _, node := range nodeList {
			if tech != "" && node != "" && !t.permitted(node, tech) {
				continue
			}
			for _, carrier := range carrierList {
				out = append(out, validus.Entity{Tech: tech, Node: node, Carrier: carrier})
			}
		}
	}
	return out
}

// permitted reports whether tech may exist at node. An empty matrix permits
// every combination.
func (t *Table) permitted(node, tech string) bool {
	if len(t.allowed) == 0 {
		return true
	}
	return t.allowed[node][tech]
}

func (t *Table) permittedTechs(node string) []string {
	out := make([]string, 0, len(t.techs))
	for _, tech := range t.techs {
		if t.permitted(node, tech) {
			out = append(out, tech)
		}
	}
	return out
}

func (t *Table) permittedNodes(tech string) []string {
	out := make([]string, 0, len(t.nodes))
	for _, node := range t.nodes {
		if t.permitted(node, tech) {
			out = append(out, node)
		}
	}
	return out
}

func containsDim(dims []string, dim string) bool {
	for _, d := range dims {
		if d == dim {
			return true
		}
	}
	return false
}
