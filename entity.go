package validus

import (
	"fmt"
	"strings"
)

// Canonical dimension names of the dataset axes.
const (
	DimTechs    = "techs"
	DimNodes    = "nodes"
	DimCarriers = "carriers"
)

// Entity addresses one (technology, node, carrier) combination in the
// dataset. Unbound coordinates are empty; a rule's inferred scope determines
// which coordinates are bound. Entities are immutable values.
type Entity struct {
	Tech    string `json:"tech,omitempty" yaml:"tech,omitempty"`
	Node    string `json:"node,omitempty" yaml:"node,omitempty"`
	Carrier string `json:"carrier,omitempty" yaml:"carrier,omitempty"`
}

// Global is the unbound entity used for rules that reference only
// configuration keys.
var Global = Entity{}

// Key returns the canonical identity of the entity's coordinate tuple.
func (e Entity) Key() string {
	return fmt.Sprintf("%s:%s:%s", e.Tech, e.Node, e.Carrier)
}

// Coordinate returns the entity's value along the named dimension.
func (e Entity) Coordinate(dim string) (string, error) {
	switch dim {
	case DimTechs:
		return e.Tech, nil
	case DimNodes:
		return e.Node, nil
	case DimCarriers:
		return e.Carrier, nil
	}
	return "", fmt.Errorf("unknown dimension %q", dim)
}

// With returns a copy of e with the named dimension bound to val, leaving the
// other coordinates fixed.
func (e Entity) With(dim, val string) (Entity, error) {
	switch dim {
	case DimTechs:
		e.Tech = val
	case DimNodes:
		e.Node = val
	case DimCarriers:
		e.Carrier = val
	default:
		return e, fmt.Errorf("unknown dimension %q", dim)
	}
	return e, nil
}

// String renders the bound coordinates for diagnostics, e.g.
// "tech=chp, node=region1".
func (e Entity) String() string {
	parts := make([]string, 0, 3)
	if e.Tech != "" {
		parts = append(parts, "tech="+e.Tech)
	}
	if e.Node != "" {
		parts = append(parts, "node="+e.Node)
	}
	if e.Carrier != "" {
		parts = append(parts, "carrier="+e.Carrier)
	}
	if len(parts) == 0 {
		return "global"
	}
	return strings.Join(parts, ", ")
}
