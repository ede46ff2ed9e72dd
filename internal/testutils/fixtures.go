// Package testutils provides model and ruleset fixtures shared by the CLI
// and daemon tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
)

// ModelYAML is a small two-node model. supply_tech carries a base_tech and
// an unbounded source; transmission_tech at region1 has no base_tech.
const ModelYAML = `
config:
  mode: plan
  solver:
    name: cbc
techs:
  supply_tech:
    base_tech: supply
    flow_cap_max: 100
    source_use_equals: .inf
    flow_out_eff:
      electricity: 0.9
  transmission_tech:
    one_way: true
nodes:
  region1:
    techs:
      supply_tech: {}
      transmission_tech: {}
  region2:
    techs:
      supply_tech:
        flow_cap_max: 50
`

// RulesetYAML exercises one fail and one warn rule against ModelYAML: the
// fail triggers for transmission_tech at region1, the warn for supply_tech
// at both nodes.
const RulesetYAML = `
name: sanity
version: 1.0.0
fail:
  - where: not base_tech
    message: "{tech} has no base technology"
warn:
  - where: source_use_equals = inf
    message: "unbounded source use"
`

// CleanRulesetYAML triggers nothing against ModelYAML.
const CleanRulesetYAML = `
name: clean
fail:
  - where: flow_cap_max > 1000
    message: "implausible capacity"
`

// WriteModel writes ModelYAML into dir and returns its path.
func WriteModel(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "model.yaml", ModelYAML)
}

// WriteRuleset writes RulesetYAML into dir and returns its path.
func WriteRuleset(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "rules.yaml", RulesetYAML)
}

// WriteCleanRuleset writes CleanRulesetYAML into dir and returns its path.
func WriteCleanRuleset(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "clean.yaml", CleanRulesetYAML)
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
