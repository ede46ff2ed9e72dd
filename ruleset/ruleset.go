// Package ruleset defines validation rule sets: ordered lists of fail and
// warn rules, each pairing a where clause with a message template.
package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	validus "github.com/validus/validus-go"
)

// Rule pairs a where clause with the message reported when it triggers.
// Rules are immutable after load and discarded only with their set.
type Rule struct {
	Severity validus.Severity `yaml:"-" json:"severity"`
	Where    string           `yaml:"where" json:"where"`
	Message  string           `yaml:"message" json:"message"`
	Index    int              `yaml:"-" json:"index"`
}

// Ruleset is an ordered pair of rule lists. Fail rules mark the dataset
// invalid when triggered; warn rules are advisory only.
type Ruleset struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	Fail    []Rule `yaml:"fail" json:"fail"`
	Warn    []Rule `yaml:"warn" json:"warn"`
}

// Rules returns fail rules then warn rules in declaration order, with
// severities and global indices filled in.
func (rs *Ruleset) Rules() []Rule {
	out := make([]Rule, 0, len(rs.Fail)+len(rs.Warn))
	for i, r := range rs.Fail {
		r.Severity = validus.SeverityFail
		r.Index = i
		out = append(out, r)
	}
	for i, r := range rs.Warn {
		r.Severity = validus.SeverityWarn
		r.Index = len(rs.Fail) + i
		out = append(out, r)
	}
	return out
}

// Len returns the total rule count.
func (rs *Ruleset) Len() int { return len(rs.Fail) + len(rs.Warn) }

// Validate checks structural soundness: every rule needs a where clause and
// a message.
func (rs *Ruleset) Validate() error {
	if err := validateRules("fail", rs.Fail); err != nil {
		return err
	}
	return validateRules("warn", rs.Warn)
}

func validateRules(kind string, rules []Rule) error {
	for i, r := range rules {
		if strings.TrimSpace(r.Where) == "" {
			return fmt.Errorf("%s rule %d: missing where clause", kind, i)
		}
		if strings.TrimSpace(r.Message) == "" {
			return fmt.Errorf("%s rule %d: missing message", kind, i)
		}
	}
	return nil
}

// Load parses and validates a ruleset document.
func Load(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse ruleset: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadFile reads and parses a ruleset file. A set without an explicit name
// takes the file's base name.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	rs, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if rs.Name == "" {
		base := filepath.Base(path)
		rs.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return rs, nil
}
