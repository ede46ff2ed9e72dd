package report

import (
	"strings"
	"testing"

	validus "github.com/validus/validus-go"
	"github.com/validus/validus-go/eval"
)

func TestRender(t *testing.T) {
	entity := validus.Entity{Tech: "chp", Node: "region1"}
	bindings := eval.Bindings{"flow_cap_max": validus.Number(100)}

	tests := []struct {
		name     string
		template string
		entity   validus.Entity
		expected string
	}{
		{
			name:     "entity placeholders",
			template: "{tech} at {node} is misconfigured",
			entity:   entity,
			expected: "chp at region1 is misconfigured",
		},
		{
			name:     "attribute placeholder",
			template: "{tech}: cap is {flow_cap_max}",
			entity:   entity,
			expected: "chp: cap is 100",
		},
		{
			name:     "no placeholder appends identity",
			template: "capacity without cost",
			entity:   entity,
			expected: "capacity without cost (tech=chp, node=region1)",
		},
		{
			name:     "global entity stays bare",
			template: "planning mode is unset",
			entity:   validus.Global,
			expected: "planning mode is unset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.template, tt.entity, bindings)
			if got != tt.expected {
				t.Errorf("Render(%q) = %q, expected %q", tt.template, got, tt.expected)
			}
		})
	}
}

func TestFormatPartitions(t *testing.T) {
	r := &Report{}
	r.Add(Entry{Severity: validus.SeverityWarn, Message: "advisory"})
	r.Add(Entry{Severity: validus.SeverityFail, Message: "first failure"})
	r.Add(Entry{Severity: validus.SeverityFail, Message: "second failure"})

	lines := Format(r)
	expected := []string{
		"fail: first failure",
		"fail: second failure",
		"warn: advisory",
	}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines, expected %d", len(lines), len(expected))
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d = %q, expected %q", i, lines[i], expected[i])
		}
	}

	if !r.Failed() {
		t.Error("report with fail entries must be failed")
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, expected 3", r.Len())
	}
}

func TestWriteTextSummary(t *testing.T) {
	var sb strings.Builder
	r := &Report{}
	r.Add(Entry{Severity: validus.SeverityWarn, Message: "advisory"})
	if err := WriteText(&sb, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "warn: advisory") {
		t.Errorf("missing entry line in %q", out)
	}
	if !strings.HasSuffix(out, "0 fail, 1 warn: valid\n") {
		t.Errorf("unexpected summary in %q", out)
	}
}
