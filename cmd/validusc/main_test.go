package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/validus/validus-go/internal/testutils"
	"github.com/validus/validus-go/lint"
)

func TestRunValidation(t *testing.T) {
	dir := t.TempDir()
	model := testutils.WriteModel(t, dir)
	rules := testutils.WriteRuleset(t, dir)

	rep, err := runValidation(model, rules, "", 2)
	if err != nil {
		t.Fatalf("runValidation: %v", err)
	}
	if !rep.Failed() {
		t.Fatalf("expected fail rules to trigger")
	}
	if len(rep.Fail) != 1 {
		t.Fatalf("expected 1 fail entry, got %d", len(rep.Fail))
	}
	if len(rep.Warn) != 2 {
		t.Fatalf("expected 2 warn entries, got %d", len(rep.Warn))
	}
	if rep.Fail[0].Message != "transmission_tech has no base technology" {
		t.Fatalf("unexpected fail message: %q", rep.Fail[0].Message)
	}
}

func TestRunValidationClean(t *testing.T) {
	dir := t.TempDir()
	model := testutils.WriteModel(t, dir)
	rules := testutils.WriteCleanRuleset(t, dir)

	rep, err := runValidation(model, rules, "", 1)
	if err != nil {
		t.Fatalf("runValidation: %v", err)
	}
	if rep.Failed() || rep.Len() != 0 {
		t.Fatalf("expected empty report, got %d entries", rep.Len())
	}
}

func TestRunValidationBadWhere(t *testing.T) {
	dir := t.TempDir()
	model := testutils.WriteModel(t, dir)
	rules := filepath.Join(dir, "broken.yaml")
	body := "fail:\n  - where: \"flow_cap_max >\"\n    message: broken\n"
	if err := os.WriteFile(rules, []byte(body), 0o644); err != nil {
		t.Fatalf("write ruleset: %v", err)
	}

	if _, err := runValidation(model, rules, "", 1); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestLintRuleset(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	body := `
fail:
  - where: "unknown_param > 0"
    message: "check"
  - where: "flow_cap_max < inf"
    message: "inf ordering never holds"
`
	if err := os.WriteFile(rules, []byte(body), 0o644); err != nil {
		t.Fatalf("write ruleset: %v", err)
	}

	issues, err := lintRuleset(rules, "")
	if err != nil {
		t.Fatalf("lintRuleset: %v", err)
	}
	foundInf := false
	for _, issue := range issues {
		if issue.Code == lint.CodeInfOrdering {
			foundInf = true
		}
		if issue.Code == lint.CodeUnknownAttribute {
			t.Fatalf("vocabulary check should be off without -schema")
		}
	}
	if !foundInf {
		t.Fatalf("expected inf-ordering issue, got %+v", issues)
	}
	if lint.HasErrors(issues) {
		t.Fatalf("expected warnings only, got %+v", issues)
	}
}
