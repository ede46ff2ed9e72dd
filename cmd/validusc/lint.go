package main

import (
	"flag"
	"fmt"

	"github.com/validus/validus-go/lint"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/schema"
)

func registerLint() {
	cmd := &Command{
		Name:        "lint",
		Description: "Check a ruleset for malformed and suspicious clauses",
		FlagSet:     flag.NewFlagSet("lint", flag.ExitOnError),
	}
	rulesPath := cmd.FlagSet.String("rules", "", "Ruleset file")
	schemaPath := cmd.FlagSet.String("schema", "", "Parameter vocabulary file (optional)")

	cmd.Run = func() error {
		if *rulesPath == "" {
			return fmt.Errorf("lint requires -rules")
		}
		issues, err := lintRuleset(*rulesPath, *schemaPath)
		if err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Printf("rule %d: %s: %s: %s\n", issue.Rule, issue.Severity, issue.Code, issue.Message)
		}
		if lint.HasErrors(issues) {
			return errValidationFailed
		}
		fmt.Printf("%d issue(s), no errors\n", len(issues))
		return nil
	}
	register(cmd)
}

func lintRuleset(rulesPath, schemaPath string) ([]lint.Issue, error) {
	rs, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return nil, err
	}
	options := lint.DefaultOptions()
	vocab := schema.Core()
	if schemaPath != "" {
		vocab, err = schema.LoadFile(schemaPath)
		if err != nil {
			return nil, err
		}
	} else {
		options.CheckVocabulary = false
	}
	return lint.LintWithOptions(rs, vocab, options), nil
}
