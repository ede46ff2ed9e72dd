package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/validus/validus-go/dataset"
	"github.com/validus/validus-go/engine"
	"github.com/validus/validus-go/lint"
	"github.com/validus/validus-go/report"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/schema"
)

func registerValidate() {
	cmd := &Command{
		Name:        "validate",
		Description: "Validate a model against a ruleset",
		FlagSet:     flag.NewFlagSet("validate", flag.ExitOnError),
	}
	modelPath := cmd.FlagSet.String("model", "", "Model file (YAML or JSON)")
	rulesPath := cmd.FlagSet.String("rules", "", "Ruleset file")
	schemaPath := cmd.FlagSet.String("schema", "", "Parameter vocabulary file (optional)")
	workers := cmd.FlagSet.Int("workers", 1, "Evaluation worker count")
	format := cmd.FlagSet.String("format", "text", "Output format: text or json")

	cmd.Run = func() error {
		if *modelPath == "" || *rulesPath == "" {
			return fmt.Errorf("validate requires -model and -rules")
		}

		rep, err := runValidation(*modelPath, *rulesPath, *schemaPath, *workers)
		if err != nil {
			return err
		}

		switch *format {
		case "json":
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		case "text":
			if err := report.WriteText(os.Stdout, rep); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q", *format)
		}

		if rep.Failed() {
			return errValidationFailed
		}
		return nil
	}
	register(cmd)
}

// runValidation loads the model and ruleset and runs the engine. A schema,
// when given, gates the run on error-free lint results.
func runValidation(modelPath, rulesPath, schemaPath string, workers int) (*report.Report, error) {
	table, err := loadModel(modelPath)
	if err != nil {
		return nil, err
	}
	rs, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return nil, err
	}

	if schemaPath != "" {
		vocab, err := schema.LoadFile(schemaPath)
		if err != nil {
			return nil, err
		}
		issues := lint.Lint(rs, vocab)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "lint: rule %d: %s: %s\n", issue.Rule, issue.Code, issue.Message)
		}
		if lint.HasErrors(issues) {
			return nil, fmt.Errorf("ruleset has lint errors")
		}
	}

	eng := engine.New(engine.WithWorkers(workers))
	return eng.Run(context.Background(), rs, table)
}

func loadModel(path string) (*dataset.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	if isJSONPath(path) {
		return dataset.LoadJSON(data)
	}
	return dataset.LoadYAML(data)
}

func isJSONPath(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".json"
}
