package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/validus/validus-go/analysis"
	"github.com/validus/validus-go/compiler"
	"github.com/validus/validus-go/ruleset"
	"github.com/validus/validus-go/schema"
)

func registerAnalyze() {
	cmd := &Command{
		Name:        "analyze",
		Description: "Build the rule/attribute dependency graph",
		FlagSet:     flag.NewFlagSet("analyze", flag.ExitOnError),
	}
	rulesPath := cmd.FlagSet.String("rules", "", "Ruleset file")
	schemaPath := cmd.FlagSet.String("schema", "", "Parameter vocabulary file (optional)")
	asJSON := cmd.FlagSet.Bool("json", false, "Emit the full graph as JSON")

	cmd.Run = func() error {
		if *rulesPath == "" {
			return fmt.Errorf("analyze requires -rules")
		}
		rs, err := ruleset.LoadFile(*rulesPath)
		if err != nil {
			return err
		}
		var vocab *schema.Vocabulary
		if *schemaPath != "" {
			vocab, err = schema.LoadFile(*schemaPath)
			if err != nil {
				return err
			}
		}

		graph, err := analysis.BuildDependencyGraph(rs, compiler.NewCompiler(), vocab)
		if err != nil {
			return err
		}

		if *asJSON {
			data, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("rules: %d\n", len(graph.Rules))
		fmt.Printf("attributes: %s\n", strings.Join(graph.Attributes, ", "))
		if len(graph.ConfigKeys) > 0 {
			fmt.Printf("config keys: %s\n", strings.Join(graph.ConfigKeys, ", "))
		}
		if len(graph.Dimensions) > 0 {
			fmt.Printf("dimensions: %s\n", strings.Join(graph.Dimensions, ", "))
		}
		for _, edge := range graph.Edges {
			fmt.Printf("  %s -> %s (%s)\n", edge.From, edge.To, edge.Kind)
		}
		if vocab != nil {
			if len(graph.Coverage.UnknownAttributes) > 0 {
				fmt.Printf("unknown attributes: %s\n", strings.Join(graph.Coverage.UnknownAttributes, ", "))
			}
			if len(graph.Coverage.UnusedParameters) > 0 {
				fmt.Printf("unused parameters: %s\n", strings.Join(graph.Coverage.UnusedParameters, ", "))
			}
		}
		return nil
	}
	register(cmd)
}
