package main

import (
	"flag"
	"fmt"

	"github.com/validus/validus-go/query"
)

func registerQuery() {
	cmd := &Command{
		Name:        "query",
		Description: "List entities matching an expression",
		FlagSet:     flag.NewFlagSet("query", flag.ExitOnError),
	}
	modelPath := cmd.FlagSet.String("model", "", "Model file (YAML or JSON)")
	expr := cmd.FlagSet.String("expr", "", "Query expression")

	cmd.Run = func() error {
		if *modelPath == "" || *expr == "" {
			return fmt.Errorf("query requires -model and -expr")
		}
		table, err := loadModel(*modelPath)
		if err != nil {
			return err
		}
		q, err := query.Compile(*expr)
		if err != nil {
			return err
		}
		matches, err := q.Run(table)
		if err != nil {
			return err
		}
		for _, e := range matches {
			fmt.Println(e.String())
		}
		fmt.Printf("%d match(es)\n", len(matches))
		return nil
	}
	register(cmd)
}
