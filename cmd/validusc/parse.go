package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/validus/validus-go/compiler"
	"github.com/validus/validus-go/util"
)

func registerParse() {
	cmd := &Command{
		Name:        "parse",
		Description: "Parse a where clause and dump its AST",
		FlagSet:     flag.NewFlagSet("parse", flag.ExitOnError),
	}
	expr := cmd.FlagSet.String("expr", "", "Where clause to parse")
	attrs := cmd.FlagSet.Bool("attrs", false, "List referenced attributes instead of the AST")

	cmd.Run = func() error {
		if *expr == "" {
			return fmt.Errorf("parse requires -expr")
		}
		comp := compiler.NewCompiler()

		if *attrs {
			compiled, err := comp.Compile(*expr)
			if err != nil {
				return err
			}
			for _, use := range compiled.Attrs {
				if len(use.Collapsed) > 0 {
					fmt.Printf("%s (quantified over %s)\n", use.Name, strings.Join(use.Collapsed, ", "))
					continue
				}
				fmt.Println(use.Name)
			}
			return nil
		}

		parsed, err := comp.Parse(*expr)
		if err != nil {
			return err
		}
		util.NewStdoutASTDumper().Dump(parsed)
		return nil
	}
	register(cmd)
}
