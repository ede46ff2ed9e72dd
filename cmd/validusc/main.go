// validusc is the command-line front end: validate models against rulesets,
// inspect and lint where clauses, query entities and manage rule bundles.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
)

// Command is one validusc sub-command.
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func() error
}

var commands = make(map[string]*Command)

// errValidationFailed marks a run whose fail rules triggered: a normal
// outcome that exits 1, as opposed to fatal errors that exit 2.
var errValidationFailed = errors.New("validation failed")

func register(cmd *Command) { commands[cmd.Name] = cmd }

func main() {
	defineCommands()

	flag.Usage = usage
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		usage()
		os.Exit(2)
	}

	cmd.FlagSet.Parse(args[1:])

	if err := cmd.Run(); err != nil {
		if errors.Is(err, errValidationFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: validusc <command> [options]")
	fmt.Fprintln(os.Stderr, "Available commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-10s%s\n", name, commands[name].Description)
	}
}

func defineCommands() {
	registerValidate()
	registerParse()
	registerLint()
	registerAnalyze()
	registerQuery()
	registerWatch()
	registerBundle()
	registerVersion()
}

var version = "dev"

func registerVersion() {
	cmd := &Command{
		Name:        "version",
		Description: "Print build information",
		FlagSet:     flag.NewFlagSet("version", flag.ExitOnError),
	}
	cmd.Run = func() error {
		v := version
		if v == "dev" {
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
				v = info.Main.Version
			}
		}
		fmt.Printf("validusc %s\n", v)
		return nil
	}
	register(cmd)
}
