package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/validus/validus-go/bundle"
)

func registerBundle() {
	cmd := &Command{
		Name:        "bundle",
		Description: "Pack, unpack or inspect ruleset bundles",
		FlagSet:     flag.NewFlagSet("bundle", flag.ExitOnError),
	}
	name := cmd.FlagSet.String("name", "", "Bundle name (pack)")
	bundleVersion := cmd.FlagSet.String("version", "", "Bundle version (pack)")
	dir := cmd.FlagSet.String("dir", ".", "Source or target directory")
	file := cmd.FlagSet.String("file", "", "Bundle file")

	cmd.Run = func() error {
		args := cmd.FlagSet.Args()
		if len(args) < 1 {
			return fmt.Errorf("bundle requires a sub-command: pack, unpack or inspect")
		}
		if *file == "" {
			return fmt.Errorf("bundle requires -file")
		}

		switch args[0] {
		case "pack":
			if *name == "" {
				return fmt.Errorf("pack requires -name")
			}
			out, err := os.Create(*file)
			if err != nil {
				return fmt.Errorf("create bundle: %w", err)
			}
			defer out.Close()
			manifest, err := bundle.Pack(*dir, *name, *bundleVersion, out)
			if err != nil {
				return err
			}
			fmt.Printf("packed %s %s: %d file(s)\n", manifest.Name, manifest.Version, len(manifest.Files))
			return nil

		case "unpack":
			in, err := os.Open(*file)
			if err != nil {
				return fmt.Errorf("open bundle: %w", err)
			}
			defer in.Close()
			manifest, err := bundle.Unpack(in, *dir)
			if err != nil {
				return err
			}
			fmt.Printf("unpacked %s %s into %s\n", manifest.Name, manifest.Version, *dir)
			return nil

		case "inspect":
			in, err := os.Open(*file)
			if err != nil {
				return fmt.Errorf("open bundle: %w", err)
			}
			defer in.Close()
			manifest, err := bundle.Inspect(in)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s (created %s)\n", manifest.Name, manifest.Version, manifest.CreatedAt.Format("2006-01-02 15:04:05"))
			for _, entry := range manifest.Files {
				fmt.Printf("  %s  %d bytes  %s\n", entry.Path, entry.Size, entry.SHA256)
			}
			return nil

		default:
			return fmt.Errorf("unknown bundle sub-command %q", args[0])
		}
	}
	register(cmd)
}
