package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/validus/validus-go/adapters/files"
	"github.com/validus/validus-go/report"
)

func registerWatch() {
	cmd := &Command{
		Name:        "watch",
		Description: "Re-validate whenever the model or ruleset changes",
		FlagSet:     flag.NewFlagSet("watch", flag.ExitOnError),
	}
	modelPath := cmd.FlagSet.String("model", "", "Model file (YAML or JSON)")
	rulesPath := cmd.FlagSet.String("rules", "", "Ruleset file")
	schemaPath := cmd.FlagSet.String("schema", "", "Parameter vocabulary file (optional)")
	workers := cmd.FlagSet.Int("workers", 1, "Evaluation worker count")
	debounce := cmd.FlagSet.Duration("debounce", 250*time.Millisecond, "Settle time after a change")

	cmd.Run = func() error {
		if *modelPath == "" || *rulesPath == "" {
			return fmt.Errorf("watch requires -model and -rules")
		}

		revalidate := func() {
			rep, err := runValidation(*modelPath, *rulesPath, *schemaPath, *workers)
			if err != nil {
				log.Printf("validation error: %v", err)
				return
			}
			if err := report.WriteText(os.Stdout, rep); err != nil {
				log.Printf("write report: %v", err)
			}
		}

		revalidate()

		watcher, err := files.NewWatcher([]string{*modelPath, *rulesPath}, *debounce, func(changed []string) {
			log.Printf("changed: %v", changed)
			revalidate()
		})
		if err != nil {
			return err
		}
		defer watcher.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf("watching %s and %s", *modelPath, *rulesPath)
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
	register(cmd)
}
