// fragmodel generates Go models from GraphQL fragments.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/syssam/fragmodel/compiler"
	"github.com/syssam/fragmodel/compiler/gen"
)

// errDiagnostics is returned in strict mode when generation reported problems.
var errDiagnostics = errors.New("generation reported diagnostics")

type options struct {
	config    string
	schema    string
	fragments string
	target    string
	namespace string
	nesting   string
	maxDepth  int
	scalars   string
	workers   int
	verbose   bool
	watch     bool
	strict    bool
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, `fragmodel - Go models from GraphQL fragments

Usage:
    fragmodel [-c fragmodel.yaml] [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(w, `
Examples:
    # Generate with a config file
    fragmodel -c fragmodel.yaml

    # Generate without a config file
    fragmodel -schema schema.graphql -fragments 'fragments/**/*.graphql' -o models

    # Flatten common models and regenerate on change
    fragmodel -c fragmodel.yaml -nesting mixed -watch

`)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	var o options
	fs := flag.NewFlagSet("fragmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "Config file (YAML/JSON)")
	fs.StringVar(&o.config, "c", "", "Config file (shorthand)")
	fs.StringVar(&o.schema, "schema", "", "Schema files or patterns (comma-separated)")
	fs.StringVar(&o.fragments, "fragments", "", "Fragment files or patterns (comma-separated)")
	fs.StringVar(&o.target, "output", "", "Output directory")
	fs.StringVar(&o.target, "o", "", "Output directory (shorthand)")
	fs.StringVar(&o.namespace, "namespace", "", "Package name of the generated files")
	fs.StringVar(&o.namespace, "n", "", "Package name (shorthand)")
	fs.StringVar(&o.nesting, "nesting", "", "Model placement: nested, flattened or mixed")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "Flatten models nested deeper than this (0: unlimited)")
	fs.StringVar(&o.scalars, "scalars", "", "Scalar mappings, e.g. UUID=github.com/google/uuid.UUID (comma-separated)")
	fs.IntVar(&o.workers, "workers", 0, "Parallel workers (default: GOMAXPROCS)")
	fs.BoolVar(&o.verbose, "v", false, "Verbose output")
	fs.BoolVar(&o.watch, "watch", false, "Regenerate when a document changes")
	fs.BoolVar(&o.strict, "strict", false, "Fail when generation reports diagnostics")
	fs.Usage = usage(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := o.apply(fs, logger)
	if err != nil {
		return err
	}
	load := func() (*gen.Config, error) {
		if o.config == "" {
			return gen.NewConfig(opts...)
		}
		cfg, err := gen.LoadConfig(o.config, opts...)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if len(cfg.Fragments) == 0 {
		return errors.New("no fragment documents: set -fragments or fragments in the config file")
	}
	if err := generate(ctx, cfg, o.strict); err != nil && !o.watch {
		return err
	}
	if !o.watch {
		return nil
	}
	return watch(ctx, cfg, o.config, func() {
		// The config file is re-read so edits to it take effect.
		next, err := load()
		if err != nil {
			logger.Error("reload failed", "error", err)
			return
		}
		cfg = next
		if err := generate(ctx, cfg, o.strict); err != nil {
			logger.Error("generation failed", "error", err)
		}
	})
}

// apply turns the flags that were set into config options.
func (o *options) apply(fs *flag.FlagSet, logger *slog.Logger) ([]gen.Option, error) {
	opts := []gen.Option{gen.WithLogger(logger)}
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "schema":
			opts = append(opts, gen.WithSchemaFiles(split(o.schema)...))
		case "fragments":
			opts = append(opts, gen.WithFragments(split(o.fragments)...))
		case "output", "o":
			opts = append(opts, gen.WithTarget(o.target))
		case "namespace", "n":
			opts = append(opts, gen.WithNamespace(o.namespace))
		case "nesting":
			var p gen.NestingPolicy
			if p, err = gen.ParseNestingPolicy(o.nesting); err == nil {
				opts = append(opts, gen.WithNesting(p))
			}
		case "max-depth":
			opts = append(opts, gen.WithMaxNestedDepth(o.maxDepth))
		case "scalars":
			var m map[string]string
			if m, err = scalars(o.scalars); err == nil {
				opts = append(opts, gen.WithScalars(m))
			}
		case "workers":
			opts = append(opts, gen.WithWorkers(o.workers))
		}
	})
	return opts, err
}

func generate(ctx context.Context, cfg *gen.Config, strict bool) error {
	res, err := compiler.Generate(ctx, cfg)
	if err != nil {
		return err
	}
	if n := len(res.Diagnostics); n > 0 {
		cfg.Log().Warn("generation finished with diagnostics", "count", n)
		if strict {
			return fmt.Errorf("%w: %d", errDiagnostics, n)
		}
	}
	return nil
}

// split splits a comma-separated string into a slice of trimmed strings.
func split(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// scalars parses "Name=go/type.Ident" pairs.
func scalars(s string) (map[string]string, error) {
	m := make(map[string]string)
	for _, pair := range split(s) {
		name, goType, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, gen.NewConfigError("Scalars", pair, "expected Name=Type")
		}
		m[strings.TrimSpace(name)] = strings.TrimSpace(goType)
	}
	return m, nil
}
