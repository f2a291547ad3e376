// Package compiler runs the fragmodel pipeline: it parses schema and
// fragment documents, resolves fragment types against the schema and
// generates one Go file per fragment.
//
//	cfg, err := gen.LoadConfig("fragmodel.yaml")
//	if err != nil {
//	    return err
//	}
//	res, err := compiler.Generate(ctx, cfg)
package compiler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/fragmodel/compiler/diag"
	"github.com/syssam/fragmodel/compiler/fragment"
	"github.com/syssam/fragmodel/compiler/gen"
	"github.com/syssam/fragmodel/compiler/load"
	"github.com/syssam/fragmodel/compiler/resolve"
	"github.com/syssam/fragmodel/compiler/schema"
)

// Result is the outcome of a compilation.
type Result struct {
	// Schema is the merged schema, nil when no schema document was given.
	Schema *schema.Schema
	// Fragments holds every parsed fragment.
	Fragments *fragment.Set
	// Outputs holds one generated file per fragment, in fragment order.
	Outputs []*gen.Output
	// Diagnostics holds every non-fatal problem, in report order.
	Diagnostics []error
}

// Err joins the diagnostics of r.
func (r *Result) Err() error {
	return errors.Join(r.Diagnostics...)
}

// Compile reads the documents named by cfg and compiles them. Only an
// unreadable document or an invalid config fails the compilation; every
// other problem is returned in Result.Diagnostics.
func Compile(ctx context.Context, cfg *gen.Config) (*Result, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	schemas, err := load.Documents(cfg.SchemaFiles...)
	if err != nil {
		return nil, err
	}
	frags, err := load.Documents(cfg.Fragments...)
	if err != nil {
		return nil, err
	}
	return CompileDocuments(ctx, cfg, load.Texts(schemas), load.Texts(frags))
}

// CompileDocuments compiles in-memory schema and fragment documents.
func CompileDocuments(ctx context.Context, cfg *gen.Config, schemas, fragments []string) (*Result, error) {
	if cfg == nil {
		var err error
		if cfg, err = gen.NewConfig(); err != nil {
			return nil, err
		}
	}
	r := diag.NewReporter(cfg.Log())
	res := &Result{}

	if len(schemas) > 0 {
		// Syntax errors are collected by the reporter.
		res.Schema, _ = schema.ParseAll(schemas, schema.WithReporter(r))
	}
	var all []*fragment.Fragment
	for _, doc := range fragments {
		frags, _ := fragment.Parse(doc, fragment.WithReporter(r))
		all = append(all, frags...)
	}
	res.Fragments = fragment.NewSet(all...)
	r.Logger().Debug("parsed documents",
		"schemas", len(schemas), "fragments", res.Fragments.Len())

	if cfg.SchemaTypeInference && res.Schema != nil {
		_ = resolve.Enhance(res.Fragments.List(), res.Schema, resolve.WithReporter(r))
	}

	g := gen.NewGenerator(cfg).WithSchema(res.Schema).WithReporter(r)
	list := res.Fragments.List()
	res.Outputs = make([]*gen.Output, len(list))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers(cfg))
	for i, f := range list {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := g.Build(f, res.Fragments)
			if err != nil {
				return err
			}
			res.Outputs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	uniqueFilenames(res.Outputs)
	for _, err := range collisions(res.Outputs) {
		r.Report(err)
	}
	res.Diagnostics = r.Diagnostics()
	return res, nil
}

// Generate compiles the documents named by cfg and writes the generated
// files to cfg.Target.
func Generate(ctx context.Context, cfg *gen.Config) (*Result, error) {
	res, err := Compile(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Write(ctx, cfg, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Write writes the outputs of res to cfg.Target.
func Write(ctx context.Context, cfg *gen.Config, res *Result) error {
	if cfg.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	w := gen.NewWriter(cfg.Target).WithWorkers(workers(cfg))
	if err := w.WriteAll(ctx, res.Outputs); err != nil {
		return err
	}
	m := w.Metrics()
	cfg.Log().Info("generated models",
		"files", m.FilesWritten, "bytes", m.TotalBytes, "target", cfg.Target)
	return nil
}

func workers(cfg *gen.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return 1
}

// uniqueFilenames suffixes file names shared by several outputs, in
// fragment order, so that no two outputs write the same file.
func uniqueFilenames(outs []*gen.Output) {
	seen := make(map[string]bool, len(outs))
	for _, out := range outs {
		name := out.Filename
		base := strings.TrimSuffix(name, ".go")
		for i := 2; seen[name]; i++ {
			name = fmt.Sprintf("%s_%d.go", base, i)
		}
		seen[name] = true
		out.Filename = name
	}
}

// collisions reports model names declared by more than one output. All
// outputs share one Go package, so such names would not compile.
func collisions(outs []*gen.Output) []error {
	owner := make(map[string]string)
	var names []string
	dup := make(map[string][]string)
	for _, out := range outs {
		for _, m := range out.Models {
			first, ok := owner[m]
			if !ok {
				owner[m] = out.Fragment
				continue
			}
			if len(dup[m]) == 0 {
				names = append(names, m)
				dup[m] = []string{first}
			}
			dup[m] = append(dup[m], out.Fragment)
		}
	}
	sort.Strings(names)
	errs := make([]error, 0, len(names))
	for _, m := range names {
		frags := dup[m]
		errs = append(errs, diag.NewGenerationError(frags[len(frags)-1], m, "",
			fmt.Errorf("model %s is also declared by fragment %s", m, frags[0])))
	}
	return errs
}
