// Package validate runs the structural, reference and rule checks over a
// merged game definition and aggregates their diagnostics into a report.
package validate

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/index"
	"github.com/ormasoftchile/gamedef/pkg/refs"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/schemacheck"
	"github.com/ormasoftchile/gamedef/pkg/telemetry"
)

var tracer = otel.Tracer("github.com/ormasoftchile/gamedef/pkg/validate")

// Options configures a validation run. The zero value runs every check
// against the embedded registry with the built-in rules.
type Options struct {
	// Catalog supplies reference types and runtime properties. Nil means
	// registry.Default().
	Catalog registry.Catalog
	// Schemas supplies structural schemas. Nil means Catalog, when it
	// implements schemacheck.Source.
	Schemas schemacheck.Source
	// Checker reuses a compiled schema checker across runs.
	Checker *schemacheck.Checker
	// Engine replaces the built-in rule engine.
	Engine *rules.Engine
	// Ruleset adds rules to the engine, replacing same-named ones.
	Ruleset []rules.Rule

	SkipSchema     bool
	SkipReferences bool
	SkipRules      bool

	Policy diag.Policy
	// Concurrency bounds parallel reference resolution. Zero means
	// refs.DefaultConcurrency.
	Concurrency int
	Logger      *slog.Logger
}

// Report is the outcome of a validation run.
type Report struct {
	OK          bool              `json:"ok"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Counts      diag.Counts       `json:"counts"`
	// Digest fingerprints the merged document.
	Digest   string        `json:"digest"`
	Duration time.Duration `json:"duration_ns"`
}

// Validate checks doc. Diagnostics never make Validate return an error; a
// non-nil error means a registry or schema could not be consulted, and the
// returned report then holds whatever was gathered before the failure and is
// never OK.
func Validate(ctx context.Context, doc *gamedef.Document, opts Options) (*Report, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = registry.Default()
	}

	ctx, span := tracer.Start(ctx, "gamedef.validate")
	defer span.End()

	report := &Report{Digest: Digest(doc)}
	span.SetAttributes(attribute.String("gamedef.digest", report.Digest))

	memo := registry.NewMemo(catalog, logger)
	set, err := index.Build(ctx, doc, memo)
	if err != nil {
		return finish(report, opts.Policy, start, span, nil, err)
	}
	logger.Debug("indexes built", "tags", len(set.Tags()), "entries", set.Len())

	var schemaDS, refDS, ruleDS []diag.Diagnostic
	g, gctx := errgroup.WithContext(ctx)

	if !opts.SkipSchema {
		g.Go(func() error {
			ds, err := runStep(gctx, logger, "gamedef.schema", func(ctx context.Context) ([]diag.Diagnostic, error) {
				checker, err := schemaChecker(ctx, opts, catalog)
				if err != nil {
					return nil, err
				}
				return checker.Check(ctx, doc)
			})
			schemaDS = ds
			return err
		})
	}
	if !opts.SkipReferences {
		g.Go(func() error {
			ds, err := runStep(gctx, logger, "gamedef.references", func(ctx context.Context) ([]diag.Diagnostic, error) {
				w := &refs.Walker{Resolver: refs.NewResolver(set, memo), Concurrency: opts.Concurrency}
				return w.Walk(ctx, doc.Raw(), "")
			})
			refDS = ds
			return err
		})
	}
	if !opts.SkipRules {
		g.Go(func() error {
			ds, err := runStep(gctx, logger, "gamedef.rules", func(ctx context.Context) ([]diag.Diagnostic, error) {
				return ruleEngine(opts, logger).Run(ctx, doc, set)
			})
			ruleDS = ds
			return err
		})
	}
	err = g.Wait()

	var all []diag.Diagnostic
	all = append(all, schemaDS...)
	all = append(all, refDS...)
	all = append(all, ruleDS...)
	return finish(report, opts.Policy, start, span, all, err)
}

func finish(r *Report, policy diag.Policy, start time.Time, span trace.Span, ds []diag.Diagnostic, err error) (*Report, error) {
	diag.Sort(ds)
	r.Diagnostics = ds
	if r.Diagnostics == nil {
		r.Diagnostics = []diag.Diagnostic{}
	}
	r.Counts = diag.Count(ds)
	r.OK = err == nil && policy.OK(ds)
	r.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Bool("gamedef.ok", r.OK),
		attribute.Int("gamedef.errors", r.Counts.Errors),
		attribute.Int("gamedef.warnings", r.Counts.Warnings),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return r, err
}

// runStep runs one validator inside its own span.
func runStep(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context) ([]diag.Diagnostic, error)) ([]diag.Diagnostic, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	ds, err := fn(ctx)
	counts := diag.Count(ds)
	span.SetAttributes(
		attribute.Int("gamedef.errors", counts.Errors),
		attribute.Int("gamedef.warnings", counts.Warnings),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("validator failed", "validator", name, "error", err)
		return ds, fmt.Errorf("%s: %w", name, err)
	}
	logger.Info("validator finished", "validator", name,
		"errors", counts.Errors, "warnings", counts.Warnings, "duration", time.Since(start))
	return ds, nil
}

func schemaChecker(ctx context.Context, opts Options, catalog registry.Catalog) (*schemacheck.Checker, error) {
	if opts.Checker != nil {
		return opts.Checker, nil
	}
	src := opts.Schemas
	if src == nil {
		s, ok := catalog.(schemacheck.Source)
		if !ok {
			return nil, fmt.Errorf("catalog %T provides no schemas", catalog)
		}
		src = s
	}
	return schemacheck.New(ctx, src)
}

func ruleEngine(opts Options, logger *slog.Logger) *rules.Engine {
	e := opts.Engine
	if e == nil {
		e = rules.DefaultEngine(rules.WithLogger(logger))
	}
	if len(opts.Ruleset) > 0 {
		e = e.With(opts.Ruleset...)
	}
	if !opts.SkipReferences {
		// The walker already reports every unresolved id reference.
		e = e.Without(rules.RuleReferenceExists)
	}
	return e
}

// Digest returns the BLAKE3 hash of the document's canonical JSON encoding.
func Digest(doc *gamedef.Document) string {
	data, err := json.Marshal(doc.Raw())
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
