// Package rules evaluates semantic rules over a game definition. A rule pairs
// a selector, which picks the target nodes, with a check that returns zero or
// more diagnostics per target.
package rules

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/index"
)

// ValidatorName is stamped on every diagnostic this package produces.
const ValidatorName = "rules"

// Target is one node selected for a rule.
type Target struct {
	Path string
	// Node is the raw value: an entity mapping, a whole collection, or a
	// string field.
	Node any
	// ID is the entity or component id, when the target has one.
	ID string
	// Key is the field name for string-field targets.
	Key string
	// Entity is set when the target is an entity.
	Entity *gamedef.Entity
}

// Selector picks the targets of a rule.
type Selector interface {
	Select(c *Context) []Target
	String() string
}

// CheckFunc evaluates a rule on one target. It must not mutate the document.
type CheckFunc func(c *Context, t Target) []diag.Diagnostic

// Rule is a named semantic check.
type Rule struct {
	Name        string
	Description string
	Severity    diag.Severity
	Given       Selector
	Check       CheckFunc
}

// Engine runs a fixed set of rules. An Engine holds no per-run state and
// may be shared across concurrent runs.
type Engine struct {
	rules       []Rule
	logger      *slog.Logger
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds how many rules run at once.
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// NewEngine creates an engine over rules.
func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:  append([]Rule(nil), rules...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the registered rules, sorted by name.
func (e *Engine) Rules() []Rule {
	out := append([]Rule(nil), e.rules...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Without returns a copy of the engine with the named rules removed.
func (e *Engine) Without(names ...string) *Engine {
	drop := map[string]bool{}
	for _, n := range names {
		drop[n] = true
	}
	kept := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		if !drop[r.Name] {
			kept = append(kept, r)
		}
	}
	return &Engine{rules: kept, logger: e.logger, concurrency: e.concurrency}
}

// With returns a copy of the engine with extra rules appended. A rule whose
// name is already registered replaces the existing one.
func (e *Engine) With(extra ...Rule) *Engine {
	byName := map[string]int{}
	rules := append([]Rule(nil), e.rules...)
	for i, r := range rules {
		byName[r.Name] = i
	}
	for _, r := range extra {
		if i, ok := byName[r.Name]; ok {
			rules[i] = r
			continue
		}
		byName[r.Name] = len(rules)
		rules = append(rules, r)
	}
	return &Engine{rules: rules, logger: e.logger, concurrency: e.concurrency}
}

// Run evaluates every rule once against doc. set may be nil. Diagnostics
// are grouped by rule in registration order; each carries the rule's name
// and severity. The error is non-nil only if ctx is cancelled.
func (e *Engine) Run(ctx context.Context, doc *gamedef.Document, set *index.Set) ([]diag.Diagnostic, error) {
	rc := NewContext(doc, set)
	results := make([][]diag.Diagnostic, len(e.rules))

	g, gctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, r := range e.rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			results[i] = e.runRule(rc, r)
			e.logger.Debug("rule evaluated",
				"rule", r.Name, "given", fmt.Sprint(r.Given),
				"diagnostics", len(results[i]), "duration", time.Since(start))
			return nil
		})
	}
	err := g.Wait()

	var out []diag.Diagnostic
	for _, ds := range results {
		out = append(out, ds...)
	}
	return out, err
}

func (e *Engine) runRule(rc *Context, r Rule) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, t := range r.Given.Select(rc) {
		ds := r.Check(rc, t)
		for i := range ds {
			ds[i].Severity = r.Severity
			ds[i].Rule = r.Name
			ds[i].Validator = ValidatorName
			if ds[i].Path == "" {
				ds[i].Path = t.Path
			}
		}
		out = append(out, ds...)
	}
	return out
}
