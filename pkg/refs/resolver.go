package refs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/index"
	"github.com/ormasoftchile/gamedef/pkg/registry"
)

// ValidatorName is stamped on every diagnostic this package produces.
const ValidatorName = "references"

// DefaultConcurrency bounds parallel resolution when no limit is given.
const DefaultConcurrency = 8

// RuntimeCatalog supplies declared runtime properties per component type.
// Pass a run-scoped registry.Memo so repeated lookups share one fetch.
type RuntimeCatalog interface {
	RuntimeProperties(ctx context.Context, componentType string) ([]registry.PropertyDef, error)
}

// Reference is one resolution task.
type Reference struct {
	Path  string
	Field Field
	// ID is the referenced id for entity and component references.
	ID string
	// Pair is set for property and runtime-property references.
	Pair *Pair
	// Value holds a value that is neither an id nor a paired reference.
	Value any
}

// Resolver checks references against one run's identity indexes.
type Resolver struct {
	index   *index.Set
	catalog RuntimeCatalog
}

// NewResolver creates a resolver over set. catalog may be nil when no
// runtime-property references are expected; they then fail as undeclared.
func NewResolver(set *index.Set, catalog RuntimeCatalog) *Resolver {
	return &Resolver{index: set, catalog: catalog}
}

// Resolve checks one reference field and returns a diagnostic for every
// value that does not resolve. Non-reference fields and standalone property
// halves yield nothing. The error is non-nil only when the runtime-property
// registry could not be consulted.
func (r *Resolver) Resolve(ctx context.Context, fieldName string, value any, path string) ([]diag.Diagnostic, error) {
	var out []diag.Diagnostic
	for _, ref := range collectField(Classify(fieldName), value, path) {
		ds, err := r.ResolveReference(ctx, ref)
		if err != nil {
			return out, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

// ResolveReference checks a single task.
func (r *Resolver) ResolveReference(ctx context.Context, ref Reference) ([]diag.Diagnostic, error) {
	switch {
	case ref.Pair != nil:
		return r.resolvePair(ctx, *ref.Pair, ref.Path)
	case ref.Value != nil:
		return []diag.Diagnostic{diag.Errorf(ref.Path, "",
			"%s reference must be an id string, got %s", ref.Field.Tag, describe(ref.Value))}, nil
	default:
		if d, ok := r.CheckID(ref.Field.Tag, ref.ID, ref.Path); !ok {
			return []diag.Diagnostic{d}, nil
		}
		return nil, nil
	}
}

// CheckID performs the typed lookup for entity and component references.
// It returns false and a diagnostic when id is not in the index for tag.
func (r *Resolver) CheckID(tag, id, path string) (diag.Diagnostic, bool) {
	if tag == index.ComponentTag {
		if _, ok := r.index.Component(id); ok {
			return diag.Diagnostic{}, true
		}
		return diag.Errorf(path, id, "component %q not found", id), false
	}
	if !r.index.Known(tag) {
		return diag.Errorf(path, id, "reference %q has unknown type %q", id, tag), false
	}
	if _, ok := r.index.Lookup(tag, id); ok {
		return diag.Diagnostic{}, true
	}
	if others := r.index.TagsOf(id); len(others) > 0 {
		return diag.Errorf(path, id, "%s %q not found (%q is a %s)", tag, id, id, strings.Join(others, ", ")), false
	}
	return diag.Errorf(path, id, "%s %q not found", tag, id), false
}

// resolvePair checks the component half first and stops at the first failure.
func (r *Resolver) resolvePair(ctx context.Context, p Pair, path string) ([]diag.Diagnostic, error) {
	if p.Ambiguous {
		return []diag.Diagnostic{diag.Errorf(path, p.ComponentID,
			"reference to component %q sets both %s and %s", p.ComponentID, FieldPropertyRef, FieldRuntimePropertyRef)}, nil
	}
	comp, ok := r.index.Component(p.ComponentID)
	if !ok {
		return []diag.Diagnostic{diag.Errorf(path, p.ComponentID, "component %q not found", p.ComponentID)}, nil
	}

	if !p.Runtime {
		if _, ok := comp.Properties[p.Property]; !ok {
			return []diag.Diagnostic{diag.Errorf(path, p.Property,
				"property %q not found on component %q", p.Property, p.ComponentID)}, nil
		}
		return nil, nil
	}

	var declared []registry.PropertyDef
	if r.catalog != nil {
		props, err := r.catalog.RuntimeProperties(ctx, comp.Type)
		switch {
		case errors.Is(err, registry.ErrUnknownComponentType):
			return []diag.Diagnostic{diag.Errorf(path, p.ComponentID,
				"component %q has unregistered type %q", p.ComponentID, comp.Type)}, nil
		case err != nil:
			return nil, fmt.Errorf("runtime properties of %q: %w", comp.Type, err)
		}
		declared = props
	}
	for _, def := range declared {
		if def.ID == p.Property {
			return nil, nil
		}
	}
	return []diag.Diagnostic{diag.Errorf(path, p.Property,
		"runtime property %q not declared for component type %q", p.Property, comp.Type)}, nil
}

// ResolveAll resolves refs with at most limit concurrent tasks. Diagnostics
// come back in the order of refs. The first registry failure cancels the
// remaining tasks and is returned with the diagnostics gathered so far.
func (r *Resolver) ResolveAll(ctx context.Context, refs []Reference, limit int) ([]diag.Diagnostic, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	results := make([][]diag.Diagnostic, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			ds, err := r.ResolveReference(gctx, ref)
			results[i] = ds
			return err
		})
	}
	err := g.Wait()

	var out []diag.Diagnostic
	for _, ds := range results {
		out = append(out, ds...)
	}
	return diag.WithSource(out, ValidatorName, ""), err
}

// collectField expands a reference field into tasks, one per value.
func collectField(f Field, value any, path string) []Reference {
	if f.Kind != EntityReference && f.Kind != ComponentReference {
		return nil
	}
	seq := gamedef.OneOrManyOf(value)
	out := make([]Reference, 0, seq.Len())
	for i, item := range seq.Items {
		p := path
		if !seq.Single {
			p = diag.IndexPath(path, i)
		}
		switch v := item.(type) {
		case string:
			out = append(out, Reference{Path: p, Field: f, ID: v})
		case map[string]any:
			if pair, ok := PairOf(v); ok {
				out = append(out, Reference{Path: p, Field: f, Pair: &pair})
				continue
			}
			out = append(out, Reference{Path: p, Field: f, Value: v})
		default:
			out = append(out, Reference{Path: p, Field: f, Value: describeNil(v)})
		}
	}
	return out
}

// describeNil keeps a null value distinguishable from "no value" in a
// Reference.
func describeNil(v any) any {
	if v == nil {
		return nullValue{}
	}
	return v
}

type nullValue struct{}

func describe(v any) string {
	switch v.(type) {
	case nullValue:
		return "null"
	case map[string]any:
		return "a mapping"
	case []any:
		return "a sequence"
	case bool:
		return "a boolean"
	case int, int64, float64, uint64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
