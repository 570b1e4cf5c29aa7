package refs

import (
	"context"
	"sort"

	"github.com/ormasoftchile/gamedef/pkg/diag"
)

// Walker finds every reference in a document tree and resolves them.
type Walker struct {
	Resolver *Resolver
	// Concurrency bounds parallel resolution. Zero means DefaultConcurrency.
	Concurrency int
}

// Walk visits node and everything below it once, then resolves the
// references found.
func (w *Walker) Walk(ctx context.Context, node any, path string) ([]diag.Diagnostic, error) {
	return w.Resolver.ResolveAll(ctx, Collect(node, path), w.Concurrency)
}

// Collect returns the references under node in a stable order: mapping keys
// are visited sorted, sequences in order.
//
// At each mapping, a "$component_ref" with a sibling property half is one
// paired reference. Every other reference-named key is expanded into one
// task per value. Remaining keys, including "$"-prefixed ones that are not
// reference names, are recursed into.
func Collect(node any, path string) []Reference {
	var out []Reference
	collect(node, path, &out)
	return out
}

func collect(node any, path string, out *[]Reference) {
	switch v := node.(type) {
	case map[string]any:
		pair, paired := PairOf(v)
		if paired {
			kind := PropertyReference
			key := FieldPropertyRef
			if pair.Runtime {
				kind, key = RuntimePropertyReference, FieldRuntimePropertyRef
			}
			*out = append(*out, Reference{Path: path, Field: Field{Key: key, Kind: kind}, Pair: &pair})
		}

		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if paired && (key == FieldComponentRef || key == FieldPropertyRef || key == FieldRuntimePropertyRef) {
				continue
			}
			f := Classify(key)
			child := diag.JoinPath(path, key)
			if f.IsReference() {
				*out = append(*out, collectField(f, v[key], child)...)
				continue
			}
			collect(v[key], child, out)
		}
	case []any:
		for i, item := range v {
			collect(item, diag.IndexPath(path, i), out)
		}
	}
}
