package rules

import (
	"sort"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

type eachEntity string

// EachEntity selects every entity of a section, one target each. A singular
// section yields a single target.
func EachEntity(section string) Selector { return eachEntity(section) }

func (s eachEntity) String() string { return string(s) + "[*]" }

func (s eachEntity) Select(c *Context) []Target {
	entities := c.Doc.Collection(string(s))
	out := make([]Target, 0, len(entities))
	for i := range entities {
		e := entities[i]
		out = append(out, Target{Path: e.Path(), Node: e.Raw, ID: e.ID, Entity: &e})
	}
	return out
}

type wholeCollection string

// WholeCollection selects a section as one target. An absent section yields
// no target.
func WholeCollection(section string) Selector { return wholeCollection(section) }

func (s wholeCollection) String() string { return string(s) }

func (s wholeCollection) Select(c *Context) []Target {
	v, ok := c.Doc.Section(string(s))
	if !ok {
		return nil
	}
	return []Target{{Path: string(s), Node: v}}
}

type componentsOfType string

// ComponentsOfType selects every component of a type.
func ComponentsOfType(t string) Selector { return componentsOfType(t) }

func (s componentsOfType) String() string { return "components[type=" + string(s) + "]" }

func (s componentsOfType) Select(c *Context) []Target {
	comps := c.ComponentsByType(string(s))
	out := make([]Target, 0, len(comps))
	for _, comp := range comps {
		out = append(out, Target{
			Path: diag.IndexPath(gamedef.SectionComponents, comp.Index),
			Node: comp.Raw,
			ID:   comp.ID,
		})
	}
	return out
}

type stringFields struct{}

// StringFields selects every string value in the document together with the
// key that holds it. Strings inside a sequence carry the sequence's key.
func StringFields() Selector { return stringFields{} }

func (stringFields) String() string { return "**" }

func (stringFields) Select(c *Context) []Target {
	var out []Target
	collectStrings(c.Doc.Raw(), "", "", &out)
	return out
}

func collectStrings(node any, key, path string, out *[]Target) {
	switch v := node.(type) {
	case string:
		if key != "" {
			*out = append(*out, Target{Path: path, Node: v, Key: key})
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectStrings(v[k], k, diag.JoinPath(path, k), out)
		}
	case []any:
		for i, item := range v {
			collectStrings(item, key, diag.IndexPath(path, i), out)
		}
	}
}
