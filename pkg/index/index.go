// Package index builds the per-run identity indexes: for every referenceable
// type tag, a mapping from id to the object that defines it.
package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

// ComponentTag is the tag whose index holds every component regardless of type.
const ComponentTag = "component"

// Entry is one indexed object.
type Entry struct {
	ID   string
	Path string
	// Type is the component type; empty for entities.
	Type       string
	Properties map[string]any
	Raw        map[string]any
}

// IsComponent reports whether the entry came from the components section.
func (e Entry) IsComponent() bool { return e.Type != "" }

// TypeCatalog supplies the set of tags to index.
type TypeCatalog interface {
	ReferenceTypes(ctx context.Context) ([]string, error)
}

// Set maps type tag to id to entry. A Set is read-only once built and safe
// for concurrent readers.
type Set struct {
	byTag map[string]map[string]Entry
}

// Build scans doc once for every tag in the catalog. A tag with neither an
// entity collection nor a matching component type gets an empty index. When
// an id repeats inside one index the first definition wins.
func Build(ctx context.Context, doc *gamedef.Document, catalog TypeCatalog) (*Set, error) {
	tags, err := catalog.ReferenceTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reference type catalog: %w", err)
	}
	return BuildTags(doc, tags), nil
}

// BuildTags builds indexes for an explicit tag list.
func BuildTags(doc *gamedef.Document, tags []string) *Set {
	components := doc.Components()
	byType := map[string][]gamedef.Component{}
	for _, c := range components {
		byType[c.Type] = append(byType[c.Type], c)
	}

	s := &Set{byTag: make(map[string]map[string]Entry, len(tags))}
	for _, tag := range tags {
		ids := map[string]Entry{}
		if tag == ComponentTag {
			for _, c := range components {
				addComponent(ids, c)
			}
			s.byTag[tag] = ids
			continue
		}
		for _, e := range doc.Entities(tag) {
			if e.ID == "" {
				continue
			}
			if _, dup := ids[e.ID]; dup {
				continue
			}
			ids[e.ID] = Entry{ID: e.ID, Path: e.Path(), Raw: e.Raw}
		}
		for _, c := range byType[tag] {
			addComponent(ids, c)
		}
		s.byTag[tag] = ids
	}
	return s
}

func addComponent(ids map[string]Entry, c gamedef.Component) {
	if c.ID == "" {
		return
	}
	if _, dup := ids[c.ID]; dup {
		return
	}
	ids[c.ID] = Entry{
		ID:         c.ID,
		Path:       fmt.Sprintf("%s[%d]", gamedef.SectionComponents, c.Index),
		Type:       c.Type,
		Properties: c.Properties,
		Raw:        c.Raw,
	}
}

// Known reports whether tag is part of the catalog this set was built for.
func (s *Set) Known(tag string) bool {
	_, ok := s.byTag[tag]
	return ok
}

// Lookup finds id in the index for tag.
func (s *Set) Lookup(tag, id string) (Entry, bool) {
	e, ok := s.byTag[tag][id]
	return e, ok
}

// Component finds a component of any type by id.
func (s *Set) Component(id string) (Entry, bool) {
	return s.Lookup(ComponentTag, id)
}

// Tags returns the indexed tags, sorted.
func (s *Set) Tags() []string {
	out := make([]string, 0, len(s.byTag))
	for tag := range s.byTag {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// IDs returns the ids indexed under tag, sorted.
func (s *Set) IDs(tag string) []string {
	ids := s.byTag[tag]
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TagsOf returns every tag whose index contains id, sorted.
func (s *Set) TagsOf(id string) []string {
	var out []string
	for _, tag := range s.Tags() {
		if _, ok := s.byTag[tag][id]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// Len returns the number of entries across all indexes.
func (s *Set) Len() int {
	n := 0
	for _, ids := range s.byTag {
		n += len(ids)
	}
	return n
}
