package gamedef

import (
	"sort"
)

// Document is a merged game definition. It is immutable once built: callers
// must not mutate the map returned by Raw.
type Document struct {
	raw map[string]any
}

// New wraps an already-decoded top-level mapping.
func New(raw map[string]any) *Document {
	if raw == nil {
		raw = map[string]any{}
	}
	return &Document{raw: raw}
}

// Raw returns the underlying mapping.
func (d *Document) Raw() map[string]any { return d.raw }

// Sections returns the top-level section names, sorted.
func (d *Document) Sections() []string {
	out := make([]string, 0, len(d.raw))
	for k := range d.raw {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Section returns a top-level value.
func (d *Document) Section(name string) (any, bool) {
	v, ok := d.raw[name]
	return v, ok
}

// Includes returns the include list of the document.
func (d *Document) Includes() []string {
	var out []string
	for _, item := range OneOrManyOf(d.raw[SectionIncludes]).Items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Components returns the components section in document order. Entries
// that are not mappings are skipped.
func (d *Document) Components() []Component {
	var out []Component
	for i, item := range OneOrManyOf(d.raw[SectionComponents]).Items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, componentFromMap(m, i))
	}
	return out
}

// CollectionFor returns the section that holds entities of the given type
// tag: "<tag>s" when present, otherwise "<tag>" itself when it is a declared
// singular section.
func (d *Document) CollectionFor(tag string) (string, bool) {
	plural := tag + "s"
	if _, ok := d.raw[plural]; ok {
		return plural, true
	}
	if SectionShape(tag) == ShapeSingular {
		if _, ok := d.raw[tag]; ok {
			return tag, true
		}
	}
	return "", false
}

// Collection returns the entities of a named section, normalizing a single
// mapping to a one-element collection.
func (d *Document) Collection(section string) []Entity {
	seq := OneOrManyOf(d.raw[section])
	var out []Entity
	for i, item := range seq.Items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		index := i
		if seq.Single {
			index = -1
		}
		out = append(out, entityFromMap(section, m, index))
	}
	return out
}

// Entities returns the entities for a type tag (see CollectionFor).
func (d *Document) Entities(tag string) []Entity {
	section, ok := d.CollectionFor(tag)
	if !ok {
		return nil
	}
	return d.Collection(section)
}

// EntitySections returns every top-level section, other than components and
// includes, whose value is a mapping or a sequence containing mappings.
func (d *Document) EntitySections() []string {
	var out []string
	for _, name := range d.Sections() {
		if name == SectionComponents || name == SectionIncludes {
			continue
		}
		for _, item := range OneOrManyOf(d.raw[name]).Items {
			if _, ok := item.(map[string]any); ok {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
