// Package gamedef defines the merged game definition document: components,
// entity collections and the reference fields that tie them together.
package gamedef

import (
	"sort"
	"strconv"
)

// Well-known section and field names.
const (
	SectionComponents = "components"
	SectionIncludes   = "includes"

	FieldID            = "id"
	FieldType          = "type"
	FieldProperties    = "properties"
	FieldComponents    = "components"
	FieldComponentsOld = "$components"
	FieldComponentRef  = "$component_ref"
)

// Shape says whether a top-level section holds one object or a sequence.
type Shape int

const (
	ShapePlural Shape = iota
	ShapeSingular
)

// singularSections lists the sections authored as a single mapping rather
// than a sequence. Every other entity section is plural.
var singularSections = map[string]bool{
	"game": true,
	"flow": true,
}

// SectionShape returns the declared shape of a top-level section.
func SectionShape(section string) Shape {
	if singularSections[section] {
		return ShapeSingular
	}
	return ShapePlural
}

// SingularSections returns the declared singular section names, sorted.
func SingularSections() []string {
	out := make([]string, 0, len(singularSections))
	for name := range singularSections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// OneOrMany is a value authored either as a single item or as a sequence,
// normalized to a sequence.
type OneOrMany[T any] struct {
	Items  []T
	Single bool
}

// Len returns the number of items.
func (o OneOrMany[T]) Len() int { return len(o.Items) }

// OneOrManyOf normalizes v. A nil value yields an empty sequence.
func OneOrManyOf(v any) OneOrMany[any] {
	switch val := v.(type) {
	case nil:
		return OneOrMany[any]{}
	case []any:
		return OneOrMany[any]{Items: val}
	default:
		return OneOrMany[any]{Items: []any{val}, Single: true}
	}
}

// Component is a typed, reusable property bag.
type Component struct {
	ID         string
	Type       string
	Properties map[string]any
	// Index is the position inside the components section.
	Index int
	Raw   map[string]any
}

// HasProperty reports whether name is a key of the component's properties.
func (c *Component) HasProperty(name string) bool {
	if c == nil || c.Properties == nil {
		return false
	}
	_, ok := c.Properties[name]
	return ok
}

// ComponentRef points from an entity to a component.
type ComponentRef struct {
	ComponentID string
	Index       int
}

// Entity is a named object in an entity collection (states, roles, ...).
type Entity struct {
	ID         string
	Collection string
	Components []ComponentRef
	// Index is the position inside the collection, or -1 when the
	// collection was authored as a single mapping.
	Index int
	Raw   map[string]any
}

// Path returns the entity's location inside the document.
func (e *Entity) Path() string {
	if e.Index < 0 {
		return e.Collection
	}
	return e.Collection + "[" + strconv.Itoa(e.Index) + "]"
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func componentFromMap(m map[string]any, index int) Component {
	props, _ := m[FieldProperties].(map[string]any)
	return Component{
		ID:         stringField(m, FieldID),
		Type:       stringField(m, FieldType),
		Properties: props,
		Index:      index,
		Raw:        m,
	}
}

func entityFromMap(collection string, m map[string]any, index int) Entity {
	e := Entity{
		ID:         stringField(m, FieldID),
		Collection: collection,
		Index:      index,
		Raw:        m,
	}
	refs, ok := m[FieldComponents]
	if !ok {
		refs = m[FieldComponentsOld]
	}
	for i, item := range OneOrManyOf(refs).Items {
		ref, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := ref[FieldComponentRef].(string)
		e.Components = append(e.Components, ComponentRef{ComponentID: id, Index: i})
	}
	return e
}

// EntityOf reads a free-standing entity mapping that is not part of a
// collection.
func EntityOf(m map[string]any) Entity {
	return entityFromMap("", m, -1)
}
