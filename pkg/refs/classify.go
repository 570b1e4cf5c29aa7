// Package refs classifies reference fields, resolves them against the
// identity indexes and walks a document to find every one of them.
package refs

import (
	"regexp"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

// Kind is the variant of a classified field.
type Kind int

const (
	// Plain is not a reference. Its value is recursed into.
	Plain Kind = iota
	// EntityReference names an entity or a component of a specific type.
	EntityReference
	// ComponentReference names a component of any type.
	ComponentReference
	// PropertyReference is the property half of a paired reference.
	PropertyReference
	// RuntimePropertyReference is the runtime-property half of a paired reference.
	RuntimePropertyReference
)

func (k Kind) String() string {
	switch k {
	case EntityReference:
		return "entity"
	case ComponentReference:
		return "component"
	case PropertyReference:
		return "property"
	case RuntimePropertyReference:
		return "runtime property"
	default:
		return "plain"
	}
}

// Reference field names.
const (
	FieldComponentRef       = gamedef.FieldComponentRef
	FieldPropertyRef        = "$property_ref"
	FieldRuntimePropertyRef = "$r_property_ref"
)

var refPattern = regexp.MustCompile(`^\$(.+)_ref$`)

// Field is a classified mapping key.
type Field struct {
	Key  string
	Kind Kind
	// Tag is the referenced type for EntityReference and ComponentReference.
	Tag string
}

// IsReference reports whether the field is any kind of reference.
func (f Field) IsReference() bool { return f.Kind != Plain }

// Classify parses a mapping key. Keys that start with "$" but do not end in
// "_ref" (such as "$components" or "$transition") are Plain: they hold
// reference-shaped values rather than being references themselves.
func Classify(key string) Field {
	m := refPattern.FindStringSubmatch(key)
	if m == nil {
		return Field{Key: key, Kind: Plain}
	}
	switch tag := m[1]; tag {
	case "component":
		return Field{Key: key, Kind: ComponentReference, Tag: tag}
	case "property":
		return Field{Key: key, Kind: PropertyReference}
	case "r_property":
		return Field{Key: key, Kind: RuntimePropertyReference}
	default:
		return Field{Key: key, Kind: EntityReference, Tag: tag}
	}
}

// Pair is a property or runtime-property reference: a component plus one of
// its property names. Ambiguous is set when the mapping names both a
// property and a runtime property.
type Pair struct {
	ComponentID string
	Property    string
	Runtime     bool
	Ambiguous   bool
}

// PairOf detects a paired reference inside a mapping: "$component_ref" plus
// a sibling "$property_ref" or "$r_property_ref".
func PairOf(m map[string]any) (Pair, bool) {
	compID, hasComp := m[FieldComponentRef]
	if !hasComp {
		return Pair{}, false
	}
	id, _ := compID.(string)
	prop, hasProp := m[FieldPropertyRef]
	rprop, hasRuntime := m[FieldRuntimePropertyRef]
	switch {
	case hasProp && hasRuntime:
		return Pair{ComponentID: id, Ambiguous: true}, true
	case hasProp:
		name, _ := prop.(string)
		return Pair{ComponentID: id, Property: name}, true
	case hasRuntime:
		name, _ := rprop.(string)
		return Pair{ComponentID: id, Property: name, Runtime: true}, true
	}
	return Pair{}, false
}
