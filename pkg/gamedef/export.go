package gamedef

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// EnvelopeSchemaID is the $id of the generated document envelope schema.
const EnvelopeSchemaID = "https://github.com/ormasoftchile/gamedef/schemas/gamedef-envelope.json"

// Envelope describes the document shape every game definition shares. Section
// bodies are validated separately against registry schemas; the envelope only
// pins down what the reference checks rely on.
type Envelope struct {
	Includes   []string         `json:"includes,omitempty"   jsonschema:"description=Additional documents merged into this one"`
	Components []ComponentShape `json:"components,omitempty" jsonschema:"description=Reusable typed property bags"`
	States     []EntityShape    `json:"states,omitempty"     jsonschema:"description=Game states; transitions and end states are attached as components"`
	Roles      []EntityShape    `json:"roles,omitempty"`
	Game       map[string]any   `json:"game,omitempty"       jsonschema:"description=The single game section"`
	Flow       map[string]any   `json:"flow,omitempty"       jsonschema:"description=The single flow section"`
}

// ComponentShape is the envelope view of a component.
type ComponentShape struct {
	ID         string         `json:"id"   jsonschema:"minLength=1"`
	Type       string         `json:"type" jsonschema:"minLength=1"`
	Properties map[string]any `json:"properties,omitempty"`
}

// EntityShape is the envelope view of an entity.
type EntityShape struct {
	ID         string              `json:"id" jsonschema:"minLength=1"`
	Components []ComponentRefShape `json:"components,omitempty"`
}

// ComponentRefShape is the envelope view of an entity's component reference.
type ComponentRefShape struct {
	ComponentRef string `json:"$component_ref" jsonschema:"minLength=1"`
}

// EnvelopeJSONSchema reflects the Envelope type into a JSON Schema document.
// Unknown sections and fields are allowed.
func EnvelopeJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{AllowAdditionalProperties: true}
	s := r.Reflect(&Envelope{})
	s.ID = EnvelopeSchemaID
	s.Title = "Game definition envelope"
	s.Description = "Top-level shape of a merged game definition document"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal envelope schema: %w", err)
	}
	return data, nil
}
