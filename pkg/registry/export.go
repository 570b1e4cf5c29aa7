package registry

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ComponentsSchemaID is the $id of the generated components.yaml schema.
const ComponentsSchemaID = "https://github.com/ormasoftchile/gamedef/schemas/registry-components.json"

// ComponentsFileShape is the decoded form of components.yaml.
type ComponentsFileShape map[string]ComponentEntry

// RegistryJSONSchema produces a JSON Schema for components.yaml from the Go
// registry types using invopop/jsonschema.
func RegistryJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(ComponentsFileShape{})
	s.ID = ComponentsSchemaID
	s.Title = "Game definition component registry"
	s.Description = "Component types, their schemas and declared runtime properties (components.yaml)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal registry schema: %w", err)
	}
	return data, nil
}
