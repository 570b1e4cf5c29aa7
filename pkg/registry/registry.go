// Package registry provides the schema catalog consulted during validation:
// the set of referenceable type tags, the component and action registries,
// and the runtime properties each component type declares.
package registry

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Registry file layout inside the registry filesystem.
const (
	ComponentsFile       = "components.yaml"
	ActionsFile          = "actions.yaml"
	ReferencesSchemaFile = "schemas/references_schema.json"
)

// CoreSections are validated against schemas/<section>_schema.json.
var CoreSections = []string{"function", "game", "role", "round", "flow"}

var (
	// ErrUnknownComponentType means the registry has no entry for a component type.
	ErrUnknownComponentType = errors.New("component type not registered")
	// ErrUnknownAction means the registry has no entry for an action.
	ErrUnknownAction = errors.New("action not registered")
	// ErrNoSchema means no core schema exists for a section.
	ErrNoSchema = errors.New("no schema for section")
)

// PropertyDef declares one runtime property of a component type.
type PropertyDef struct {
	ID      string `yaml:"id"                json:"id"`
	Type    any    `yaml:"type"              json:"type"`
	Default any    `yaml:"default,omitempty" json:"default,omitempty"`
}

// ComponentEntry is one component type in components.yaml.
type ComponentEntry struct {
	Schema            string        `yaml:"schema"                       json:"schema"`
	RuntimeProperties []PropertyDef `yaml:"runtime_properties,omitempty" json:"runtime_properties,omitempty"`
}

// ActionEntry is one action in actions.yaml.
type ActionEntry struct {
	Schema string `yaml:"schema" json:"schema"`
}

// Catalog is the lookup surface the reference checks depend on.
type Catalog interface {
	// ReferenceTypes returns every type tag that gets an identity index.
	ReferenceTypes(ctx context.Context) ([]string, error)
	// RuntimeProperties returns the runtime properties declared for a
	// component type. ErrUnknownComponentType means the type is not declared.
	RuntimeProperties(ctx context.Context, componentType string) ([]PropertyDef, error)
}

// SchemaSource is the lookup surface the structural checks depend on.
type SchemaSource interface {
	ComponentSchema(ctx context.Context, componentType string) (string, error)
	ActionSchema(ctx context.Context, action string) (string, error)
	CoreSchema(ctx context.Context, section string) (string, error)
	ReadSchema(ctx context.Context, location string) ([]byte, error)
}

//go:embed defaults
var defaultFS embed.FS

// Registry reads registry files from a filesystem. Files are loaded on first
// use; a Registry is safe for concurrent use.
type Registry struct {
	fsys fs.FS
	name string

	once       sync.Once
	loadErr    error
	components map[string]ComponentEntry
	actions    map[string]ActionEntry
	refTypes   []string
}

// Open creates a registry backed by fsys.
func Open(fsys fs.FS, name string) *Registry {
	return &Registry{fsys: fsys, name: name}
}

// OpenDir creates a registry backed by a directory on disk.
func OpenDir(dir string) *Registry {
	return Open(os.DirFS(dir), dir)
}

// Default returns the registry embedded in the binary.
func Default() *Registry {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		// The embedded tree is fixed at build time.
		panic(err)
	}
	return Open(sub, "<embedded>")
}

// Name describes where the registry was loaded from.
func (r *Registry) Name() string { return r.name }

func (r *Registry) load() error {
	r.once.Do(func() {
		r.loadErr = r.loadFiles()
	})
	return r.loadErr
}

func (r *Registry) loadFiles() error {
	components := map[string]ComponentEntry{}
	if err := readYAML(r.fsys, ComponentsFile, &components); err != nil {
		return err
	}
	actions := map[string]ActionEntry{}
	if err := readYAML(r.fsys, ActionsFile, &actions); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	data, err := fs.ReadFile(r.fsys, ReferencesSchemaFile)
	if err != nil {
		return fmt.Errorf("registry %s: read %s: %w", r.name, ReferencesSchemaFile, err)
	}
	var refs struct {
		Definitions map[string]json.RawMessage `json:"definitions"`
		Defs        map[string]json.RawMessage `json:"$defs"`
	}
	if err := json.Unmarshal(data, &refs); err != nil {
		return fmt.Errorf("registry %s: parse %s: %w", r.name, ReferencesSchemaFile, err)
	}
	defs := refs.Definitions
	if len(defs) == 0 {
		defs = refs.Defs
	}

	r.components = components
	r.actions = actions
	r.refTypes = referenceTypes(defs)
	return nil
}

// referenceTypes derives the type catalog from "<tag>_ref" definition names.
// The property halves of paired references never get an index of their own;
// component always does.
func referenceTypes(defs map[string]json.RawMessage) []string {
	seen := map[string]bool{"component": true}
	for name := range defs {
		tag, ok := strings.CutSuffix(name, "_ref")
		if !ok || tag == "" || tag == "property" || tag == "r_property" {
			continue
		}
		seen[tag] = true
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func readYAML(fsys fs.FS, name string, into any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read registry file %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parse registry file %s: %w", name, err)
	}
	return nil
}

// ReferenceTypes implements Catalog.
func (r *Registry) ReferenceTypes(ctx context.Context) ([]string, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	return append([]string(nil), r.refTypes...), nil
}

// RuntimeProperties implements Catalog.
func (r *Registry) RuntimeProperties(ctx context.Context, componentType string) ([]PropertyDef, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	entry, ok := r.components[componentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponentType, componentType)
	}
	return entry.RuntimeProperties, nil
}

// ComponentTypes returns the registered component type names, sorted.
func (r *Registry) ComponentTypes(ctx context.Context) ([]string, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(r.components))
	for name := range r.components {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ComponentSchema implements SchemaSource.
func (r *Registry) ComponentSchema(ctx context.Context, componentType string) (string, error) {
	if err := r.load(); err != nil {
		return "", err
	}
	entry, ok := r.components[componentType]
	if !ok || entry.Schema == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownComponentType, componentType)
	}
	return cleanLocation(entry.Schema), nil
}

// ActionSchema implements SchemaSource.
func (r *Registry) ActionSchema(ctx context.Context, action string) (string, error) {
	if err := r.load(); err != nil {
		return "", err
	}
	entry, ok := r.actions[action]
	if !ok || entry.Schema == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return cleanLocation(entry.Schema), nil
}

// CoreSchema implements SchemaSource.
func (r *Registry) CoreSchema(ctx context.Context, section string) (string, error) {
	location := "schemas/" + section + "_schema.json"
	if _, err := fs.Stat(r.fsys, location); err != nil {
		return "", fmt.Errorf("%w: %q", ErrNoSchema, section)
	}
	return location, nil
}

// ReadSchema implements SchemaSource.
func (r *Registry) ReadSchema(ctx context.Context, location string) ([]byte, error) {
	data, err := fs.ReadFile(r.fsys, cleanLocation(location))
	if err != nil {
		return nil, fmt.Errorf("registry %s: read schema %s: %w", r.name, location, err)
	}
	return data, nil
}

// SchemaFiles lists every JSON file under schemas/.
func (r *Registry) SchemaFiles(ctx context.Context) ([]string, error) {
	var out []string
	err := fs.WalkDir(r.fsys, "schemas", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(p, ".json") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("registry %s: list schemas: %w", r.name, err)
	}
	sort.Strings(out)
	return out, nil
}

// cleanLocation maps "/schemas/x.json" and "./schemas/x.json" onto the
// registry-relative "schemas/x.json".
func cleanLocation(location string) string {
	return strings.TrimPrefix(path.Clean("/"+location), "/")
}
