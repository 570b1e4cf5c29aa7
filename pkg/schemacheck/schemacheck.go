// Package schemacheck validates the shape of a game definition against the
// JSON Schemas published by a registry.
package schemacheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
)

// ValidatorName is stamped on every diagnostic this package produces.
const ValidatorName = "schema"

// BaseURL is where registry schema files are mounted for $ref resolution, so
// a registry $ref such as "/schemas/references_schema.json" resolves to
// BaseURL + "schemas/references_schema.json".
const BaseURL = "https://registry.gamedef.local/"

// Source is the registry surface the checker needs.
type Source interface {
	registry.SchemaSource
	SchemaFiles(ctx context.Context) ([]string, error)
}

// Required singular sections.
var requiredSections = []string{"flow", "game"}

// Plural sections validated entry by entry against a core schema.
var coreCollections = map[string]string{
	"functions": "function",
	"roles":     "role",
	"rounds":    "round",
}

// Checker compiles registry schemas once and validates documents against
// them. A Checker is safe for concurrent use.
type Checker struct {
	src      Source
	compiler *sjsonschema.Compiler
	printer  *message.Printer

	mu       sync.Mutex
	compiled map[string]*sjsonschema.Schema
}

// New loads every schema file of src plus the document envelope schema.
// An unreadable or malformed schema file is an error.
func New(ctx context.Context, src Source) (*Checker, error) {
	c := sjsonschema.NewCompiler()

	files, err := src.SchemaFiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		data, err := src.ReadSchema(ctx, f)
		if err != nil {
			return nil, err
		}
		if err := addResource(c, BaseURL+f, data); err != nil {
			return nil, err
		}
	}

	envelope, err := gamedef.EnvelopeJSONSchema()
	if err != nil {
		return nil, err
	}
	if err := addResource(c, gamedef.EnvelopeSchemaID, envelope); err != nil {
		return nil, err
	}

	return &Checker{
		src:      src,
		compiler: c,
		printer:  message.NewPrinter(language.English),
		compiled: map[string]*sjsonschema.Schema{},
	}, nil
}

func addResource(c *sjsonschema.Compiler, url string, data []byte) error {
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse schema %s: %w", url, err)
	}
	if err := c.AddResource(url, doc); err != nil {
		return fmt.Errorf("add schema resource %s: %w", url, err)
	}
	return nil
}

// schema compiles url on first use.
func (c *Checker) schema(url string) (*sjsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.compiled[url]; ok {
		return s, nil
	}
	s, err := c.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", url, err)
	}
	c.compiled[url] = s
	return s, nil
}

// Check validates doc. Diagnostics are returned for every shape problem; the
// error is non-nil only when a schema cannot be read or compiled, and then the
// diagnostics gathered so far come with it.
func (c *Checker) Check(ctx context.Context, doc *gamedef.Document) ([]diag.Diagnostic, error) {
	ds, err := c.check(ctx, doc)
	return diag.WithSource(ds, ValidatorName, ""), err
}

func (c *Checker) check(ctx context.Context, doc *gamedef.Document) ([]diag.Diagnostic, error) {
	inst, err := toInstance(doc.Raw())
	if err != nil {
		return nil, err
	}
	root, _ := inst.(map[string]any)

	var out []diag.Diagnostic
	add := func(ds []diag.Diagnostic, err error) error {
		out = append(out, ds...)
		return err
	}

	if err := add(c.validate(gamedef.EnvelopeSchemaID, inst, "")); err != nil {
		return out, err
	}
	for _, section := range requiredSections {
		v, ok := root[section]
		if !ok {
			out = append(out, diag.Errorf(section, "", "a single %s section is required", section))
			continue
		}
		if err := add(c.checkCore(ctx, section, v, section)); err != nil {
			return out, err
		}
	}
	if err := add(c.checkComponents(ctx, root)); err != nil {
		return out, err
	}
	if err := add(c.checkActions(ctx, root)); err != nil {
		return out, err
	}
	for _, section := range sortedKeys(coreCollections) {
		items, ok := root[section].([]any)
		if !ok {
			continue
		}
		for i, item := range items {
			if err := add(c.checkCore(ctx, coreCollections[section], item, diag.IndexPath(section, i))); err != nil {
				return out, err
			}
		}
	}
	return out, nil
}

func (c *Checker) checkCore(ctx context.Context, section string, v any, path string) ([]diag.Diagnostic, error) {
	loc, err := c.src.CoreSchema(ctx, section)
	if errors.Is(err, registry.ErrNoSchema) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.validate(BaseURL+loc, v, path)
}

func (c *Checker) checkComponents(ctx context.Context, root map[string]any) ([]diag.Diagnostic, error) {
	items, _ := root[gamedef.SectionComponents].([]any)
	var out []diag.Diagnostic
	for i, item := range items {
		path := diag.IndexPath(gamedef.SectionComponents, i)
		m, ok := item.(map[string]any)
		if !ok {
			continue // reported by the envelope schema
		}
		typ, _ := m[gamedef.FieldType].(string)
		if typ == "" {
			continue
		}
		loc, err := c.src.ComponentSchema(ctx, typ)
		if errors.Is(err, registry.ErrUnknownComponentType) {
			out = append(out, diag.Errorf(diag.JoinPath(path, gamedef.FieldType), typ, "unknown component type %q", typ))
			continue
		}
		if err != nil {
			return out, err
		}
		ds, err := c.validate(BaseURL+loc, m, path)
		out = append(out, ds...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (c *Checker) checkActions(ctx context.Context, root map[string]any) ([]diag.Diagnostic, error) {
	items, _ := root["actions"].([]any)
	var out []diag.Diagnostic
	for i, item := range items {
		path := diag.IndexPath("actions", i)
		m, ok := item.(map[string]any)
		if !ok {
			out = append(out, diag.Errorf(path, "", "action must be a mapping"))
			continue
		}
		name, _ := m["action"].(string)
		if name == "" {
			out = append(out, diag.Errorf(path, "", "action has no \"action\" field"))
			continue
		}
		loc, err := c.src.ActionSchema(ctx, name)
		if errors.Is(err, registry.ErrUnknownAction) {
			out = append(out, diag.Errorf(diag.JoinPath(path, "action"), name, "unknown action %q", name))
			continue
		}
		if err != nil {
			return out, err
		}
		ds, err := c.validate(BaseURL+loc, m, path)
		out = append(out, ds...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// validate runs one schema over v and converts failures to diagnostics
// rooted at base.
func (c *Checker) validate(url string, v any, base string) ([]diag.Diagnostic, error) {
	s, err := c.schema(url)
	if err != nil {
		return nil, err
	}
	verr := s.Validate(v)
	if verr == nil {
		return nil, nil
	}
	var ve *sjsonschema.ValidationError
	if !errors.As(verr, &ve) {
		return []diag.Diagnostic{diag.Errorf(base, "", "%v", verr)}, nil
	}
	var out []diag.Diagnostic
	for _, cause := range flattenValidationErrors(ve) {
		out = append(out, diag.Errorf(instancePath(base, cause.InstanceLocation), "", "%s",
			cause.ErrorKind.LocalizedString(c.printer)))
	}
	return out, nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// instancePath renders a JSON pointer location as components[3].properties.hp.
func instancePath(base string, loc []string) string {
	p := base
	for _, seg := range loc {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
			p = diag.IndexPath(p, i)
			continue
		}
		p = diag.JoinPath(p, seg)
	}
	return p
}

// toInstance converts a decoded document into the value model the schema
// engine expects (json.Number for numbers, string keys only).
func toInstance(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document for schema validation: %w", err)
	}
	inst, err := sjsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode document for schema validation: %w", err)
	}
	return inst, nil
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
