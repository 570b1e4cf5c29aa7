package validate

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/rules"
)

func load(t *testing.T, name string) *gamedef.Document {
	t.Helper()
	doc, err := gamedef.LoadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return doc
}

func parse(t *testing.T, src string) *gamedef.Document {
	t.Helper()
	doc, err := gamedef.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func containsMessage(ds []diag.Diagnostic, path, substr string) bool {
	for _, d := range ds {
		if d.Path == path && strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Valid(t *testing.T) {
	r, err := Validate(context.Background(), load(t, "valid.yaml"), Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !r.OK || len(r.Diagnostics) != 0 {
		t.Errorf("expected a clean report, got %+v", r.Diagnostics)
	}
	if len(r.Digest) != 64 {
		t.Errorf("digest = %q", r.Digest)
	}
}

func TestValidate_Broken(t *testing.T) {
	r, err := Validate(context.Background(), load(t, "broken.yaml"), Options{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if r.OK {
		t.Error("broken document reported OK")
	}
	if r.Counts.Errors != 4 || r.Counts.Warnings != 3 {
		t.Errorf("counts = %+v\n%v", r.Counts, r.Diagnostics)
	}

	wantErrors := map[string]string{
		"components[0].properties.to.$state_ref": "racetrack",
		"states[1].components[0].$component_ref": "ghost",
		"actions[0].target":                      "property \"total\"",
		"actions[1].target":                      "runtime property \"elapsed\"",
	}
	for path, msg := range wantErrors {
		if !containsMessage(r.Diagnostics, path, msg) {
			t.Errorf("missing error at %s mentioning %s", path, msg)
		}
	}
	for _, d := range r.Diagnostics {
		if d.Rule == rules.RuleReferenceExists {
			t.Errorf("reference rule should be skipped when the walker runs: %+v", d)
		}
	}
}

func TestValidate_WarningsPolicy(t *testing.T) {
	src := `
components:
  - {id: c1, type: transition, properties: {}}
states:
  - id: s1
    components: []
`
	opts := Options{SkipSchema: true}
	r, err := Validate(context.Background(), parse(t, src), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !r.OK || r.Counts.Warnings == 0 {
		t.Errorf("warnings alone should pass by default: %+v", r)
	}

	opts.Policy = diag.Policy{FailOn: diag.SeverityWarn}
	r, err = Validate(context.Background(), parse(t, src), opts)
	if err != nil {
		t.Fatal(err)
	}
	if r.OK {
		t.Error("warnings should fail with FailOn=warn")
	}
}

func TestValidate_ReferenceRuleWhenWalkerSkipped(t *testing.T) {
	src := `
states:
  - id: s1
    components:
      - $component_ref: nope
`
	r, err := Validate(context.Background(), parse(t, src), Options{SkipSchema: true, SkipReferences: true})
	if err != nil {
		t.Fatal(err)
	}
	var found int
	for _, d := range r.Diagnostics {
		if d.Rule == rules.RuleReferenceExists {
			found++
		}
	}
	if found != 1 {
		t.Errorf("expected the reference rule to report once, got %d: %v", found, r.Diagnostics)
	}
}

func TestValidate_OneDiagnosticPerBadReference(t *testing.T) {
	src := `
states:
  - id: s1
    components:
      - $component_ref: nope
`
	r, err := Validate(context.Background(), parse(t, src), Options{SkipSchema: true, SkipRules: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Validator != "references" {
		t.Errorf("diagnostics = %v", r.Diagnostics)
	}
}

type failingCatalog struct{}

func (failingCatalog) ReferenceTypes(context.Context) ([]string, error) {
	return nil, errors.New("registry unreachable")
}

func (failingCatalog) RuntimeProperties(context.Context, string) ([]registry.PropertyDef, error) {
	return nil, errors.New("registry unreachable")
}

func TestValidate_RegistryFailureIsFatal(t *testing.T) {
	r, err := Validate(context.Background(), load(t, "valid.yaml"), Options{Catalog: failingCatalog{}})
	if err == nil || !strings.Contains(err.Error(), "registry unreachable") {
		t.Fatalf("expected fatal registry error, got %v", err)
	}
	if r == nil || r.OK {
		t.Errorf("report after fatal error must exist and not be OK: %+v", r)
	}
}

// runtimeFailCatalog serves reference types but fails runtime lookups.
type runtimeFailCatalog struct{ *registry.Registry }

func (runtimeFailCatalog) RuntimeProperties(context.Context, string) ([]registry.PropertyDef, error) {
	return nil, errors.New("timeout")
}

func TestValidate_RuntimeLookupFailureIsFatal(t *testing.T) {
	cat := runtimeFailCatalog{registry.Default()}
	r, err := Validate(context.Background(), load(t, "valid.yaml"), Options{Catalog: cat, SkipSchema: true})
	if err == nil || !strings.Contains(err.Error(), "gamedef.references") {
		t.Fatalf("expected references step error, got %v", err)
	}
	if r.OK {
		t.Error("report must not be OK")
	}
}

func TestValidate_Ruleset(t *testing.T) {
	extra, err := rules.ParseRuleset([]byte(`
rules:
  - name: game-has-name
    given: game
    severity: error
    assert: node.name != nil
    message: the game needs a display name
`))
	if err != nil {
		t.Fatal(err)
	}
	src := `
game: {id: g}
states: []
`
	r, err := Validate(context.Background(), parse(t, src), Options{SkipSchema: true, Ruleset: extra})
	if err != nil {
		t.Fatal(err)
	}
	if !containsMessage(r.Diagnostics, "game", "display name") || r.OK {
		t.Errorf("custom rule not applied: %+v", r)
	}
}

func TestDigest(t *testing.T) {
	a := parse(t, "states: [{id: s1}]\ngame: {id: g}\n")
	b := parse(t, "game: {id: g}\nstates: [{id: s1}]\n")
	c := parse(t, "game: {id: h}\nstates: [{id: s1}]\n")
	if Digest(a) != Digest(b) {
		t.Error("key order must not change the digest")
	}
	if Digest(a) == Digest(c) {
		t.Error("different documents share a digest")
	}
}
