package index

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

const doc = `
components:
  - id: c1
    type: end_state
    properties: {}
  - id: t1
    type: transition
    properties:
      to: {$state_ref: s2}
  - id: t1
    type: transition
    properties: {}
states:
  - id: s1
    components:
      - $component_ref: t1
  - id: s2
    components:
      - $component_ref: c1
game:
  id: chess
`

type staticCatalog []string

func (c staticCatalog) ReferenceTypes(context.Context) ([]string, error) { return c, nil }

func mustParse(t *testing.T, src string) *gamedef.Document {
	t.Helper()
	d, err := gamedef.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestBuild(t *testing.T) {
	d := mustParse(t, doc)
	set, err := Build(context.Background(), d, staticCatalog{"component", "state", "transition", "end_state", "role", "game"})
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Join(set.IDs("component"), ","); got != "c1,t1" {
		t.Errorf("component ids = %s", got)
	}
	if got := strings.Join(set.IDs("state"), ","); got != "s1,s2" {
		t.Errorf("state ids = %s", got)
	}
	if got := strings.Join(set.IDs("transition"), ","); got != "t1" {
		t.Errorf("transition ids = %s", got)
	}
	if got := set.IDs("role"); len(got) != 0 || !set.Known("role") {
		t.Errorf("role index should exist and be empty, got %v", got)
	}
	if _, ok := set.Lookup("game", "chess"); !ok {
		t.Error("singular game section not indexed")
	}

	t1, ok := set.Component("t1")
	if !ok {
		t.Fatal("t1 missing")
	}
	if t1.Path != "components[1]" || !t1.IsComponent() {
		t.Errorf("first definition should win, got %+v", t1)
	}

	s2, _ := set.Lookup("state", "s2")
	if s2.Path != "states[1]" || s2.IsComponent() {
		t.Errorf("s2 = %+v", s2)
	}

	// A component appears under its type and under the generic tag.
	if got := strings.Join(set.TagsOf("c1"), ","); got != "component,end_state" {
		t.Errorf("TagsOf(c1) = %s", got)
	}
	if set.Known("weather") {
		t.Error("uncatalogued tag should be unknown")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	d := mustParse(t, doc)
	tags := staticCatalog{"component", "state", "transition", "end_state"}
	a, err := Build(context.Background(), d, tags)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(context.Background(), d, tags)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two builds over the same document differ")
	}
}

func TestBuild_DoesNotMutate(t *testing.T) {
	d := mustParse(t, doc)
	before := len(d.Raw())
	BuildTags(d, []string{"component", "state"})
	if len(d.Raw()) != before {
		t.Error("build mutated the document")
	}
}

type failingCatalog struct{}

func (failingCatalog) ReferenceTypes(context.Context) ([]string, error) {
	return nil, errors.New("registry unreachable")
}

func TestBuild_CatalogError(t *testing.T) {
	_, err := Build(context.Background(), mustParse(t, doc), failingCatalog{})
	if err == nil || !strings.Contains(err.Error(), "registry unreachable") {
		t.Fatalf("expected catalog error, got %v", err)
	}
}
