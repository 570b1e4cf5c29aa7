package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

func parse(t *testing.T, src string) *gamedef.Document {
	t.Helper()
	doc, err := gamedef.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func run(t *testing.T, e *Engine, src string) []diag.Diagnostic {
	t.Helper()
	ds, err := e.Run(context.Background(), parse(t, src), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return ds
}

func byRule(ds []diag.Diagnostic, rule string) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range ds {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}

func only(names ...string) *Engine {
	var rs []Rule
	for _, r := range Builtin() {
		for _, n := range names {
			if r.Name == n {
				rs = append(rs, r)
			}
		}
	}
	return NewEngine(rs)
}

func TestEndStateOnlyDocumentPasses(t *testing.T) {
	src := `
components:
  - {id: c1, type: end_state, properties: {}}
states:
  - id: s1
    components:
      - $component_ref: c1
`
	ds := run(t, DefaultEngine(), src)
	if got := byRule(ds, RuleOutboundTransition); len(got) != 0 {
		t.Errorf("outbound-transition should pass: %v", got)
	}
	if got := byRule(ds, RuleEndStateExists); len(got) != 0 {
		t.Errorf("end-state-exists should pass: %v", got)
	}
}

func TestStateWithoutTransitionOrEnd(t *testing.T) {
	src := `
states:
  - id: s1
    components: []
`
	ds := run(t, DefaultEngine(), src)

	out := byRule(ds, RuleOutboundTransition)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound-transition diagnostic, got %v", out)
	}
	if out[0].Path != "states[0]" || out[0].Severity != diag.SeverityWarn || out[0].Ref != "s1" {
		t.Errorf("diagnostic = %+v", out[0])
	}

	end := byRule(ds, RuleEndStateExists)
	if len(end) != 1 {
		t.Fatalf("expected exactly one end-state-exists diagnostic, got %v", end)
	}
	if end[0].Path != "states" || end[0].Severity != diag.SeverityWarn {
		t.Errorf("diagnostic = %+v", end[0])
	}
}

func TestOutboundTransition_ScopedPerState(t *testing.T) {
	src := `
components:
  - {id: t1, type: transition, properties: {to: {$state_ref: s2}}}
  - {id: e, type: end_state, properties: {}}
states:
  - {id: s1, components: [{$component_ref: t1}]}
  - {id: s2, components: [{$component_ref: e}]}
  - {id: s3, components: []}
  - {id: s4}
`
	out := byRule(run(t, only(RuleOutboundTransition), src), RuleOutboundTransition)
	if len(out) != 2 || out[0].Path != "states[2]" || out[1].Path != "states[3]" {
		t.Errorf("expected diagnostics for s3 and s4 only, got %v", out)
	}
}

func TestTransitionTrigger(t *testing.T) {
	src := `
components:
  - {id: T1, type: transition, properties: {to: {$state_ref: s1}}}
  - {id: T2, type: transition, properties: {to: {$state_ref: s1}}}
  - id: trig1
    type: transition_trigger
    properties:
      $transition: {$transition_ref: T1}
states:
  - id: s1
    components:
      - $component_ref: T1
      - $component_ref: T2
      - $component_ref: trig1
`
	out := byRule(run(t, only(RuleTransitionTrigger), src), RuleTransitionTrigger)
	if len(out) != 1 {
		t.Fatalf("expected one diagnostic, got %v", out)
	}
	if out[0].Ref != "T2" || !strings.Contains(out[0].Message, "T2") {
		t.Errorf("expected T2 to be reported, got %+v", out[0])
	}
}

func TestTransitionTrigger_OtherStateDoesNotCount(t *testing.T) {
	src := `
components:
  - {id: T1, type: transition, properties: {}}
  - {id: trig1, type: transition_trigger, properties: {$transition: {$transition_ref: T1}}}
states:
  - {id: s1, components: [{$component_ref: T1}]}
  - {id: s2, components: [{$component_ref: trig1}]}
`
	out := byRule(run(t, only(RuleTransitionTrigger), src), RuleTransitionTrigger)
	if len(out) != 1 || out[0].Path != "states[0]" {
		t.Errorf("trigger on another state must not count: %v", out)
	}
}

func TestReferenceRule(t *testing.T) {
	src := `
components:
  - {id: c1, type: end_state, properties: {}}
states:
  - id: s1
    components:
      - $component_ref: c1
      - $component_ref: nope
rounds:
  - id: r1
    start: {$state_ref: c1}
    next: {$state_ref: [s1, zz]}
`
	out := byRule(run(t, only(RuleReferenceExists), src), RuleReferenceExists)
	paths := map[string]bool{}
	for _, d := range out {
		paths[d.Path] = true
		if d.Severity != diag.SeverityError {
			t.Errorf("reference diagnostic should be an error: %+v", d)
		}
	}
	want := []string{
		"states[0].components[1].$component_ref",
		"rounds[0].start.$state_ref",
		"rounds[0].next.$state_ref[1]",
	}
	if len(out) != len(want) {
		t.Fatalf("expected %d diagnostics, got %v", len(want), out)
	}
	for _, p := range want {
		if !paths[p] {
			t.Errorf("missing diagnostic at %s", p)
		}
	}
}

func TestUniqueIDs(t *testing.T) {
	src := `
components:
  - {id: a, type: end_state}
  - {id: b, type: end_state}
  - {id: a, type: transition}
states:
  - {id: s1}
  - {id: s1}
roles:
  - {id: s1}
`
	out := byRule(run(t, only(RuleUniqueIDs), src), RuleUniqueIDs)
	if len(out) != 2 {
		t.Fatalf("expected 2 duplicates, got %v", out)
	}
	if out[0].Path != "components[2]" || !strings.Contains(out[0].Message, "components[0]") {
		t.Errorf("component duplicate = %+v", out[0])
	}
	if out[1].Path != "states[1]" {
		t.Errorf("state duplicate = %+v", out[1])
	}
}

func TestEndStateReachable(t *testing.T) {
	src := `
components:
  - {id: go_b, type: transition, properties: {to: {$state_ref: b}}}
  - {id: go_end, type: transition, properties: {to: {$state_ref: end}}}
  - {id: loop, type: transition, properties: {to: {$state_ref: c}}}
  - {id: fin, type: end_state}
states:
  - {id: a, components: [{$component_ref: go_b}]}
  - {id: b, components: [{$component_ref: go_end}]}
  - {id: c, components: [{$component_ref: loop}]}
  - {id: end, components: [{$component_ref: fin}]}
`
	out := byRule(run(t, only(RuleEndStateReachable), src), RuleEndStateReachable)
	if len(out) != 1 || out[0].Ref != "c" || out[0].Path != "states[2]" {
		t.Errorf("expected only c to be unable to finish, got %v", out)
	}

	noEnd := `
states:
  - {id: a}
`
	if out := run(t, only(RuleEndStateReachable), noEnd); len(out) != 0 {
		t.Errorf("rule should be silent without end states, got %v", out)
	}
}

func TestBuildStateGraph(t *testing.T) {
	src := `
components:
  - {id: t1, type: transition, properties: {to: {$state_ref: s2}}}
  - {id: trig, type: transition_trigger, properties: {$transition: {$transition_ref: t1}}}
  - {id: fin, type: end_state}
states:
  - {id: s1, components: [{$component_ref: t1}, {$component_ref: trig}]}
  - {id: s2, components: [{$component_ref: fin}]}
flow:
  initial_state: {$state_ref: s1}
`
	g := BuildStateGraph(parse(t, src))
	if g.Initial != "s1" {
		t.Errorf("initial = %q", g.Initial)
	}
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %+v", g.Edges)
	}
	e := g.Edges[0]
	if e.From != "s1" || e.To != "s2" || e.Transition != "t1" || !e.Triggered {
		t.Errorf("edge = %+v", e)
	}
	if !g.End["s2"] || g.End["s1"] {
		t.Errorf("end = %v", g.End)
	}
}

func TestEngine_RunsAreIndependent(t *testing.T) {
	e := DefaultEngine()
	first := `
components:
  - {id: c1, type: end_state}
states:
  - {id: s1, components: [{$component_ref: c1}]}
`
	second := `
components:
  - {id: c1, type: transition, properties: {}}
states:
  - {id: s1, components: [{$component_ref: c1}]}
`
	if got := byRule(run(t, e, first), RuleEndStateExists); len(got) != 0 {
		t.Fatalf("first run: %v", got)
	}
	// c1 changes type between runs; no lookup from the first run may leak.
	if got := byRule(run(t, e, second), RuleEndStateExists); len(got) != 1 {
		t.Errorf("second run should see no end state, got %v", got)
	}
}

func TestEngine_WithoutAndWith(t *testing.T) {
	e := DefaultEngine().Without(RuleReferenceExists)
	for _, r := range e.Rules() {
		if r.Name == RuleReferenceExists {
			t.Fatal("rule not removed")
		}
	}
	replaced := e.With(Rule{Name: RuleEndStateExists, Severity: diag.SeverityError, Given: WholeCollection("states"), Check: checkEndStateExists})
	ds := run(t, replaced, "states: [{id: s1}]\n")
	got := byRule(ds, RuleEndStateExists)
	if len(got) != 1 || got[0].Severity != diag.SeverityError {
		t.Errorf("replacement rule not used: %v", got)
	}
	if len(replaced.Rules()) != len(e.Rules()) {
		t.Error("With should replace, not append, a same-named rule")
	}
}
