package rules

import (
	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/refs"
)

// Built-in rule names.
const (
	RuleOutboundTransition = "outbound-transition-or-end"
	RuleEndStateExists     = "end-state-exists"
	RuleTransitionTrigger  = "transition-has-trigger"
	RuleReferenceExists    = "reference-exists-and-correctly-typed"
	RuleUniqueIDs          = "unique-ids"
	RuleEndStateReachable  = "end-state-reachable"
)

const statesSection = "states"

// Builtin returns the built-in rules.
func Builtin() []Rule {
	return []Rule{
		{
			Name:        RuleReferenceExists,
			Description: "Every reference field names an existing object of the referenced type.",
			Severity:    diag.SeverityError,
			Given:       StringFields(),
			Check:       checkReference,
		},
		{
			Name:        RuleOutboundTransition,
			Description: "Each state has an outbound transition or an end_state component.",
			Severity:    diag.SeverityWarn,
			Given:       EachEntity(statesSection),
			Check:       checkOutboundTransition,
		},
		{
			Name:        RuleEndStateExists,
			Description: "At least one state has an end_state component.",
			Severity:    diag.SeverityWarn,
			Given:       WholeCollection(statesSection),
			Check:       checkEndStateExists,
		},
		{
			Name:        RuleTransitionTrigger,
			Description: "Each transition on a state has a transition_trigger on the same state.",
			Severity:    diag.SeverityWarn,
			Given:       EachEntity(statesSection),
			Check:       checkTransitionTrigger,
		},
		{
			Name:        RuleUniqueIDs,
			Description: "Ids are unique among components and within each entity collection.",
			Severity:    diag.SeverityError,
			Given:       idCollections{},
			Check:       checkUniqueIDs,
		},
		{
			Name:        RuleEndStateReachable,
			Description: "An end state is reachable from every state.",
			Severity:    diag.SeverityWarn,
			Given:       WholeCollection(statesSection),
			Check:       checkEndStateReachable,
		},
	}
}

// DefaultEngine returns an engine with the built-in rules.
func DefaultEngine(opts ...Option) *Engine {
	return NewEngine(Builtin(), opts...)
}

func checkReference(c *Context, t Target) []diag.Diagnostic {
	f := refs.Classify(t.Key)
	if f.Kind != refs.EntityReference && f.Kind != refs.ComponentReference {
		return nil
	}
	id, _ := t.Node.(string)
	if d, ok := c.Resolver().CheckID(f.Tag, id, t.Path); !ok {
		d.Message = "invalid reference: " + d.Message
		return []diag.Diagnostic{d}
	}
	return nil
}

func checkOutboundTransition(c *Context, t Target) []diag.Diagnostic {
	if c.HasComponentOfType(*t.Entity, TypeTransition) || c.HasComponentOfType(*t.Entity, TypeEndState) {
		return nil
	}
	return []diag.Diagnostic{diag.Warnf(t.Path, t.ID,
		"state %q has no outbound transition and no end_state component; play could never leave it", t.ID)}
}

func checkEndStateExists(c *Context, t Target) []diag.Diagnostic {
	for _, s := range c.Doc.Collection(statesSection) {
		if c.HasComponentOfType(s, TypeEndState) {
			return nil
		}
	}
	return []diag.Diagnostic{diag.Warnf(t.Path, "",
		"no state has an end_state component; the game could never end")}
}

func checkTransitionTrigger(c *Context, t Target) []diag.Diagnostic {
	triggered := triggeredTransitions(c, *t.Entity)
	var out []diag.Diagnostic
	for _, tr := range c.ComponentsOfType(*t.Entity, TypeTransition) {
		if triggered[tr.ID] {
			continue
		}
		out = append(out, diag.Warnf(t.Path, tr.ID,
			"no trigger found for transition %q on state %q", tr.ID, t.ID))
	}
	return out
}

func checkEndStateReachable(c *Context, t Target) []diag.Diagnostic {
	g := stateGraph(c)
	if len(g.End) == 0 {
		return nil
	}
	reach := g.CanReachEnd()
	var out []diag.Diagnostic
	for _, s := range g.States {
		if s.ID == "" || reach[s.ID] {
			continue
		}
		out = append(out, diag.Warnf(s.Path(), s.ID, "no end state is reachable from state %q", s.ID))
	}
	return out
}

// idCollections selects the components section and every plural entity
// section.
type idCollections struct{}

func (idCollections) String() string { return "components, <section>[*]" }

func (idCollections) Select(c *Context) []Target {
	var out []Target
	for _, name := range c.Doc.Sections() {
		if name == gamedef.SectionIncludes {
			continue
		}
		v, _ := c.Doc.Section(name)
		if _, ok := v.([]any); ok {
			out = append(out, Target{Path: name, Node: v})
		}
	}
	return out
}

func checkUniqueIDs(c *Context, t Target) []diag.Diagnostic {
	items, _ := t.Node.([]any)
	first := map[string]int{}
	var out []diag.Diagnostic
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m[gamedef.FieldID].(string)
		if id == "" {
			continue
		}
		if prev, dup := first[id]; dup {
			out = append(out, diag.Errorf(diag.IndexPath(t.Path, i), id,
				"duplicate id %q (first defined at %s)", id, diag.IndexPath(t.Path, prev)))
			continue
		}
		first[id] = i
	}
	return out
}
