package rules

import (
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/refs"
)

// Component types with a structural meaning for the state graph.
const (
	TypeTransition        = "transition"
	TypeEndState          = "end_state"
	TypeTransitionTrigger = "transition_trigger"
)

// Edge is a transition from one state to another.
type Edge struct {
	From, To   string
	Transition string
	// Triggered is true when a transition_trigger on the source state names
	// the transition.
	Triggered bool
}

// StateGraph is the transition graph of the states section.
type StateGraph struct {
	// States in document order.
	States []gamedef.Entity
	Edges  []Edge
	End    map[string]bool
	// Initial is flow.initial_state, if set.
	Initial string
}

// BuildStateGraph derives the state graph from doc. Edges run from a state to
// every $state_ref inside the properties of its transition components.
func BuildStateGraph(doc *gamedef.Document) *StateGraph {
	return stateGraph(NewContext(doc, nil))
}

func stateGraph(c *Context) *StateGraph {
	g := &StateGraph{End: map[string]bool{}}
	g.States = c.Entities("state")
	for _, s := range g.States {
		if c.HasComponentOfType(s, TypeEndState) {
			g.End[s.ID] = true
		}
		triggered := triggeredTransitions(c, s)
		for _, t := range c.ComponentsOfType(s, TypeTransition) {
			for _, ref := range refs.Collect(t.Properties, "") {
				if ref.Field.Tag != "state" || ref.ID == "" {
					continue
				}
				g.Edges = append(g.Edges, Edge{From: s.ID, To: ref.ID, Transition: t.ID, Triggered: triggered[t.ID]})
			}
		}
	}
	if flow, ok := c.Doc.Section("flow"); ok {
		if m, ok := flow.(map[string]any); ok {
			for _, ref := range refs.Collect(m["initial_state"], "") {
				if ref.Field.Tag == "state" {
					g.Initial = ref.ID
					break
				}
			}
		}
	}
	return g
}

// triggeredTransitions returns the ids named by the state's triggers through
// properties.$transition.$transition_ref.
func triggeredTransitions(c *Context, s gamedef.Entity) map[string]bool {
	out := map[string]bool{}
	for _, trig := range c.ComponentsOfType(s, TypeTransitionTrigger) {
		target, _ := trig.Properties["$transition"].(map[string]any)
		if id, ok := target["$transition_ref"].(string); ok {
			out[id] = true
		}
	}
	return out
}

// CanReachEnd returns the states from which some end state is reachable.
func (g *StateGraph) CanReachEnd() map[string]bool {
	reverse := map[string][]string{}
	for _, e := range g.Edges {
		reverse[e.To] = append(reverse[e.To], e.From)
	}
	seen := map[string]bool{}
	var queue []string
	for _, s := range g.States {
		if g.End[s.ID] && !seen[s.ID] {
			seen[s.ID] = true
			queue = append(queue, s.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, from := range reverse[id] {
			if !seen[from] {
				seen[from] = true
				queue = append(queue, from)
			}
		}
	}
	return seen
}
