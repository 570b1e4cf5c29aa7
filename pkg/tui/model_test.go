package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

func sampleReport() *validate.Report {
	ds := []diag.Diagnostic{
		{Severity: diag.SeverityError, Path: "actions[0].target", Message: `property "total" not found on component "score"`, Validator: "references"},
		{Severity: diag.SeverityWarn, Path: "states", Message: "no state has an end_state component", Validator: "rules", Rule: rules.RuleEndStateExists},
		{Severity: diag.SeverityWarn, Path: "states[0]", Message: "state has no outbound transition", Validator: "rules", Rule: rules.RuleOutboundTransition},
	}
	return &validate.Report{Diagnostics: ds, Counts: diag.Count(ds)}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_InitFromReport(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), rules.DefaultEngine())
	if len(m.visible) != 3 {
		t.Fatalf("expected 3 visible diagnostics, got %d", len(m.visible))
	}
	d, ok := m.Selected()
	if !ok || d.Path != "actions[0].target" {
		t.Errorf("selected = %+v", d)
	}
	if _, ok := m.rules[rules.RuleEndStateExists]; !ok {
		t.Error("rule documentation not loaded")
	}
}

func TestModel_Navigate(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), nil)
	m = send(m, runes("j"), runes("j"), runes("j"))
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2 (clamped)", m.selected)
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}
}

func TestModel_SeverityFilter(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), nil)
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.filter != filterErrors || len(m.visible) != 1 {
		t.Errorf("errors filter: filter=%s visible=%d", m.filter, len(m.visible))
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.filter != filterWarnings || len(m.visible) != 2 {
		t.Errorf("warnings filter: filter=%s visible=%d", m.filter, len(m.visible))
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.filter != filterAll || len(m.visible) != 3 {
		t.Errorf("all filter: filter=%s visible=%d", m.filter, len(m.visible))
	}
}

func TestModel_Search(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), nil)
	m = send(m, runes("/"))
	if !m.search.active {
		t.Fatal("search should be active after /")
	}
	m = send(m, runes("o"), runes("u"), runes("t"), runes("b"))
	if len(m.visible) != 1 {
		t.Fatalf("visible = %d, want 1", len(m.visible))
	}
	if d, _ := m.Selected(); d.Path != "states[0]" {
		t.Errorf("selected = %s", d.Path)
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.search.active || m.search.query != "outb" || len(m.visible) != 1 {
		t.Errorf("enter should keep the query: %+v", m.search.query)
	}
	m = send(m, runes("/"), tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.visible) != 3 {
		t.Errorf("esc should clear the query, visible = %d", len(m.visible))
	}
}

func TestModel_Reload(t *testing.T) {
	calls := 0
	m := NewModel("relay.yaml", sampleReport(), nil).WithReload(func(context.Context) (*validate.Report, error) {
		calls++
		return &validate.Report{OK: true}, nil
	})
	_, cmd := m.Update(runes("r"))
	if cmd == nil {
		t.Fatal("reload should return a command")
	}
	m = send(m, cmd())
	if calls != 1 || !m.report.OK || len(m.visible) != 0 {
		t.Errorf("calls=%d ok=%v visible=%d", calls, m.report.OK, len(m.visible))
	}
	if !strings.Contains(m.View(), "nothing to show") {
		t.Error("empty list should say so")
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), rules.DefaultEngine())
	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	out := m.View()
	for _, want := range []string{"gamedef inspect: relay.yaml", "actions[0].target", "invalid"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ListRowsFitWidth(t *testing.T) {
	m := NewModel("relay.yaml", sampleReport(), rules.DefaultEngine())
	m = send(m, tea.WindowSizeMsg{Width: 30, Height: 40})
	for _, line := range strings.Split(m.listView(), "\n") {
		if w := ansi.StringWidth(line); w > 30 {
			t.Errorf("row is %d cells wide: %q", w, ansi.Strip(line))
		}
	}
}

func TestDetailMarkdown(t *testing.T) {
	r := rules.Rule{Name: "end-state-exists", Description: "At least one state ends the game."}
	md := detailMarkdown(sampleReport().Diagnostics[1], &r)
	for _, want := range []string{"## warn at `states`", "**Rule:** end-state-exists", "At least one state ends the game."} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in:\n%s", want, md)
		}
	}
}
