package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

// ReloadFunc revalidates the document being inspected.
type ReloadFunc func(ctx context.Context) (*validate.Report, error)

// severityFilter cycles through all, errors only and warnings only.
type severityFilter int

const (
	filterAll severityFilter = iota
	filterErrors
	filterWarnings
)

func (f severityFilter) String() string {
	switch f {
	case filterErrors:
		return "errors"
	case filterWarnings:
		return "warnings"
	default:
		return "all"
	}
}

func (f severityFilter) next() severityFilter { return (f + 1) % 3 }

func (f severityFilter) keep(d diag.Diagnostic) bool {
	switch f {
	case filterErrors:
		return d.Severity == diag.SeverityError
	case filterWarnings:
		return d.Severity == diag.SeverityWarn
	default:
		return true
	}
}

// Model is the Bubble Tea model for `gamedef inspect`.
type Model struct {
	name   string
	report *validate.Report
	rules  map[string]rules.Rule
	ruleMD string
	reload ReloadFunc

	filter   severityFilter
	search   searchBar
	visible  []int // indices into report.Diagnostics
	selected int
	showHelp bool

	detail viewport.Model
	ready  bool
	width  int
	height int
	err    error
}

// NewModel creates a browser for r. The engine, when non-nil, supplies rule
// documentation for the detail panel.
func NewModel(name string, r *validate.Report, engine *rules.Engine) Model {
	m := Model{
		name:   name,
		report: r,
		rules:  map[string]rules.Rule{},
		search: newSearchBar(),
	}
	if engine != nil {
		rs := engine.Rules()
		for _, rule := range rs {
			m.rules[rule.Name] = rule
		}
		m.ruleMD = rulesMarkdown(rs)
	}
	m.refilter()
	return m
}

// WithReload enables the revalidate key.
func (m Model) WithReload(fn ReloadFunc) Model {
	m.reload = fn
	return m
}

// --- Messages ---

// reportMsg delivers the outcome of a revalidation.
type reportMsg struct {
	Report *validate.Report
	Err    error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.search.active {
			cmd := m.search.Update(msg)
			m.refilter()
			return m, cmd
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
				m.syncDetail()
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.visible)-1 {
				m.selected++
				m.syncDetail()
			}
		case key.Matches(msg, keys.PgUp):
			m.detail.HalfViewUp()
		case key.Matches(msg, keys.PgDown):
			m.detail.HalfViewDown()
		case key.Matches(msg, keys.Filter):
			m.filter = m.filter.next()
			m.refilter()
		case key.Matches(msg, keys.Search):
			return m, m.search.Open()
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.syncDetail()
		case key.Matches(msg, keys.Reload):
			if m.reload != nil {
				return m, m.revalidate()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.detailSize()
		if !m.ready {
			m.detail = viewport.New(w, h)
			m.ready = true
		} else {
			m.detail.Width = w
			m.detail.Height = h
		}
		m.syncDetail()

	case reportMsg:
		m.err = msg.Err
		if msg.Report != nil {
			m.report = msg.Report
			m.refilter()
		}
	}
	return m, nil
}

func (m Model) revalidate() tea.Cmd {
	reload := m.reload
	return func() tea.Msg {
		r, err := reload(context.Background())
		return reportMsg{Report: r, Err: err}
	}
}

// refilter recomputes the visible diagnostics and clamps the selection.
func (m *Model) refilter() {
	m.visible = nil
	for i, d := range m.report.Diagnostics {
		if m.filter.keep(d) && m.search.Matches(d) {
			m.visible = append(m.visible, i)
		}
	}
	m.search.matches = len(m.visible)
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.syncDetail()
}

// Selected returns the diagnostic under the cursor.
func (m Model) Selected() (diag.Diagnostic, bool) {
	if len(m.visible) == 0 {
		return diag.Diagnostic{}, false
	}
	return m.report.Diagnostics[m.visible[m.selected]], true
}

func (m *Model) syncDetail() {
	if !m.ready {
		return
	}
	var md string
	switch d, ok := m.Selected(); {
	case m.showHelp:
		md = m.ruleMD
	case ok:
		var rule *rules.Rule
		if r, found := m.rules[d.Rule]; found {
			rule = &r
		}
		md = detailMarkdown(d, rule)
	default:
		md = "No diagnostics match."
	}
	m.detail.SetContent(renderMarkdownWidth(md, m.detail.Width))
	m.detail.GotoTop()
}

func (m Model) listHeight() int {
	h := (m.height - 6) / 2
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) detailSize() (int, int) {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	h := m.height - m.listHeight() - 7
	if h < 3 {
		h = 3
	}
	return w, h
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("gamedef inspect: " + m.name))
	if m.filter != filterAll {
		b.WriteString(" " + filterBadgeStyle.Render(m.filter.String()))
	}
	b.WriteString("  " + m.status() + "\n\n")

	if sv := m.search.View(); sv != "" {
		b.WriteString("  " + sv + "\n")
	}
	b.WriteString(m.listView())
	b.WriteString("\n")

	if m.ready {
		title := "Diagnostic"
		if m.showHelp {
			title = "Rules"
		}
		b.WriteString(panelTitle.Render(title) + "\n")
		b.WriteString(panelBorder.Render(m.detail.View()) + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("  "+GlyphError+" "+m.err.Error()) + "\n")
	}
	b.WriteString(keyBarStyle.Render(keyBarText(m.search.active, m.reload != nil)))
	return b.String()
}

func (m Model) status() string {
	c := m.report.Counts
	text := fmt.Sprintf("%d error(s), %d warning(s)", c.Errors, c.Warnings)
	if m.report.OK {
		return statusValidStyle.Render(GlyphValid+" valid") + " " + keyDescStyle.Render(text)
	}
	return statusInvalidStyle.Render(GlyphError+" invalid") + " " + keyDescStyle.Render(text)
}

// listView renders a window of the visible diagnostics around the cursor.
func (m Model) listView() string {
	if len(m.visible) == 0 {
		return "  " + keyDescStyle.Render(GlyphFiltered+" nothing to show") + "\n"
	}
	height := m.listHeight()
	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := start + height
	if end > len(m.visible) {
		end = len(m.visible)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		d := m.report.Diagnostics[m.visible[i]]
		glyph, style := GlyphWarn, rowWarn
		if d.Severity == diag.SeverityError {
			glyph, style = GlyphError, rowError
		}
		line := style.Render(glyph) + " " + pathStyle.Render(d.Path) + "  "
		if i == m.selected {
			line = rowSelected.Render(GlyphCursor+" ") + line + rowSelected.Render(d.Message)
		} else {
			line = "  " + line + rowNormal.Render(d.Message)
		}
		if m.width > 0 {
			line = ansi.Truncate(line, m.width, "…")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
