package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/gamedef/pkg/diag"
)

// searchBar filters the diagnostic list by a case-insensitive substring of
// the path, message, rule or reference.
type searchBar struct {
	active  bool
	input   textinput.Model
	query   string // committed search term
	matches int
}

func newSearchBar() searchBar {
	ti := textinput.New()
	ti.Placeholder = "path, message or rule..."
	ti.CharLimit = 256
	ti.Width = 40
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	return searchBar{input: ti}
}

// Open activates the search bar and focuses the text input.
func (s *searchBar) Open() tea.Cmd {
	s.active = true
	s.input.SetValue(s.query)
	return s.input.Focus()
}

// Close deactivates the search bar and clears the query.
func (s *searchBar) Close() {
	s.active = false
	s.input.Blur()
	s.input.Reset()
	s.query = ""
}

// Update handles key events when the search bar is active. The query follows
// the input live; Esc clears it and Enter keeps it.
func (s *searchBar) Update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.Close()
		return nil
	case "enter":
		s.query = s.input.Value()
		s.active = false
		s.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	s.query = s.input.Value()
	return cmd
}

// Matches reports whether d satisfies the current query.
func (s *searchBar) Matches(d diag.Diagnostic) bool {
	q := strings.ToLower(strings.TrimSpace(s.query))
	if q == "" {
		return true
	}
	for _, field := range []string{d.Path, d.Message, d.Rule, d.Ref, d.Validator} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// View renders the search bar.
func (s *searchBar) View() string {
	if !s.active && s.query == "" {
		return ""
	}
	result := keyDescStyle.Render("/" + s.query)
	if s.active {
		result = s.input.View()
	}
	if s.matches > 0 {
		result += "  " + lipgloss.NewStyle().Foreground(colorGreen).Render(
			fmt.Sprintf("%d %s", s.matches, pluralize(s.matches, "match", "matches")))
	} else if s.query != "" {
		result += "  " + lipgloss.NewStyle().Foreground(colorRed).Render("no matches")
	}
	return result
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
