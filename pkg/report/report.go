// Package report renders validation reports for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

// Severity glyphs, so meaning survives without color.
const (
	GlyphValid   = "✓"
	GlyphInvalid = "✗"
	GlyphError   = "✗"
	GlyphWarn    = "⚠"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorDim    = lipgloss.Color("240")
)

var (
	validStyle   = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	invalidStyle = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	headStyle    = lipgloss.NewStyle().Bold(true)
)

// Text writes a human-readable report: a summary line followed by one aligned
// row per diagnostic. Color adds lipgloss styling.
func Text(w io.Writer, name string, r *validate.Report, color bool) error {
	paint := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	if _, err := fmt.Fprintln(w, Summary(name, r, paint)); err != nil {
		return err
	}
	if len(r.Diagnostics) == 0 {
		return nil
	}

	pathWidth := runewidth.StringWidth("PATH")
	for _, d := range r.Diagnostics {
		if pw := runewidth.StringWidth(d.Path); pw > pathWidth {
			pathWidth = pw
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + paint(headStyle, runewidth.FillRight("SEVERITY", 10)+runewidth.FillRight("PATH", pathWidth+2)+"MESSAGE") + "\n")
	for _, d := range r.Diagnostics {
		glyph, style := GlyphWarn, warnStyle
		if d.Severity == diag.SeverityError {
			glyph, style = GlyphError, errorStyle
		}
		sev := runewidth.FillRight(glyph+" "+string(d.Severity), 10)
		path := runewidth.FillRight(d.Path, pathWidth+2)
		b.WriteString("  " + paint(style, sev) + path + d.Message)
		if src := source(d); src != "" {
			b.WriteString("  " + paint(dimStyle, "["+src+"]"))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Summary is the one-line verdict for a report.
func Summary(name string, r *validate.Report, paint func(lipgloss.Style, string) string) string {
	if paint == nil {
		paint = func(_ lipgloss.Style, s string) string { return s }
	}
	counts := fmt.Sprintf("%d error(s), %d warning(s)", r.Counts.Errors, r.Counts.Warnings)
	if r.OK {
		return paint(validStyle, GlyphValid+" "+name+" is valid") + " (" + counts + ")"
	}
	return paint(invalidStyle, GlyphInvalid+" "+name+" is invalid") + " (" + counts + ")"
}

// source names the validator, and the rule when there is one.
func source(d diag.Diagnostic) string {
	switch {
	case d.Rule != "" && d.Validator != "":
		return d.Validator + "/" + d.Rule
	case d.Rule != "":
		return d.Rule
	default:
		return d.Validator
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *validate.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Markdown renders the report as a Markdown document.
func Markdown(name string, r *validate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation report: %s\n\n", name)
	verdict := "valid"
	if !r.OK {
		verdict = "invalid"
	}
	fmt.Fprintf(&b, "**Result:** %s (%d errors, %d warnings)\n\n", verdict, r.Counts.Errors, r.Counts.Warnings)
	if r.Digest != "" {
		fmt.Fprintf(&b, "**Digest:** `%s`\n\n", r.Digest)
	}
	if len(r.Diagnostics) == 0 {
		b.WriteString("No diagnostics.\n")
		return b.String()
	}
	b.WriteString("| Severity | Path | Message | Source |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, d := range r.Diagnostics {
		fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n",
			d.Severity, escapeCell(d.Path), escapeCell(d.Message), escapeCell(source(d)))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderMarkdown styles md for a terminal with glamour. Width 0 disables
// word wrapping.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
