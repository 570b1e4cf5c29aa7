// Package tui implements a terminal browser for validation reports. It lists
// diagnostics, filters them by severity or text, and shows the selected
// diagnostic with the documentation of the rule that produced it.
package tui

import "github.com/charmbracelet/lipgloss"

// Diagnostic glyphs convey severity without relying on color alone.
const (
	GlyphError    = "✗"
	GlyphWarn     = "⚠"
	GlyphCursor   = "▸"
	GlyphValid    = "✓"
	GlyphFiltered = "⊘"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

// --- Header styles ---

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var filterBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorYellow).
	Padding(0, 1)

// --- Diagnostic list styles ---

var (
	rowNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	rowSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	rowError = lipgloss.NewStyle().
			Foreground(colorRed)

	rowWarn = lipgloss.NewStyle().
		Foreground(colorYellow)

	pathStyle = lipgloss.NewStyle().
			Foreground(colorBlue)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// --- Status styles ---

var (
	statusValidStyle = lipgloss.NewStyle().
				Foreground(colorGreen).
				Bold(true)

	statusInvalidStyle = lipgloss.NewStyle().
				Foreground(colorRed).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)
