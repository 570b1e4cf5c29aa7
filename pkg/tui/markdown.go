package tui

import (
	"strings"

	"github.com/ormasoftchile/gamedef/pkg/report"
)

// renderMarkdownWidth renders markdown constrained to a column width.
// Falls back to the raw input if rendering fails.
func renderMarkdownWidth(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	out, err := report.RenderMarkdown(md, width)
	if err != nil {
		return md
	}
	// Glamour adds trailing newlines; trim for inline use
	return strings.TrimRight(out, "\n")
}
