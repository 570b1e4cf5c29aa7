// Package diagram draws the state graph of a game definition.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/rules"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// ParseFormat accepts "mermaid" or "ascii".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMermaid, FormatASCII:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", s)
	}
}

// Generate produces a diagram of the states section of doc.
func Generate(doc *gamedef.Document, format Format) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document")
	}
	g := rules.BuildStateGraph(doc)
	switch format {
	case FormatMermaid:
		return generateMermaid(g), nil
	case FormatASCII:
		return generateASCII(g, title(doc)), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// title is game.name, falling back to game.id.
func title(doc *gamedef.Document) string {
	v, _ := doc.Section("game")
	m, _ := v.(map[string]any)
	for _, key := range []string{"name", gamedef.FieldID} {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return "Game"
}

// --- Mermaid flowchart ---

func generateMermaid(g *rules.StateGraph) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	if len(g.States) == 0 {
		return b.String()
	}

	start := g.Initial
	if start == "" {
		start = g.States[0].ID
	}
	b.WriteString("    START([Start]) --> " + safeID(start) + "\n")

	for _, s := range g.States {
		b.WriteString("    " + nodeDefinition(s.ID, g.End[s.ID]) + "\n")
	}
	for _, e := range g.Edges {
		label := e.Transition
		arrow := "-->"
		if !e.Triggered {
			label += " (no trigger)"
			arrow = "-.->"
		}
		b.WriteString(fmt.Sprintf("    %s %s|%q| %s\n", safeID(e.From), arrow, escMermaid(label), safeID(e.To)))
	}

	outbound := outboundCounts(g)
	reach := g.CanReachEnd()
	for _, s := range g.States {
		switch {
		case g.End[s.ID]:
			b.WriteString(fmt.Sprintf("    style %s fill:#0d6,stroke:#0a5,color:#fff\n", safeID(s.ID)))
		case outbound[s.ID] == 0:
			b.WriteString(fmt.Sprintf("    style %s fill:#e60,stroke:#c40,color:#fff\n", safeID(s.ID)))
		case len(g.End) > 0 && !reach[s.ID]:
			b.WriteString(fmt.Sprintf("    style %s fill:#a0a,stroke:#808,color:#fff\n", safeID(s.ID)))
		}
	}
	return b.String()
}

func outboundCounts(g *rules.StateGraph) map[string]int {
	out := map[string]int{}
	for _, e := range g.Edges {
		out[e.From]++
	}
	return out
}

// --- ASCII ---

func generateASCII(g *rules.StateGraph, name string) string {
	var b strings.Builder
	if len(g.States) == 0 {
		b.WriteString(name + " (no states)\n")
		return b.String()
	}

	boxes := asciiBoxes(g)

	// Compute uniform box width so every box and connector aligns.
	const indent = 8
	boxWidth := computeUniformBoxWidth(boxes, name)
	connCol := indent + 1 + boxWidth/2 // +1 accounts for the └/┌ border character
	pad := strings.Repeat(" ", indent)
	connPad := strings.Repeat(" ", connCol)

	headerText := centerPad(name, boxWidth)
	mid := boxWidth / 2
	b.WriteString(pad + "╔" + strings.Repeat("═", boxWidth) + "╗\n")
	b.WriteString(pad + "║" + headerText + "║\n")
	b.WriteString(pad + "╚" + strings.Repeat("═", mid) + "╤" + strings.Repeat("═", boxWidth-mid-1) + "╝\n")
	b.WriteString(connPad + "│\n")

	for i, box := range boxes {
		writeASCIIBox(&b, box, indent, boxWidth)
		if i < len(boxes)-1 {
			b.WriteString(connPad + "│\n")
		}
	}
	return b.String()
}

// asciiBox is one state rendered as a box: a heading line followed by one
// line per outgoing transition.
type asciiBox struct {
	heading string
	lines   []string
}

func asciiBoxes(g *rules.StateGraph) []asciiBox {
	byFrom := map[string][]rules.Edge{}
	for _, e := range g.Edges {
		byFrom[e.From] = append(byFrom[e.From], e)
	}
	boxes := make([]asciiBox, 0, len(g.States))
	for _, s := range g.States {
		box := asciiBox{heading: " " + stateIcon(s.ID, g) + " " + s.ID + " "}
		for _, e := range byFrom[s.ID] {
			line := " → " + e.To + " via " + e.Transition
			if !e.Triggered {
				line += " (no trigger)"
			}
			box.lines = append(box.lines, line+" ")
		}
		boxes = append(boxes, box)
	}
	return boxes
}

func stateIcon(id string, g *rules.StateGraph) string {
	switch {
	case g.End[id]:
		return "■"
	case id == g.Initial:
		return "▶"
	default:
		return "○"
	}
}

// computeUniformBoxWidth returns the widest interior width needed
// across all boxes and the header name.
func computeUniformBoxWidth(boxes []asciiBox, name string) int {
	w := 22
	if nw := runewidth.StringWidth(name) + 4; nw > w {
		w = nw
	}
	for _, box := range boxes {
		if bw := runewidth.StringWidth(box.heading); bw > w {
			w = bw
		}
		for _, l := range box.lines {
			if lw := runewidth.StringWidth(l); lw > w {
				w = lw
			}
		}
	}
	return w
}

// centerPad centers s within width using spaces, based on display width.
func centerPad(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	total := width - sw
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func writeASCIIBox(b *strings.Builder, box asciiBox, indent, boxWidth int) {
	pad := strings.Repeat(" ", indent)
	mid := boxWidth / 2

	b.WriteString(pad + "┌" + strings.Repeat("─", boxWidth) + "┐\n")
	b.WriteString(pad + "│" + box.heading + strings.Repeat(" ", boxWidth-runewidth.StringWidth(box.heading)) + "│\n")
	for _, l := range box.lines {
		b.WriteString(pad + "│" + l + strings.Repeat(" ", boxWidth-runewidth.StringWidth(l)) + "│\n")
	}
	b.WriteString(pad + "└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
}

// --- string helpers ---

func nodeDefinition(id string, end bool) string {
	if end {
		return fmt.Sprintf(`%s(["■ %s"])`, safeID(id), escMermaid(id))
	}
	return fmt.Sprintf(`%s["%s"]`, safeID(id), escMermaid(id))
}

// safeID maps a state id to a Mermaid node id. The prefix keeps states
// named end or START clear of the keyword and the entry node.
func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return "s_" + r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}
