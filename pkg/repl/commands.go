package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/gamedef/pkg/diagram"
	"github.com/ormasoftchile/gamedef/pkg/refs"
	"github.com/ormasoftchile/gamedef/pkg/report"
)

// handleTags lists every indexed tag with its id count.
func (r *REPL) handleTags() {
	tags := r.set.Tags()
	if len(tags) == 0 {
		fmt.Fprintf(r.output, "No reference types.\n")
		return
	}
	for _, tag := range tags {
		fmt.Fprintf(r.output, "  %-14s %d\n", tag, len(r.set.IDs(tag)))
	}
}

// handleIDs lists the ids of one tag.
func (r *REPL) handleIDs(parts []string) {
	if len(parts) < 2 {
		fmt.Fprintf(r.output, "Usage: ids <tag>\n")
		return
	}
	tag := parts[1]
	if !r.set.Known(tag) {
		fmt.Fprintf(r.output, "Unknown reference type %q.\n", tag)
		return
	}
	ids := r.set.IDs(tag)
	if len(ids) == 0 {
		fmt.Fprintf(r.output, "No %s ids.\n", tag)
		return
	}
	for _, id := range ids {
		e, _ := r.set.Lookup(tag, id)
		fmt.Fprintf(r.output, "  %-20s %s\n", id, e.Path)
	}
}

// handleShow prints the definition behind tag/id as YAML.
func (r *REPL) handleShow(parts []string) {
	if len(parts) < 3 {
		fmt.Fprintf(r.output, "Usage: show <tag> <id>\n")
		return
	}
	e, ok := r.set.Lookup(parts[1], parts[2])
	if !ok {
		fmt.Fprintf(r.output, "%s %q not found.\n", parts[1], parts[2])
		return
	}
	data, err := yaml.Marshal(e.Raw)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.output, "# %s\n%s", e.Path, r.highlight(string(data), "yaml"))
}

// highlight colors code for the terminal, or returns it unchanged when color
// is off or chroma fails.
func (r *REPL) highlight(code, language string) string {
	if !r.color {
		return code
	}
	var b strings.Builder
	if err := quick.Highlight(&b, code, language, "terminal256", "monokai"); err != nil {
		return code
	}
	return b.String()
}

// handleResolve checks a hand-written reference: resolve $state_ref lobby.
func (r *REPL) handleResolve(ctx context.Context, parts []string) {
	if len(parts) < 3 {
		fmt.Fprintf(r.output, "Usage: resolve <$tag_ref> <id>\n")
		return
	}
	field := parts[1]
	if !refs.Classify(field).IsReference() {
		fmt.Fprintf(r.output, "%q is not a reference field.\n", field)
		return
	}
	ds, err := r.resolver.Resolve(ctx, field, parts[2], field)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return
	}
	if len(ds) == 0 {
		fmt.Fprintf(r.output, "  ✓ %s %s resolves\n", field, parts[2])
		return
	}
	for _, d := range ds {
		fmt.Fprintf(r.output, "  ✗ %s\n", d.Message)
	}
}

// handleRefs lists every reference in the document, optionally only one tag.
func (r *REPL) handleRefs(parts []string) {
	var tag string
	if len(parts) > 1 {
		tag = parts[1]
	}
	n := 0
	for _, ref := range refs.Collect(r.doc.Raw(), "") {
		if tag != "" && ref.Field.Tag != tag {
			continue
		}
		target := ref.ID
		if ref.Pair != nil {
			target = ref.Pair.ComponentID + "." + ref.Pair.Property
		}
		fmt.Fprintf(r.output, "  %-45s %-14s %s\n", ref.Path, ref.Field.Key, target)
		n++
	}
	if n == 0 {
		fmt.Fprintf(r.output, "No references.\n")
	}
}

// handleGraph prints the state graph.
func (r *REPL) handleGraph() {
	out, err := diagram.Generate(r.doc, diagram.FormatASCII)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
		return
	}
	fmt.Fprint(r.output, out)
}

// handleValidate runs a full validation and prints the report.
func (r *REPL) handleValidate(ctx context.Context) {
	if r.validate == nil {
		fmt.Fprintf(r.output, "Validation is not available in this session.\n")
		return
	}
	rep, err := r.validate(ctx, r.doc)
	if err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}
	if rep != nil {
		_ = report.Text(r.output, r.name, rep, r.color)
	}
}

// handleHelp lists available commands.
func (r *REPL) handleHelp() {
	fmt.Fprintf(r.output, `Commands:
  tags (t)                  List reference types and id counts
  ids (i) <tag>             List the ids of a reference type
  show (s) <tag> <id>       Print the definition of an id
  resolve (r) <field> <id>  Check a reference, e.g. resolve $state_ref lobby
  refs [tag]                List every reference in the document
  graph (g)                 Print the state graph
  validate (v)              Validate the document
  help (?)                  Show this help
  quit (q)                  Exit
`)
}
