// Package repl implements an interactive explorer for the identity indexes
// of a game definition: list tags and ids, show definitions, resolve
// references by hand and revalidate.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/muesli/termenv"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/index"
	"github.com/ormasoftchile/gamedef/pkg/refs"
	"github.com/ormasoftchile/gamedef/pkg/registry"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

// ValidateFunc validates the explored document.
type ValidateFunc func(ctx context.Context, doc *gamedef.Document) (*validate.Report, error)

// REPL explores one document.
type REPL struct {
	name     string
	doc      *gamedef.Document
	set      *index.Set
	resolver *refs.Resolver
	validate ValidateFunc
	output   io.Writer
	color    bool
}

// New builds the indexes of doc using catalog. validateFn may be nil, which
// disables the validate command.
func New(ctx context.Context, name string, doc *gamedef.Document, catalog registry.Catalog, validateFn ValidateFunc) (*REPL, error) {
	memo := registry.NewMemo(catalog, nil)
	set, err := index.Build(ctx, doc, memo)
	if err != nil {
		return nil, fmt.Errorf("build indexes: %w", err)
	}
	return &REPL{
		name:     name,
		doc:      doc,
		set:      set,
		resolver: refs.NewResolver(set, memo),
		validate: validateFn,
		output:   os.Stdout,
	}, nil
}

// SetOutput redirects command output.
func (r *REPL) SetOutput(w io.Writer) { r.output = w }

// Run starts the interactive loop. It returns on quit, Ctrl-C or EOF.
func (r *REPL) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("tags"),
		readline.PcItem("ids", r.tagItems()...),
		readline.PcItem("show", r.tagItems()...),
		readline.PcItem("resolve"),
		readline.PcItem("refs", r.tagItems()...),
		readline.PcItem("graph"),
		readline.PcItem("validate"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()
	r.output = rl.Stdout()
	r.color = !termenv.EnvNoColor()

	fmt.Fprintf(r.output, "gamedef repl: %s, %d tags, %d indexed ids\n", r.name, len(r.set.Tags()), r.set.Len())
	fmt.Fprintf(r.output, "Type 'help' for available commands.\n\n")

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if r.Exec(ctx, line) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the session should end.
func (r *REPL) Exec(ctx context.Context, line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	switch parts[0] {
	case "tags", "t":
		r.handleTags()
	case "ids", "i":
		r.handleIDs(parts)
	case "show", "s":
		r.handleShow(parts)
	case "resolve", "r":
		r.handleResolve(ctx, parts)
	case "refs":
		r.handleRefs(parts)
	case "graph", "g":
		r.handleGraph()
	case "validate", "v":
		r.handleValidate(ctx)
	case "help", "?":
		r.handleHelp()
	case "quit", "q":
		fmt.Fprintf(r.output, "Bye.\n")
		return true
	default:
		fmt.Fprintf(r.output, "Unknown command: %q. Type 'help' for available commands.\n", parts[0])
	}
	return false
}

func (r *REPL) prompt() string {
	return fmt.Sprintf("gamedef[%s]> ", r.name)
}

func (r *REPL) tagItems() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, tag := range r.set.Tags() {
		items = append(items, readline.PcItem(tag))
	}
	return items
}
