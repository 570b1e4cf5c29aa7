package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/repl"
	"github.com/ormasoftchile/gamedef/pkg/rules"
	"github.com/ormasoftchile/gamedef/pkg/tui"
	"github.com/ormasoftchile/gamedef/pkg/validate"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <game.yaml | URL>",
		Short: "Browse validation diagnostics in a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			reload := func(ctx context.Context) (*validate.Report, error) {
				doc, err := a.load(ctx, input)
				if err != nil {
					return nil, err
				}
				return validate.Validate(ctx, doc, a.options())
			}
			rep, err := reload(cmd.Context())
			if err != nil && rep == nil {
				return err
			}

			engine := rules.DefaultEngine().With(a.ruleset...)
			m := tui.NewModel(displayName(input), rep, engine).WithReload(reload)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl <game.yaml | URL>",
		Short: "Explore the identity indexes of a game definition interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := a.load(ctx, args[0])
			if err != nil {
				return err
			}
			validateFn := func(ctx context.Context, d *gamedef.Document) (*validate.Report, error) {
				return validate.Validate(ctx, d, a.options())
			}
			r, err := repl.New(ctx, displayName(args[0]), doc, a.catalog, validateFn)
			if err != nil {
				return err
			}
			return r.Run(ctx)
		},
	}
}
