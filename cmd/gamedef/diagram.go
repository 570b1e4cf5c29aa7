package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/gamedef/pkg/diagram"
)

func newDiagramCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diagram <game.yaml | URL>",
		Short: "Draw the state graph of a game definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := diagram.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := diagram.Generate(doc, f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "mermaid", "Output format: mermaid or ascii")
	return cmd
}
