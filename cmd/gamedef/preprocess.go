package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPreprocessCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "preprocess <game.yaml | URL>",
		Short: "Print a game definition merged with its includes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var data []byte
			if asJSON {
				data, err = json.MarshalIndent(doc.Raw(), "", "  ")
				data = append(data, '\n')
			} else {
				data, err = yaml.Marshal(doc.Raw())
			}
			if err != nil {
				return fmt.Errorf("encode merged document: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON instead of YAML")
	return cmd
}
