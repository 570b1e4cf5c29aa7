package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
)

func newSchemaCmd() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Schema operations",
	}

	var schemaType string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export JSON Schema to stdout",
		Long: `Export a JSON Schema reflected from the Go types.

  --type document   the game definition envelope (components, entity sections)
  --type registry   the registry components.yaml file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			switch schemaType {
			case "document":
				data, err = gamedef.EnvelopeJSONSchema()
			case "registry":
				data, err = registry.RegistryJSONSchema()
			default:
				return fmt.Errorf("unknown --type %q: use document or registry", schemaType)
			}
			if err != nil {
				return fmt.Errorf("generate schema: %w", err)
			}
			// Pretty-print the JSON
			var buf bytes.Buffer
			if err := json.Indent(&buf, data, "", "  "); err != nil {
				return fmt.Errorf("format schema: %w", err)
			}
			buf.WriteByte('\n')
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		},
	}
	exportCmd.Flags().StringVar(&schemaType, "type", "document", "Schema to export: document or registry")

	schemaCmd.AddCommand(exportCmd)
	return schemaCmd
}
