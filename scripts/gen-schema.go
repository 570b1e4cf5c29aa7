//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/registry"
)

func main() {
	write("schemas/gamedef-envelope.json", gamedef.EnvelopeJSONSchema)
	write("schemas/registry-components.json", registry.RegistryJSONSchema)
}

func write(path string, gen func() ([]byte, error)) {
	data, err := gen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating %s: %v\n", path, err)
		os.Exit(1)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		fmt.Fprintf(os.Stderr, "format %s: %v\n", path, err)
		os.Exit(1)
	}
	buf.WriteByte('\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote", path)
}
