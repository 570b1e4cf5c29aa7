package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/gamedef/pkg/validate"
)

const (
	validFixture  = "../../pkg/validate/testdata/valid.yaml"
	brokenFixture = "../../pkg/validate/testdata/broken.yaml"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GAMEDEF_LOG_LEVEL", "error")
	cmd, a := newRootCmd()
	defer a.close()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCmd_Valid(t *testing.T) {
	out, err := execute(t, "validate", "--no-color", validFixture)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "valid.yaml is valid") {
		t.Errorf("output: %s", out)
	}
}

func TestValidateCmd_Broken(t *testing.T) {
	out, err := execute(t, "validate", "--no-color", brokenFixture)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	if !strings.Contains(out, "broken.yaml is invalid") || !strings.Contains(out, "racetrack") {
		t.Errorf("output: %s", out)
	}
}

func TestValidateCmd_JSON(t *testing.T) {
	out, err := execute(t, "validate", "--json", brokenFixture)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	var rep validate.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out)
	}
	if rep.OK || rep.Counts.Errors != 4 || rep.Digest == "" {
		t.Errorf("report = %+v", rep)
	}
}

func TestValidateCmd_Markdown(t *testing.T) {
	out, _ := execute(t, "validate", "--markdown", brokenFixture)
	if !strings.Contains(out, "# Validation report: broken.yaml") {
		t.Errorf("output: %s", out)
	}
	if _, err := execute(t, "validate", "--markdown", "--json", brokenFixture); err == nil {
		t.Error("--markdown and --json together should fail")
	}
}

func TestValidateCmd_FailOn(t *testing.T) {
	warnOnly := "game: {id: g}\nstates:\n  - id: s1\n    components: []\n"
	if _, err := execute(t, "validate", "--no-schema", warnOnly); err != nil {
		t.Fatalf("warnings should pass by default: %v", err)
	}
	if _, err := execute(t, "validate", "--no-schema", "--fail-on", "warn", warnOnly); !errors.Is(err, errInvalid) {
		t.Errorf("--fail-on warn: got %v", err)
	}
	if _, err := execute(t, "validate", "--fail-on", "fatal", warnOnly); err == nil || !strings.Contains(err.Error(), "invalid severity") {
		t.Errorf("bad --fail-on: got %v", err)
	}
}

func TestValidateCmd_FailOnFromEnv(t *testing.T) {
	t.Setenv("GAMEDEF_FAIL_ON", "warn")
	warnOnly := "game: {id: g}\nstates:\n  - id: s1\n    components: []\n"
	if _, err := execute(t, "validate", "--no-schema", warnOnly); !errors.Is(err, errInvalid) {
		t.Errorf("GAMEDEF_FAIL_ON=warn: got %v", err)
	}
}

func TestValidateCmd_Ruleset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "rules:\n  - name: needs-roles\n    given: roles\n    severity: error\n    assert: len(node) >= 2\n"
	if err := os.WriteFile(path, []byte(rules), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "validate", "--no-color", "--ruleset", path, validFixture)
	if !errors.Is(err, errInvalid) || !strings.Contains(out, "needs-roles") {
		t.Errorf("ruleset not applied: %v\n%s", err, out)
	}
}

func TestPreprocessCmd_Includes(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "main.yaml")
	write(t, main, "includes: [extra.yaml]\nstates:\n  - {id: a}\n")
	write(t, filepath.Join(dir, "extra.yaml"), "states:\n  - {id: b}\nroles:\n  - {id: r}\n")

	out, err := execute(t, "preprocess", "--json", main)
	if err != nil {
		t.Fatal(err)
	}
	var merged map[string]any
	if err := json.Unmarshal([]byte(out), &merged); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if states, _ := merged["states"].([]any); len(states) != 2 {
		t.Errorf("states not concatenated: %v", merged["states"])
	}
	if _, ok := merged["roles"]; !ok {
		t.Error("included section missing")
	}
}

func TestSchemaExportCmd(t *testing.T) {
	for _, typ := range []string{"document", "registry"} {
		out, err := execute(t, "schema", "export", "--type", typ)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if !json.Valid([]byte(out)) {
			t.Errorf("%s schema is not JSON", typ)
		}
	}
	if _, err := execute(t, "schema", "export", "--type", "scenario"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestDiagramCmd(t *testing.T) {
	out, err := execute(t, "diagram", "--format", "ascii", validFixture)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Relay Race") || !strings.Contains(out, "lobby") {
		t.Errorf("output: %s", out)
	}
	if _, err := execute(t, "diagram", "--format", "dot", validFixture); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWatchCmd_Once(t *testing.T) {
	out, err := execute(t, "watch", "--count", "1", "--interval", "10ms", validFixture)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "is valid") != 1 {
		t.Errorf("output: %s", out)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "gamedef dev") {
		t.Errorf("output: %s", out)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
