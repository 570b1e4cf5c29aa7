package rules

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/gamedef"
)

// Ruleset is the on-disk form of user-defined rules.
//
//	rules:
//	  - name: rounds-have-timer
//	    given: rounds[*]
//	    severity: warn
//	    assert: hasComponentOfType(node, "timer")
//	    message: round {{id}} has no timer
type Ruleset struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec declares one expression rule.
type RuleSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Given is "<section>", "<section>[*]" or "components[type=<t>]".
	Given    string `yaml:"given"`
	Severity string `yaml:"severity,omitempty"`
	// Assert is an expr program that must evaluate to true.
	Assert  string `yaml:"assert"`
	Message string `yaml:"message,omitempty"`
}

// Env is the evaluation environment of an assert program.
type Env struct {
	Node any    `expr:"node"`
	ID   string `expr:"id"`
	Path string `expr:"path"`

	HasComponentOfType func(node any, componentType string) bool  `expr:"hasComponentOfType"`
	ComponentsOfType   func(node any, componentType string) []any `expr:"componentsOfType"`
	Component          func(id string) any                        `expr:"component"`
	Entities           func(tag string) []any                     `expr:"entities"`
}

var (
	givenEach      = regexp.MustCompile(`^([A-Za-z_][\w-]*)\[\*\]$`)
	givenSection   = regexp.MustCompile(`^([A-Za-z_][\w-]*)$`)
	givenCompType  = regexp.MustCompile(`^components\[type=([\w-]+)\]$`)
	placeholderRef = regexp.MustCompile(`\{\{\s*(id|path)\s*\}\}`)
)

// ParseSelector parses a "given" expression.
func ParseSelector(given string) (Selector, error) {
	given = strings.TrimSpace(given)
	if m := givenCompType.FindStringSubmatch(given); m != nil {
		return ComponentsOfType(m[1]), nil
	}
	if m := givenEach.FindStringSubmatch(given); m != nil {
		return EachEntity(m[1]), nil
	}
	if m := givenSection.FindStringSubmatch(given); m != nil {
		return WholeCollection(m[1]), nil
	}
	return nil, fmt.Errorf("invalid given %q: want <section>, <section>[*] or components[type=<t>]", given)
}

// Compile turns a RuleSpec into a Rule.
func Compile(spec RuleSpec) (Rule, error) {
	if spec.Name == "" {
		return Rule{}, fmt.Errorf("rule has no name")
	}
	sel, err := ParseSelector(spec.Given)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: %w", spec.Name, err)
	}
	sev := diag.SeverityWarn
	if spec.Severity != "" {
		if sev, err = diag.ParseSeverity(spec.Severity); err != nil {
			return Rule{}, fmt.Errorf("rule %s: %w", spec.Name, err)
		}
	}
	if strings.TrimSpace(spec.Assert) == "" {
		return Rule{}, fmt.Errorf("rule %s: assert is required", spec.Name)
	}
	program, err := expr.Compile(spec.Assert, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: compile assert %q: %w", spec.Name, spec.Assert, err)
	}

	message := spec.Message
	if message == "" {
		message = fmt.Sprintf("assertion failed: %s", spec.Assert)
	}
	return Rule{
		Name:        spec.Name,
		Description: spec.Description,
		Severity:    sev,
		Given:       sel,
		Check:       assertCheck(program, spec.Assert, message),
	}, nil
}

func assertCheck(program *vm.Program, source, message string) CheckFunc {
	return func(c *Context, t Target) []diag.Diagnostic {
		out, err := expr.Run(program, newEnv(c, t))
		if err != nil {
			return []diag.Diagnostic{diag.Errorf(t.Path, t.ID, "evaluate %q: %v", source, err)}
		}
		if ok, _ := out.(bool); ok {
			return nil
		}
		return []diag.Diagnostic{{Message: expand(message, t), Path: t.Path, Ref: t.ID}}
	}
}

func expand(message string, t Target) string {
	return placeholderRef.ReplaceAllStringFunc(message, func(m string) string {
		if strings.Contains(m, "path") {
			return t.Path
		}
		return t.ID
	})
}

func newEnv(c *Context, t Target) Env {
	return Env{
		Node: t.Node,
		ID:   t.ID,
		Path: t.Path,
		HasComponentOfType: func(node any, componentType string) bool {
			return len(ownedOfType(c, node, componentType)) > 0
		},
		ComponentsOfType: func(node any, componentType string) []any {
			return ownedOfType(c, node, componentType)
		},
		Component: func(id string) any {
			if comp, ok := c.Component(id); ok {
				return comp.Raw
			}
			return nil
		},
		Entities: func(tag string) []any {
			var out []any
			for _, e := range c.Entities(tag) {
				out = append(out, e.Raw)
			}
			return out
		},
	}
}

// ownedOfType returns the raw components of type t that node lists under
// components (or $components).
func ownedOfType(c *Context, node any, t string) []any {
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	e := gamedef.EntityOf(m)
	var out []any
	for _, comp := range c.ComponentsOfType(e, t) {
		out = append(out, comp.Raw)
	}
	return out
}

// ParseRuleset decodes and compiles a ruleset document.
func ParseRuleset(data []byte) ([]Rule, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse ruleset: %w", err)
	}
	seen := map[string]bool{}
	out := make([]Rule, 0, len(rs.Rules))
	for _, spec := range rs.Rules {
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate rule name %q", spec.Name)
		}
		seen[spec.Name] = true
		r, err := Compile(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadRuleset reads and compiles a ruleset file.
func LoadRuleset(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	rules, err := ParseRuleset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
