package tui

import (
	"fmt"
	"strings"

	"github.com/ormasoftchile/gamedef/pkg/diag"
	"github.com/ormasoftchile/gamedef/pkg/rules"
)

// detailMarkdown documents one diagnostic, followed by the description of the
// rule that raised it when the rule is known.
func detailMarkdown(d diag.Diagnostic, rule *rules.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s at `%s`\n\n", d.Severity, d.Path)
	b.WriteString(d.Message + "\n\n")
	if d.Validator != "" {
		fmt.Fprintf(&b, "- **Validator:** %s\n", d.Validator)
	}
	if d.Rule != "" {
		fmt.Fprintf(&b, "- **Rule:** %s\n", d.Rule)
	}
	if d.Ref != "" {
		fmt.Fprintf(&b, "- **Reference:** `%s`\n", d.Ref)
	}
	if rule != nil && rule.Description != "" {
		fmt.Fprintf(&b, "\n### %s\n\n%s\n", rule.Name, rule.Description)
		if rule.Given != nil {
			fmt.Fprintf(&b, "\nApplies to `%s`.\n", rule.Given)
		}
	}
	return b.String()
}

// rulesMarkdown lists every rule the engine runs.
func rulesMarkdown(rs []rules.Rule) string {
	var b strings.Builder
	b.WriteString("# Rules\n\n")
	if len(rs) == 0 {
		b.WriteString("No rules.\n")
		return b.String()
	}
	b.WriteString("| Rule | Severity | Applies to |\n|---|---|---|\n")
	for _, r := range rs {
		given := ""
		if r.Given != nil {
			given = "`" + r.Given.String() + "`"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Name, r.Severity, given)
	}
	for _, r := range rs {
		if r.Description == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", r.Name, r.Description)
	}
	return b.String()
}
