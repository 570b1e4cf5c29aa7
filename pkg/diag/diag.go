// Package diag defines the diagnostic shape shared by every game definition
// validator (structural, reference and rule checks).
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// rank orders severities so a policy threshold can be compared against them.
func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// String implements pflag.Value.
func (s *Severity) String() string {
	if s == nil || *s == "" {
		return string(SeverityError)
	}
	return string(*s)
}

// Set implements pflag.Value. "warning" is accepted as an alias of "warn".
func (s *Severity) Set(v string) error {
	parsed, err := ParseSeverity(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Severity) Type() string { return "severity" }

// ParseSeverity converts a user-supplied severity name.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "error":
		return SeverityError, nil
	case "warn", "warning":
		return SeverityWarn, nil
	default:
		return "", fmt.Errorf("invalid severity %q: must be error or warn", v)
	}
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	Message   string   `json:"message"   yaml:"message"`
	Path      string   `json:"path"      yaml:"path"`
	Severity  Severity `json:"severity"  yaml:"severity"`
	Ref       string   `json:"ref,omitempty"       yaml:"ref,omitempty"`
	Rule      string   `json:"rule,omitempty"      yaml:"rule,omitempty"`
	Validator string   `json:"validator,omitempty" yaml:"validator,omitempty"`
}

// String formats d for logs and test failures.
func (d Diagnostic) String() string {
	if d.Path != "" {
		return fmt.Sprintf("[%s] %s at %s", d.Severity, d.Message, d.Path)
	}
	return fmt.Sprintf("[%s] %s", d.Severity, d.Message)
}

// Errorf builds an error-severity diagnostic.
func Errorf(path, ref, msg string, args ...any) Diagnostic {
	return Diagnostic{
		Message:  fmt.Sprintf(msg, args...),
		Path:     path,
		Severity: SeverityError,
		Ref:      ref,
	}
}

// Warnf builds a warn-severity diagnostic.
func Warnf(path, ref, msg string, args ...any) Diagnostic {
	return Diagnostic{
		Message:  fmt.Sprintf(msg, args...),
		Path:     path,
		Severity: SeverityWarn,
		Ref:      ref,
	}
}

// Policy decides whether a set of diagnostics fails validation.
type Policy struct {
	// FailOn is the lowest severity that fails validation. Empty means error.
	FailOn Severity
}

// Fails reports whether d alone would fail validation under p.
func (p Policy) Fails(d Diagnostic) bool {
	threshold := p.FailOn
	if threshold == "" {
		threshold = SeverityError
	}
	return d.Severity.rank() >= threshold.rank()
}

// OK reports whether no diagnostic in ds fails validation under p.
func (p Policy) OK(ds []Diagnostic) bool {
	for _, d := range ds {
		if p.Fails(d) {
			return false
		}
	}
	return true
}

// Counts tallies diagnostics by severity.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Count tallies ds.
func Count(ds []Diagnostic) Counts {
	var c Counts
	for _, d := range ds {
		switch d.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarn:
			c.Warnings++
		}
	}
	return c
}

// Filter returns the diagnostics with the given severity.
func Filter(ds []Diagnostic, sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by path, then severity (errors first), then message,
// so output is stable regardless of the order validators finished in.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Severity != b.Severity {
			return a.Severity.rank() > b.Severity.rank()
		}
		return a.Message < b.Message
	})
}

// WithSource stamps validator and rule names onto every diagnostic in ds.
// Existing non-empty values are kept.
func WithSource(ds []Diagnostic, validator, rule string) []Diagnostic {
	for i := range ds {
		if ds[i].Validator == "" {
			ds[i].Validator = validator
		}
		if ds[i].Rule == "" {
			ds[i].Rule = rule
		}
	}
	return ds
}

// JoinPath extends a dotted path with a key.
func JoinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

// IndexPath extends a path with a sequence index.
func IndexPath(base string, i int) string {
	return fmt.Sprintf("%s[%d]", base, i)
}

// UnmarshalText lets a Severity be read from configuration.
func (s *Severity) UnmarshalText(b []byte) error {
	return s.Set(string(b))
}
