package source

import "regexp"

// Redaction is a compiled rewrite applied to URLs before they reach logs,
// errors or reports.
type Redaction struct {
	Pattern *regexp.Regexp
	Replace string
}

// DefaultRedactions hide URL passwords and credential-like query parameters.
var DefaultRedactions = []Redaction{
	{Pattern: regexp.MustCompile(`(://[^/?#:@]+):[^/?#@\s"]*@`), Replace: "${1}:xxxxx@"},
	{Pattern: regexp.MustCompile(`(?i)([?&](?:access_token|token|key|api_key|apikey|secret|sig|signature|password)=)[^&#\s"]*`), Replace: "${1}xxxxx"},
}

// RedactWith applies every rule to s.
func RedactWith(s string, rules []Redaction) string {
	for _, r := range rules {
		s = r.Pattern.ReplaceAllString(s, r.Replace)
	}
	return s
}

// Redact applies DefaultRedactions to s.
func Redact(s string) string {
	return RedactWith(s, DefaultRedactions)
}
