package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// Redactor scrubs identity tokens from log fields.
//
// Field values are redacted in two ways: any key that names a token is
// replaced wholesale, and token-shaped substrings (bearer tokens, long
// opaque credentials) are masked inside free-form values.
type Redactor struct {
	tokenKeys map[string]struct{}
	patterns  []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in token patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		tokenKeys: map[string]struct{}{
			"token":        {},
			"auth_token":   {},
			"access_token": {},
			"api_key":      {},
		},
		patterns: []*redactPattern{
			{
				regex:       regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._\-]+`),
				replacement: "Bearer ***",
			},
			{
				// Long opaque credential-looking strings.
				regex:       regexp.MustCompile(`\b[a-zA-Z0-9_\-]{32,}\b`),
				replacement: "***",
			},
		},
	}
}

// RedactArgs redacts slog-style alternating key/value args.
func (r *Redactor) RedactArgs(args ...any) []any {
	out := make([]any, len(args))
	copy(out, args)

	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if _, sensitive := r.tokenKeys[strings.ToLower(key)]; sensitive {
			out[i+1] = "***"
			continue
		}
		if s, ok := out[i+1].(string); ok {
			out[i+1] = r.redactString(s)
		}
	}
	return out
}

// RedactString masks token-shaped substrings in s.
func (r *Redactor) RedactString(s string) string {
	return r.redactString(s)
}

// RedactError masks token-shaped substrings in an error message.
func (r *Redactor) RedactError(err error) error {
	if err == nil {
		return nil
	}
	redacted := r.redactString(err.Error())
	if redacted == err.Error() {
		return err
	}
	return fmt.Errorf("%s", redacted)
}

func (r *Redactor) redactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}
