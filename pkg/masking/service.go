// Package masking redacts personally identifying values before they reach
// logs or admin endpoints. Identifying fields are never written verbatim on
// any path, success or error.
package masking

import (
	"regexp"
	"strings"
)

// CompiledPattern holds a pre-compiled regex with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// Service applies the built-in masking rules. Stateless after construction
// and safe for concurrent use.
type Service struct {
	patterns []*CompiledPattern
}

// NewService compiles the built-in patterns.
func NewService() *Service {
	return &Service{
		patterns: []*CompiledPattern{
			{
				Name: "email",
				// keep the first character of the local part and the domain
				Regex:       regexp.MustCompile(`\b([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*@([A-Za-z0-9.-]+\.[A-Za-z]{2,})\b`),
				Replacement: "$1***@$2",
			},
		},
	}
}

// Email masks the local part of an address: "user@domain" → "u***@domain".
// Values that don't look like an address are fully redacted.
func (s *Service) Email(email string) string {
	at := strings.Index(email, "@")
	if at < 1 {
		return "***"
	}
	return email[:1] + "***@" + email[at+1:]
}

// IDLast4 masks the first two of the four digits: "1234" → "**34".
func (s *Service) IDLast4(last4 string) string {
	if len(last4) != 4 {
		return "****"
	}
	return "**" + last4[2:]
}

// Name keeps the first letter only: "Tony Stark" → "T***".
func (s *Service) Name(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return name[:1] + "***"
}

// Text applies the compiled patterns to free text (e.g. error messages that
// may echo user input).
func (s *Service) Text(text string) string {
	for _, p := range s.patterns {
		text = p.Regex.ReplaceAllString(text, p.Replacement)
	}
	return text
}

// Collected returns a masked copy of a collected-data mapping, suitable for
// session admin responses and logs. Non-PII keys pass through unchanged.
func (s *Service) Collected(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	masked := make(map[string]any, len(data))
	for k, v := range data {
		sv, isString := v.(string)
		switch {
		case k == "email" && isString:
			masked[k] = s.Email(sv)
		case k == "id_last4" && isString:
			masked[k] = s.IDLast4(sv)
		case k == "name" && isString:
			masked[k] = s.Name(sv)
		default:
			masked[k] = v
		}
	}
	return masked
}
