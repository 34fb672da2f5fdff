// Package guardrails validates queries before they reach the LLM-backed
// agents. Checks are heuristic and input-side only: agent output is returned
// to the payer unmodified.
package guardrails

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQueryChars caps query length; beyond this the planner prompt degrades
// and token cost becomes unbounded.
const MaxQueryChars = 4000

// Violation describes why a query was rejected.
type Violation struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (v *Violation) Error() string { return v.Kind + ": " + v.Message }

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?|directions?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above|your)\s+(instructions?|prompts?|rules?|context)`),
	regexp.MustCompile(`(?i)new\s+instructions?:\s*`),
	regexp.MustCompile(`(?i)system\s*:\s*you\s+are`),
	regexp.MustCompile(`(?i)reveal\s+(your|the)\s+(system\s+)?(prompt|instructions?)`),
}

// CheckQuery validates a user query. It returns nil when the query may
// proceed, or the first violation found.
func CheckQuery(query string) *Violation {
	if strings.TrimSpace(query) == "" {
		return &Violation{Kind: "empty_query", Message: "query must not be empty"}
	}
	if utf8.RuneCountInString(query) > MaxQueryChars {
		return &Violation{Kind: "max_length", Message: "query exceeds maximum length"}
	}
	for _, re := range injectionPatterns {
		if re.MatchString(query) {
			return &Violation{Kind: "prompt_injection", Message: "query contains a prompt injection pattern"}
		}
	}
	return nil
}
