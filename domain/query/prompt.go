package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ParsePrompt splits a comma separated prompt into terms. Terms are trimmed,
// NFC normalized and deduplicated case-insensitively keeping the first
// spelling and the input order.
func ParsePrompt(raw string) []string {
	return normalizeTerms(strings.Split(raw, ","))
}

// normalizeTerms trims each term and keeps the first spelling of every
// case-insensitive duplicate, in order.
func normalizeTerms(in []string) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{})
	var terms []string
	for _, part := range in {
		term := strings.TrimSpace(norm.NFC.String(part))
		if term == "" {
			continue
		}
		key := fold.String(term)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// Summary renders the settings line shown under the controls.
func Summary(s Snapshot) string {
	text := "-"
	if len(s.Terms) > 0 {
		text = strings.Join(s.Terms, ", ")
	}
	pos, neg := s.Counts()
	return fmt.Sprintf("text: %s | samples: %d+ / %d-", text, pos, neg)
}
