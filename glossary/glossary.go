// Package glossary answers term lookups against the local glossary table and
// marks glossary terms used inside other texts.
package glossary

import (
	"sort"
	"strings"

	"github.com/harulab/cardforge/catalog"
)

// terms extracts the glossary entries from a bundle's local_glossary table
func terms(b *catalog.Bundle) map[string]string {
	table := b.Table("local_glossary")
	out := make(map[string]string, len(table))
	for term, v := range table {
		if explain, ok := v.(string); ok {
			out[term] = explain
		}
	}
	return out
}

// MarkUsedTerms returns every glossary term that appears inside the text,
// sorted for stable output
func MarkUsedTerms(b *catalog.Bundle, text string) []string {
	if text == "" {
		return nil
	}
	var used []string
	for term := range terms(b) {
		if strings.Contains(text, term) {
			used = append(used, term)
		}
	}
	sort.Strings(used)
	return used
}

// Lookup resolves queries to glossary entries. A query matches a term when
// either contains the other, and matches cascade: terms referenced inside a
// matched explanation are pulled in too, transitively.
func Lookup(b *catalog.Bundle, queries []string) map[string]string {
	glossary := terms(b)

	matched := make(map[string]struct{})
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		for term := range glossary {
			if strings.Contains(q, term) || strings.Contains(term, q) {
				matched[term] = struct{}{}
			}
		}
	}

	for changed := true; changed; {
		changed = false
		for term := range matched {
			for other := range glossary {
				if _, seen := matched[other]; seen {
					continue
				}
				if strings.Contains(glossary[term], other) {
					matched[other] = struct{}{}
					changed = true
				}
			}
		}
	}

	out := make(map[string]string, len(matched))
	for term := range matched {
		out[term] = glossary[term]
	}
	return out
}

// SplitTerms splits user input on the usual Chinese and ASCII separators:
// commas, enumeration commas, semicolons and whitespace
func SplitTerms(s string) []string {
	for _, sep := range []string{"，", ",", "、", ";", "；"} {
		s = strings.ReplaceAll(s, sep, " ")
	}
	return strings.Fields(s)
}
