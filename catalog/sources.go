package catalog

import (
	"sort"

	"github.com/harulab/cardforge/search"
)

// BuildSources exposes a bundle's lookup indices as search sources, in
// priority order: exact display names first, then the punctuation-stripped
// index names. Candidate lists are sorted so repeated searches over the same
// bundle are deterministic.
//
// When keys is non-empty only the named sources are returned, preserving the
// canonical order.
func BuildSources(b *Bundle, keys ...string) []search.SourceSpec {
	sources := []search.SourceSpec{
		{
			Key:        "name",
			Candidates: sortedKeys(b.NameToID),
			Resolve: func(text string) any {
				if op, ok := b.Operators[b.NameToID[text]]; ok {
					return op
				}
				return nil
			},
			AllowFuzzy: true,
		},
		{
			Key:        "index",
			Candidates: sortedKeys(b.IndexToID),
			Resolve: func(text string) any {
				if op, ok := b.Operators[b.IndexToID[text]]; ok {
					return op
				}
				return nil
			},
			AllowFuzzy: true,
		},
	}

	if len(keys) == 0 {
		return sources
	}
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	filtered := sources[:0]
	for _, s := range sources {
		if _, ok := want[s.Key]; ok {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func sortedKeys(m map[string]string) func() []string {
	return func() []string {
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
}
