package alias

import (
	"context"
	"sort"

	"github.com/harulab/cardforge/catalog"
	"github.com/harulab/cardforge/search"
)

// BuildSource snapshots the store and exposes every nickname whose target is
// a known operator name as one search source. The snapshot keeps a Search
// call consistent even when aliases are taught concurrently.
func BuildSource(ctx context.Context, store *Store, b *catalog.Bundle) (search.SourceSpec, error) {
	all, err := store.All(ctx)
	if err != nil {
		return search.SourceSpec{}, err
	}

	resolved := make(map[string]*catalog.Operator)
	for nickname, targets := range all {
		for _, target := range targets {
			if op, ok := b.OperatorByName(target); ok {
				resolved[nickname] = op
				break
			}
		}
	}

	candidates := make([]string, 0, len(resolved))
	for nickname := range resolved {
		candidates = append(candidates, nickname)
	}
	sort.Strings(candidates)

	return search.SourceSpec{
		Key:        "alias",
		Candidates: func() []string { return candidates },
		Resolve: func(text string) any {
			if op, ok := resolved[text]; ok {
				return op
			}
			return nil
		},
		AllowFuzzy: true,
	}, nil
}
