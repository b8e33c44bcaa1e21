// Package search implements multi-source fuzzy resolution of user queries
// against catalog snapshots.
//
// Every (query, source) pair is matched in three passes with a fixed
// precedence: exact equality, substring containment, then string similarity.
// Results from all pairs are merged, ordered, deduplicated and capped. The
// engine is a pure computation over the candidate lists the sources expose;
// it holds no state and is safe for concurrent use.
package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies how a candidate matched the query
type Kind string

const (
	KindExact    Kind = "exact"
	KindContains Kind = "contains"
	KindSimilar  Kind = "similar"
)

func kindRank(k Kind) int {
	switch k {
	case KindExact:
		return 0
	case KindContains:
		return 1
	case KindSimilar:
		return 2
	}
	return 99
}

// SourceSpec describes one searchable attribute: its candidate strings and
// how a matched candidate resolves to its owning entity. Candidates and
// Resolve must be consistent with a single snapshot for the duration of a
// Search call.
type SourceSpec struct {
	Key        string
	Candidates func() []string
	Resolve    func(string) any

	// ContinueAfterExact keeps the contains/similar passes running for this
	// source even after an exact hit
	ContinueAfterExact bool

	// AllowFuzzy permits the contains/similar passes for this source.
	// The global ExactOnly option overrides it.
	AllowFuzzy bool
}

// MatchResult is one scored hit. Immutable once produced.
type MatchResult struct {
	SourceKey   string
	MatchedText string
	Value       any
	Kind        Kind
	Score       float64
	SourceOrder int
	QueryOrder  int
}

// Results is the ordered, deduplicated outcome of a Search call
type Results struct {
	Matches []MatchResult
}

// First returns the best match, or nil when there is none
func (r Results) First() *MatchResult {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// ByKey returns all matches produced by the source with the given key
func (r Results) ByKey(key string) []MatchResult {
	var out []MatchResult
	for _, m := range r.Matches {
		if m.SourceKey == key {
			out = append(out, m)
		}
	}
	return out
}

// Empty reports whether no candidate matched
func (r Results) Empty() bool {
	return len(r.Matches) == 0
}

// Options are the global switches of a Search call
type Options struct {
	// Limit caps the merged result list. Zero or negative yields an empty
	// result without scanning any source.
	Limit int

	// ExactOnly disables the contains/similar passes for every source,
	// overriding per-source AllowFuzzy and ContinueAfterExact.
	ExactOnly bool

	// MinSimilarity is the inclusive threshold for the similarity pass, in [0,1]
	MinSimilarity float64

	// RequireReverseContainment additionally requires the normalized matched
	// candidate to reappear inside the normalized query before accepting a
	// fuzzy match. Off by default; earlier revisions of the matcher enforced
	// this and it is kept available as an explicit opt-in.
	RequireReverseContainment bool
}

// Search resolves one or more query strings against the sources in priority
// order and returns the merged ranked matches. "No match" is a normal empty
// result, never an error.
func Search(queries []string, sources []SourceSpec, opts Options) Results {
	qs := normalizeQueries(queries)
	if len(qs) == 0 || opts.Limit <= 0 {
		return Results{}
	}

	var all []MatchResult
	for qi, q := range qs {
		all = append(all, searchOneQuery(q, qi, sources, opts)...)
	}

	// Merge order: exact before contains before similar; within a kind by
	// query order, then source order, then score descending, then matched
	// text by code point for a stable total order.
	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		if a.QueryOrder != b.QueryOrder {
			return a.QueryOrder < b.QueryOrder
		}
		if a.SourceOrder != b.SourceOrder {
			return a.SourceOrder < b.SourceOrder
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.MatchedText < b.MatchedText
	})

	type dedupKey struct {
		source string
		text   string
	}
	seen := make(map[dedupKey]struct{}, len(all))
	deduped := make([]MatchResult, 0, min(len(all), opts.Limit))
	for _, m := range all {
		k := dedupKey{m.SourceKey, m.MatchedText}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		deduped = append(deduped, m)
		if len(deduped) >= opts.Limit {
			break
		}
	}

	return Results{Matches: deduped}
}

// SearchOne is Search for a single query string
func SearchOne(query string, sources []SourceSpec, opts Options) Results {
	return Search([]string{query}, sources, opts)
}

func searchOneQuery(query string, queryOrder int, sources []SourceSpec, opts Options) []MatchResult {
	var results []MatchResult

	queryNorm := ""
	if opts.RequireReverseContainment {
		queryNorm = normalizeText(query)
	}

	for si, spec := range sources {
		cand := spec.Candidates()
		if len(cand) == 0 {
			continue
		}

		hasExact := false
		for _, c := range cand {
			if c == query {
				hasExact = true
				results = append(results, MatchResult{
					SourceKey:   spec.Key,
					MatchedText: c,
					Value:       resolve(spec, c),
					Kind:        KindExact,
					Score:       1.0,
					SourceOrder: si,
					QueryOrder:  queryOrder,
				})
			}
		}

		if opts.ExactOnly {
			continue
		}
		if !spec.AllowFuzzy {
			continue
		}
		if hasExact && !spec.ContinueAfterExact {
			continue
		}

		accept := func(c string) bool {
			if !opts.RequireReverseContainment {
				return true
			}
			return strings.Contains(queryNorm, normalizeText(c))
		}

		// Contains pass. Any hit here suppresses the similarity pass for
		// this (query, source) pair entirely.
		hasContains := false
		for _, c := range cand {
			if c == query || !strings.Contains(c, query) {
				continue
			}
			hasContains = true
			if !accept(c) {
				continue
			}
			results = append(results, MatchResult{
				SourceKey:   spec.Key,
				MatchedText: c,
				Value:       resolve(spec, c),
				Kind:        KindContains,
				Score:       containsScore(c, query),
				SourceOrder: si,
				QueryOrder:  queryOrder,
			})
		}
		if hasContains {
			continue
		}

		for _, c := range cand {
			if c == query {
				continue
			}
			s := Similarity(query, c)
			if s < opts.MinSimilarity {
				continue
			}
			if !accept(c) {
				continue
			}
			results = append(results, MatchResult{
				SourceKey:   spec.Key,
				MatchedText: c,
				Value:       resolve(spec, c),
				Kind:        KindSimilar,
				Score:       s,
				SourceOrder: si,
				QueryOrder:  queryOrder,
			})
		}
	}

	return results
}

// containsScore favors matches that start earlier in the candidate and whose
// length is closer to the query's. Positions and lengths count runes so CJK
// candidates score the same as ASCII ones.
func containsScore(candidate, query string) float64 {
	byteIdx := strings.Index(candidate, query)
	runeIdx := utf8.RuneCountInString(candidate[:byteIdx])
	lenDiff := utf8.RuneCountInString(candidate) - utf8.RuneCountInString(query)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	return 1.0/float64(1+runeIdx) + 1.0/float64(1+lenDiff)
}

func resolve(spec SourceSpec, candidate string) any {
	if spec.Resolve == nil {
		return nil
	}
	return spec.Resolve(candidate)
}

// normalizeQueries trims, drops blanks and removes duplicates while
// preserving first-seen order
func normalizeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}

// normalizeText strips everything except letters, digits and underscore
func normalizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
