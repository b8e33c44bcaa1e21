package search

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nameSource(candidates ...string) SourceSpec {
	return SourceSpec{
		Key:        "name",
		Candidates: func() []string { return candidates },
		Resolve:    func(s string) any { return "id:" + s },
		AllowFuzzy: true,
	}
}

func defaultOpts() Options {
	return Options{Limit: 10, MinSimilarity: 0.2}
}

func kinds(r Results) []Kind {
	out := make([]Kind, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Kind
	}
	return out
}

func texts(r Results) []string {
	out := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.MatchedText
	}
	return out
}

func TestContainsBothCandidates(t *testing.T) {
	// Both candidates contain the query at position 0 and tie on length,
	// so ordering falls back to code-point comparison of the matched text.
	sources := []SourceSpec{nameSource("阿米娅", "阿米驼")}

	r := SearchOne("阿米", sources, defaultOpts())

	require.Len(t, r.Matches, 2)
	assert.Equal(t, []Kind{KindContains, KindContains}, kinds(r))
	assert.Equal(t, []string{"阿米娅", "阿米驼"}, texts(r))
	assert.Equal(t, r.Matches[0].Score, r.Matches[1].Score)
	assert.Equal(t, "id:阿米娅", r.Matches[0].Value)
}

func TestExactStopsFuzzy(t *testing.T) {
	sources := []SourceSpec{nameSource("阿米娅", "阿米驼")}

	r := SearchOne("阿米娅", sources, defaultOpts())

	require.Len(t, r.Matches, 1)
	assert.Equal(t, KindExact, r.Matches[0].Kind)
	assert.Equal(t, "阿米娅", r.Matches[0].MatchedText)
	assert.Equal(t, 1.0, r.Matches[0].Score)
}

func TestContinueAfterExact(t *testing.T) {
	src := nameSource("阿米娅", "阿米娅(近卫)")
	src.ContinueAfterExact = true
	r := SearchOne("阿米娅", []SourceSpec{src}, defaultOpts())

	require.Len(t, r.Matches, 2)
	assert.Equal(t, KindExact, r.Matches[0].Kind)
	assert.Equal(t, KindContains, r.Matches[1].Kind)
	assert.Equal(t, "阿米娅(近卫)", r.Matches[1].MatchedText)
}

func TestExactOnlyOverridesSourceSettings(t *testing.T) {
	src := nameSource("Silverash", "Silver")
	src.ContinueAfterExact = true

	opts := defaultOpts()
	opts.ExactOnly = true
	r := SearchOne("Silver", []SourceSpec{src}, opts)

	require.Len(t, r.Matches, 1)
	assert.Equal(t, KindExact, r.Matches[0].Kind)
}

func TestAllowFuzzyFalseSkipsFuzzyPasses(t *testing.T) {
	src := nameSource("Silverash")
	src.AllowFuzzy = false

	r := SearchOne("Silver", []SourceSpec{src}, defaultOpts())
	assert.True(t, r.Empty())
}

func TestContainsSuppressesSimilar(t *testing.T) {
	// With contains hits present, no similar entries may appear for the
	// same (query, source) pair even for candidates that would pass the
	// similarity threshold.
	sources := []SourceSpec{nameSource("Exusiai II", "Exusiai III", "Exusia")}

	r := SearchOne("Exusiai", sources, defaultOpts())

	require.Len(t, r.Matches, 2)
	assert.Equal(t, []Kind{KindContains, KindContains}, kinds(r))
}

func TestSimilarPassWhenNoContains(t *testing.T) {
	sources := []SourceSpec{nameSource("Texas", "Lappland")}

	r := SearchOne("Texsa", sources, defaultOpts())

	require.NotEmpty(t, r.Matches)
	assert.Equal(t, KindSimilar, r.Matches[0].Kind)
	assert.Equal(t, "Texas", r.Matches[0].MatchedText)
	assert.GreaterOrEqual(t, r.Matches[0].Score, 0.2)
	assert.Less(t, r.Matches[0].Score, 1.0)
}

func TestMinSimilarityThreshold(t *testing.T) {
	sources := []SourceSpec{nameSource("Lappland")}

	opts := defaultOpts()
	opts.MinSimilarity = 0.9
	r := SearchOne("Texas", sources, opts)
	assert.True(t, r.Empty())
}

func TestRankOrderingAcrossSourcesAndQueries(t *testing.T) {
	sources := []SourceSpec{
		{
			Key:        "name",
			Candidates: func() []string { return []string{"Blaze", "Blaze the Igniting Spark"} },
			Resolve:    func(s string) any { return s },
			AllowFuzzy: true,
		},
		{
			Key:        "skin",
			Candidates: func() []string { return []string{"Blaze Alt", "Bleze"} },
			Resolve:    func(s string) any { return s },
			AllowFuzzy: true,
		},
	}

	r := Search([]string{"Blaze", "Bleze"}, sources, defaultOpts())
	require.NotEmpty(t, r.Matches)

	// All exact results precede all contains results, which precede all
	// similar results.
	lastRank := 0
	for _, m := range r.Matches {
		rank := kindRank(m.Kind)
		assert.GreaterOrEqual(t, rank, lastRank, "kind order violated at %q", m.MatchedText)
		lastRank = rank
	}

	// Exact hits for both queries, first query first.
	assert.Equal(t, "Blaze", r.Matches[0].MatchedText)
	assert.Equal(t, 0, r.Matches[0].QueryOrder)
	assert.Equal(t, "Bleze", r.Matches[1].MatchedText)
	assert.Equal(t, 1, r.Matches[1].QueryOrder)
}

func TestDeterminism(t *testing.T) {
	sources := []SourceSpec{nameSource("阿米娅", "阿米驼", "能天使", "德克萨斯")}
	queries := []string{"阿米", "德克萨斯"}

	first := Search(queries, sources, defaultOpts())
	for i := 0; i < 10; i++ {
		again := Search(queries, sources, defaultOpts())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed from first run", i)
		}
	}
}

func TestDedupBySourceAndText(t *testing.T) {
	// The same candidate reachable through two queries must appear once.
	sources := []SourceSpec{nameSource("阿米娅")}

	r := Search([]string{"阿米", "米娅"}, sources, defaultOpts())

	require.Len(t, r.Matches, 1)
	assert.Equal(t, 0, r.Matches[0].QueryOrder, "first occurrence wins")
}

func TestCapRespected(t *testing.T) {
	sources := []SourceSpec{nameSource("aab", "aac", "aad", "aae", "aaf")}

	opts := defaultOpts()
	opts.Limit = 3
	r := SearchOne("aa", sources, opts)
	assert.Len(t, r.Matches, 3)
}

func TestEmptyInputsShortCircuit(t *testing.T) {
	scanned := false
	src := SourceSpec{
		Key: "name",
		Candidates: func() []string {
			scanned = true
			return []string{"x"}
		},
		AllowFuzzy: true,
	}

	assert.True(t, Search(nil, []SourceSpec{src}, defaultOpts()).Empty())
	assert.True(t, Search([]string{"  ", ""}, []SourceSpec{src}, defaultOpts()).Empty())

	opts := defaultOpts()
	opts.Limit = 0
	assert.True(t, SearchOne("x", []SourceSpec{src}, opts).Empty())

	assert.False(t, scanned, "no source may be scanned for degenerate inputs")
}

func TestEmptySourceSkipped(t *testing.T) {
	sources := []SourceSpec{
		{Key: "empty", Candidates: func() []string { return nil }, AllowFuzzy: true},
		nameSource("Amiya"),
	}

	r := SearchOne("Amiya", sources, defaultOpts())
	require.Len(t, r.Matches, 1)
	assert.Equal(t, "name", r.Matches[0].SourceKey)
}

func TestQueryDedupPreservesOrder(t *testing.T) {
	sources := []SourceSpec{nameSource("Amiya", "Medic Amiya")}

	r := Search([]string{" Amiya ", "Amiya"}, sources, defaultOpts())
	require.NotEmpty(t, r.Matches)
	for _, m := range r.Matches {
		assert.Equal(t, 0, m.QueryOrder)
	}
}

func TestReverseContainmentOption(t *testing.T) {
	sources := []SourceSpec{nameSource("阿米娅(近卫)")}

	// Default: permissive, candidate accepted although "娅近卫" style extra
	// runes never appear in the query.
	r := SearchOne("阿米", sources, defaultOpts())
	require.Len(t, r.Matches, 1)

	// Opt-in strict mode rejects it: the normalized candidate 阿米娅近卫 is
	// not contained in the normalized query 阿米.
	opts := defaultOpts()
	opts.RequireReverseContainment = true
	r = SearchOne("阿米", sources, opts)
	assert.True(t, r.Empty())
}

func TestContainsScoreFavorsEarlierAndCloser(t *testing.T) {
	// Earlier match index wins over a later one.
	early := containsScore("银灰行动", "银灰")
	late := containsScore("行动银灰", "银灰")
	assert.Greater(t, early, late)

	// Closer length wins at equal index.
	closeLen := containsScore("银灰队", "银灰")
	farLen := containsScore("银灰特别行动组", "银灰")
	assert.Greater(t, closeLen, farLen)
}
