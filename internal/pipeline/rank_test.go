// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func rankResults(urls ...string) []types.SearchResult {
	results := make([]types.SearchResult, len(urls))
	for i, u := range urls {
		results[i] = types.SearchResult{Title: fmt.Sprintf("r%d", i), URL: u, Domain: u}
	}
	return results
}

func TestRankStageOrdersByModelRank(t *testing.T) {
	client := &fakeLLM{response: `[
		{"url": "https://b.example/post", "rank": 1, "reason": "authoritative"},
		{"url": "https://a.example/post", "rank": 3, "reason": "secondary"}
	]`}

	st := types.NewPipelineState("q", nil)
	st.Results = rankResults("https://a.example/post", "https://b.example/post")

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.Len(t, st.RankedResults, 2)
	assert.Equal(t, "https://b.example/post", st.RankedResults[0].URL)
	assert.Equal(t, "https://a.example/post", st.RankedResults[1].URL)

	require.NotNil(t, st.RankedResults[0].CredibilityScore)
	assert.Equal(t, 10.0, *st.RankedResults[0].CredibilityScore)
	require.NotNil(t, st.RankedResults[1].CredibilityScore)
	assert.Equal(t, 8.0, *st.RankedResults[1].CredibilityScore)
}

func TestRankStagePartialRanking(t *testing.T) {
	client := &fakeLLM{response: `[
		{"url": "https://a.example/1", "rank": 1},
		{"url": "https://b.example/2", "rank": 2}
	]`}

	st := types.NewPipelineState("q", nil)
	st.Results = rankResults("https://c.example/3", "https://a.example/1", "https://b.example/2")

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.Len(t, st.RankedResults, 3)
	assert.Equal(t, "https://a.example/1", st.RankedResults[0].URL)
	assert.Equal(t, "https://b.example/2", st.RankedResults[1].URL)
	assert.Equal(t, "https://c.example/3", st.RankedResults[2].URL)
	assert.Equal(t, 10.0, *st.RankedResults[0].CredibilityScore)
	assert.Equal(t, 9.0, *st.RankedResults[1].CredibilityScore)
	require.NotNil(t, st.RankedResults[2].CredibilityScore)
}

func TestRankStageClampsOutOfRangeRanks(t *testing.T) {
	client := &fakeLLM{response: `[
		{"url": "https://a.example/x", "rank": 0},
		{"url": "https://b.example/y", "rank": 42}
	]`}

	st := types.NewPipelineState("q", nil)
	st.Results = rankResults("https://a.example/x", "https://b.example/y")

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.Len(t, st.RankedResults, 2)
	assert.Equal(t, 10.0, *st.RankedResults[0].CredibilityScore)
	assert.Equal(t, 1.0, *st.RankedResults[1].CredibilityScore)
}

func TestRankStageUnrankedResultsSortLast(t *testing.T) {
	client := &fakeLLM{response: `[{"url": "https://c.example/z", "rank": 2}]`}

	st := types.NewPipelineState("q", nil)
	st.Results = rankResults("https://a.example/x", "https://b.example/y", "https://c.example/z")

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.Len(t, st.RankedResults, 3)
	assert.Equal(t, "https://c.example/z", st.RankedResults[0].URL)
	// Unranked results keep provider order behind the ranked one and
	// still carry a score.
	assert.Equal(t, "https://a.example/x", st.RankedResults[1].URL)
	assert.Equal(t, "https://b.example/y", st.RankedResults[2].URL)
	require.NotNil(t, st.RankedResults[1].CredibilityScore)
	assert.Equal(t, 1.0, *st.RankedResults[1].CredibilityScore)
}

func TestRankStageMatchesNormalizedURLs(t *testing.T) {
	client := &fakeLLM{response: `[{"url": "HTTP://WWW.Example.com/article/", "rank": 1}]`}

	st := types.NewPipelineState("q", nil)
	st.Results = rankResults("https://example.com/article")

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.Len(t, st.RankedResults, 1)
	assert.Equal(t, 10.0, *st.RankedResults[0].CredibilityScore)
}

func TestRankStageCapsRankedResults(t *testing.T) {
	client := &fakeLLM{response: `[{"url": "https://u0.example", "rank": 1}]`}

	st := types.NewPipelineState("q", nil)
	for i := 0; i < 8; i++ {
		st.Results = append(st.Results, types.SearchResult{URL: fmt.Sprintf("https://u%d.example", i)})
	}

	NewRankStage(client, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)
	assert.Len(t, st.RankedResults, defaultRankCap)
}

func TestRankStageFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeLLM
	}{
		{"nil client", nil},
		{"call error", &fakeLLM{err: fmt.Errorf("rate limited")}},
		{"invalid JSON", &fakeLLM{response: "sorry, no ranking today"}},
		{"no URL matches", &fakeLLM{response: `[{"url": "https://unrelated.example", "rank": 1}]`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := types.NewPipelineState("q", nil)
			st.Results = rankResults("https://a.example/x", "https://b.example/y")

			stage := NewRankStage(nil, types.RankConfig{}, 0.2, nil)
			if tt.client != nil {
				stage = NewRankStage(tt.client, types.RankConfig{}, 0.2, nil)
			}
			stage.Run(context.Background(), st)

			require.Len(t, st.RankedResults, 2)
			// Fallback preserves provider order with 0.0 scores.
			assert.Equal(t, "https://a.example/x", st.RankedResults[0].URL)
			for _, r := range st.RankedResults {
				require.NotNil(t, r.CredibilityScore)
				assert.Equal(t, 0.0, *r.CredibilityScore)
			}
		})
	}
}

func TestRankStageEmptyResults(t *testing.T) {
	st := types.NewPipelineState("q", nil)
	NewRankStage(&fakeLLM{response: "[]"}, types.RankConfig{}, 0.2, nil).Run(context.Background(), st)

	require.NotNil(t, st.RankedResults)
	assert.Empty(t, st.RankedResults)
}
