// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/urlmatch"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	// defaultRankCap bounds ranked_results regardless of provider count.
	defaultRankCap = 5

	// unresolvedRank sorts results the model did not rank after every
	// ranked one.
	unresolvedRank = 999
)

// RankStage reorders results by credibility using one LLM judgment call
// and owns st.RankedResults. When the model is unavailable or its output
// is unusable, the fallback keeps the first cap results in provider
// order, each with a 0.0 credibility score.
type RankStage struct {
	client      llm.Client
	cap         int
	temperature float64
	logger      *zap.Logger
}

// NewRankStage builds the stage. Pass a nil client when no LLM
// credential is configured.
func NewRankStage(client llm.Client, cfg types.RankConfig, temperature float64, logger *zap.Logger) *RankStage {
	cap := cfg.MaxResults
	if cap <= 0 {
		cap = defaultRankCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankStage{client: client, cap: cap, temperature: temperature, logger: logger}
}

func (s *RankStage) Name() string { return "rank" }

// rankEntry is one element of the model's ranking array.
type rankEntry struct {
	URL    string  `json:"url"`
	Rank   float64 `json:"rank"`
	Reason string  `json:"reason"`
}

func (s *RankStage) Run(ctx context.Context, st *types.PipelineState) {
	if len(st.Results) == 0 {
		s.logger.Error("no results to rank", zap.String("stage", s.Name()))
		st.RankedResults = []types.SearchResult{}
		return
	}

	if s.client == nil {
		s.logger.Error("LLM credential missing, using fallback ordering", zap.String("stage", s.Name()))
		st.RankedResults = s.fallback(st.Results)
		return
	}

	var sources strings.Builder
	for _, r := range st.Results {
		fmt.Fprintf(&sources, "- %s: %s\n", r.Domain, r.Title)
	}
	user := fmt.Sprintf("Query: %s\n\nSources:\n%s\n%s", st.Query, sources.String(), rankPrompt)

	content, err := s.client.Complete(ctx, rankSystemPrompt, user, s.temperature)
	if err != nil {
		s.logger.Error("ranking call failed, using fallback ordering",
			zap.String("stage", s.Name()), zap.Error(err))
		st.RankedResults = s.fallback(st.Results)
		return
	}

	var entries []rankEntry
	if err := json.Unmarshal([]byte(content), &entries); err != nil {
		s.logger.Error("invalid ranking JSON, using fallback ordering",
			zap.String("stage", s.Name()), zap.Error(err))
		st.RankedResults = s.fallback(st.Results)
		return
	}

	// Resolve each proposed entry back to a result. First match wins,
	// scanning in original provider order.
	rankByURL := make(map[string]int)
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		for i := range st.Results {
			if urlmatch.Match(e.URL, st.Results[i].URL) {
				rank := clampRank(int(e.Rank))
				rankByURL[urlmatch.Normalize(st.Results[i].URL)] = rank
				score := 11.0 - float64(rank)
				st.Results[i].CredibilityScore = &score
				break
			}
		}
	}

	if len(rankByURL) == 0 {
		s.logger.Error("no ranking entry matched any result, using fallback ordering",
			zap.String("stage", s.Name()))
		st.RankedResults = s.fallback(st.Results)
		return
	}

	ranked := make([]types.SearchResult, len(st.Results))
	copy(ranked, st.Results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return resolvedRank(rankByURL, ranked[i]) < resolvedRank(rankByURL, ranked[j])
	})
	if len(ranked) > s.cap {
		ranked = ranked[:s.cap]
	}

	// Every ranked entry carries a score, even unresolved stragglers.
	for i := range ranked {
		if ranked[i].CredibilityScore == nil {
			rank := 10
			if r, ok := rankByURL[urlmatch.Normalize(ranked[i].URL)]; ok {
				rank = r
			}
			score := 11.0 - float64(rank)
			ranked[i].CredibilityScore = &score
		}
	}

	st.RankedResults = ranked
	s.logger.Info("ranking complete", zap.String("stage", s.Name()), zap.Int("ranked", len(ranked)))
}

func resolvedRank(rankByURL map[string]int, r types.SearchResult) int {
	if rank, ok := rankByURL[urlmatch.Normalize(r.URL)]; ok {
		return rank
	}
	return unresolvedRank
}

// fallback keeps the first cap results in provider order and gives every
// unscored result a 0.0 credibility score so ranked_results never
// carries a nil score.
func (s *RankStage) fallback(results []types.SearchResult) []types.SearchResult {
	n := len(results)
	if n > s.cap {
		n = s.cap
	}
	ranked := make([]types.SearchResult, n)
	copy(ranked, results[:n])
	for i := range ranked {
		if ranked[i].CredibilityScore == nil {
			zero := 0.0
			ranked[i].CredibilityScore = &zero
		}
	}
	return ranked
}

// clampRank confines model ranks to the 1..10 band the scoring formula
// assumes, so scores stay within 1.0..10.0.
func clampRank(rank int) int {
	if rank < 1 {
		return 1
	}
	if rank > 10 {
		return 10
	}
	return rank
}
