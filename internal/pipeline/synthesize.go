// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	// synthesisSourceCap limits how many results feed the prompt,
	// independent of the upstream result cap.
	synthesisSourceCap = 5

	// maxTopics and maxCitations bound the validated model output.
	maxTopics    = 2
	maxCitations = 5
)

// SynthesizeStage calls the model once to produce the overview, topic
// breakdowns, and citations, and owns st.Overview, st.Answer, st.Topics,
// and st.Citations. A missing credential, empty results, a failed call,
// or unparseable JSON all degrade to empty synthesis output; within a
// parsed response, malformed individual entries are dropped without
// aborting the batch.
type SynthesizeStage struct {
	client      llm.Client
	temperature float64
	logger      *zap.Logger
}

// NewSynthesizeStage builds the stage. Pass a nil client when no LLM
// credential is configured.
func NewSynthesizeStage(client llm.Client, temperature float64, logger *zap.Logger) *SynthesizeStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SynthesizeStage{client: client, temperature: temperature, logger: logger}
}

func (s *SynthesizeStage) Name() string { return "synthesize" }

func (s *SynthesizeStage) Run(ctx context.Context, st *types.PipelineState) {
	s.clear(st)

	if s.client == nil {
		s.logger.Error("LLM credential missing", zap.String("stage", s.Name()))
		return
	}

	// Ranked results feed the prompt when the ranking stage ran; raw
	// provider order otherwise.
	results := st.RankedResults
	if len(results) == 0 {
		results = st.Results
	}
	if len(results) > synthesisSourceCap {
		results = results[:synthesisSourceCap]
	}
	if len(results) == 0 {
		s.logger.Error("no search results", zap.String("stage", s.Name()))
		return
	}

	user := buildSynthesisInput(st.Query, st.History, results)

	content, err := s.client.Complete(ctx, synthesizePrompt, user, s.temperature)
	if err != nil {
		s.logger.Error("synthesis call failed", zap.String("stage", s.Name()), zap.Error(err))
		s.clear(st)
		return
	}

	var raw struct {
		Overview  *string           `json:"overview"`
		Answer    *string           `json:"answer"`
		Topics    []json.RawMessage `json:"topics"`
		Citations []json.RawMessage `json:"citations"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		s.logger.Error("invalid synthesis JSON", zap.String("stage", s.Name()), zap.Error(err))
		s.clear(st)
		return
	}

	overview := ""
	if raw.Overview != nil {
		overview = *raw.Overview
	} else if raw.Answer != nil {
		overview = *raw.Answer
	}
	st.Overview = overview
	st.Answer = overview

	st.Topics = validateTopics(raw.Topics)
	st.Citations = s.validateCitations(raw.Citations, st.Results)

	s.logger.Info("synthesis complete",
		zap.String("stage", s.Name()),
		zap.Int("topics", len(st.Topics)),
		zap.Int("citations", len(st.Citations)),
	)
}

// clear resets the stage's outputs to the degraded default: empty
// strings and empty (non-nil) slices that later stages can iterate.
func (s *SynthesizeStage) clear(st *types.PipelineState) {
	st.Overview = ""
	st.Answer = ""
	st.Topics = []types.Topic{}
	st.Citations = []types.Citation{}
}

// buildSynthesisInput composes the user message: prior conversation,
// the question, and the numbered source list with contextual extras.
func buildSynthesisInput(query string, history []types.Message, results []types.SearchResult) string {
	var contextLines []string
	for _, m := range history {
		if m.Content != "" {
			contextLines = append(contextLines, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
	}

	var sourcesLines []string
	for i, r := range results {
		sourcesLines = append(sourcesLines, formatSource(i+1, r))
	}
	sourcesText := strings.Join(sourcesLines, "\n")

	if len(contextLines) > 0 {
		return fmt.Sprintf("Conversation:\n%s\n\nQuestion: %s\n\nSources:\n%s",
			strings.Join(contextLines, "\n"), query, sourcesText)
	}
	return fmt.Sprintf("Question: %s\n\nSources:\n%s", query, sourcesText)
}

func formatSource(n int, r types.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s", n, r.Title)

	if r.Snippet != "" {
		b.WriteString(" — " + r.Snippet)
	} else if r.ExtendedSnippet != "" {
		b.WriteString(" — " + r.ExtendedSnippet)
	}
	if r.ExtendedSnippet != "" && r.ExtendedSnippet != r.Snippet {
		b.WriteString(" | Extended: " + truncateString(r.ExtendedSnippet, 100))
	}
	if r.Date != "" {
		fmt.Fprintf(&b, " (Date: %s)", r.Date)
	}
	if len(r.Keywords) > 0 {
		kw := r.Keywords
		if len(kw) > 5 {
			kw = kw[:5]
		}
		fmt.Fprintf(&b, " [Keywords: %s]", strings.Join(kw, ", "))
	}
	if r.Breadcrumb != "" {
		b.WriteString(" | Location: " + r.Breadcrumb)
	}
	fmt.Fprintf(&b, " (%s)", r.URL)
	return b.String()
}

// validateTopics keeps entries that decode to {title, content} string
// pairs, capped at maxTopics. Malformed entries are dropped.
func validateTopics(raws []json.RawMessage) []types.Topic {
	topics := []types.Topic{}
	for _, raw := range raws {
		var t struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(raw, &t); err != nil || t.Title == nil || t.Content == nil {
			continue
		}
		topics = append(topics, types.Topic{Title: *t.Title, Content: *t.Content})
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}

// validateCitations keeps entries with a coercible id, truncated to the
// first maxCitations survivors in model order, and back-fills each
// extended snippet by exact-URL lookup against the full result list.
func (s *SynthesizeStage) validateCitations(raws []json.RawMessage, results []types.SearchResult) []types.Citation {
	snippetByURL := make(map[string]string, len(results))
	for _, r := range results {
		snippetByURL[r.URL] = r.ExtendedSnippet
	}

	citations := []types.Citation{}
	for _, raw := range raws {
		var c struct {
			ID    any    `json:"id"`
			Title string `json:"title"`
			URL   string `json:"url"`
		}
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		id, ok := coerceID(c.ID)
		if !ok {
			continue
		}

		citation := types.Citation{ID: id, Title: c.Title, URL: c.URL}
		if snippet, found := snippetByURL[c.URL]; found {
			citation.ExtendedSnippet = snippet
		} else {
			s.logger.Debug("no URL match for citation",
				zap.String("stage", s.Name()), zap.String("url", c.URL))
		}
		citations = append(citations, citation)
		if len(citations) == maxCitations {
			break
		}
	}
	return citations
}

// coerceID converts a JSON id value to an int. Numbers and numeric
// strings are accepted; anything else fails the entry.
func coerceID(v any) (int, bool) {
	switch id := v.(type) {
	case float64:
		return int(id), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
