// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
)

// maxRelatedQuestions bounds the related-questions list.
const maxRelatedQuestions = 5

// relatedTemperatureBoost adds variety on top of the base sampling
// temperature for related-question generation.
const relatedTemperatureBoost = 0.2

// RelatedQuestions generates follow-up questions for a query with one
// LLM call. Every failure mode (no credential, call error, unusable
// output) yields an empty list; this is decoration, never required.
func RelatedQuestions(ctx context.Context, client llm.Client, query string, temperature float64, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("LLM credential missing, returning no related questions")
		return []string{}
	}

	prompt := fmt.Sprintf(relatedPromptFormat, query)
	content, err := client.Complete(ctx, relatedSystemPrompt, prompt, temperature+relatedTemperatureBoost)
	if err != nil {
		logger.Error("related questions call failed", zap.Error(err))
		return []string{}
	}

	questions := parseQuestionArray(content)
	logger.Info("related questions generated", zap.Int("count", len(questions)))
	return questions
}

// parseQuestionArray extracts a JSON string array from the completion,
// tolerating prose around the brackets. Non-string and empty entries
// are dropped; at most maxRelatedQuestions survive.
func parseQuestionArray(content string) []string {
	content = strings.TrimSpace(content)

	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start >= 0 && end > start {
		content = content[start : end+1]
	}

	var raw []any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return []string{}
	}

	questions := []string{}
	for _, entry := range raw {
		q, ok := entry.(string)
		if !ok {
			continue
		}
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		questions = append(questions, q)
		if len(questions) == maxRelatedQuestions {
			break
		}
	}
	return questions
}
