// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// AnswerFile is the on-disk transcript of one answered query. The CLI
// can save an answer to a file and inspect it later without re-running
// the pipeline.
type AnswerFile struct {
	Query   string          `yaml:"query"`
	History []types.Message `yaml:"history,omitempty"`
	Payload types.Payload   `yaml:"payload"`
	Summary AnswerSummary   `yaml:"summary"`
}

// AnswerSummary stores result statistics and a save timestamp.
type AnswerSummary struct {
	Results   int       `yaml:"results"`
	Topics    int       `yaml:"topics"`
	Sources   int       `yaml:"sources"`
	Timestamp time.Time `yaml:"timestamp"`
}

// WriteAnswerFile saves the answered state to a YAML transcript.
func WriteAnswerFile(path string, st *types.PipelineState) error {
	if st.FinalPayload == nil {
		return fmt.Errorf("state has no final payload")
	}

	af := AnswerFile{
		Query:   st.Query,
		History: st.History,
		Payload: *st.FinalPayload,
		Summary: AnswerSummary{
			Results:   len(st.Results),
			Topics:    len(st.FinalPayload.Topics),
			Sources:   len(st.FinalPayload.Sources),
			Timestamp: time.Now(),
		},
	}

	data, err := yaml.Marshal(&af)
	if err != nil {
		return fmt.Errorf("marshaling answer file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadAnswerFile loads a previously saved transcript from disk.
func ReadAnswerFile(path string) (*AnswerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answer file: %w", err)
	}
	var af AnswerFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing answer file: %w", err)
	}
	return &af, nil
}
