// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// FormatStage assembles the final payload and appends the assistant turn
// to the conversation history. It owns st.FinalPayload. Assembly is
// panic-guarded: on any failure a minimal payload with empty sources is
// written instead of propagating the error.
type FormatStage struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewFormatStage builds the stage. now is overridable for tests; nil
// means time.Now.
func NewFormatStage(now func() time.Time, logger *zap.Logger) *FormatStage {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormatStage{now: now, logger: logger}
}

func (s *FormatStage) Name() string { return "format" }

func (s *FormatStage) Run(ctx context.Context, st *types.PipelineState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("payload assembly failed",
				zap.String("stage", s.Name()), zap.Any("panic", r))
			st.FinalPayload = s.fallbackPayload(st)
		}
	}()

	overview := st.Overview
	if overview == "" {
		overview = st.Answer
	}

	topics := st.Topics
	if topics == nil {
		topics = []types.Topic{}
	}
	sources := st.Citations
	if sources == nil {
		sources = []types.Citation{}
	}

	// The assistant turn goes into history only when there is an answer
	// to remember.
	if overview != "" {
		full := overview
		for _, t := range topics {
			full += fmt.Sprintf("\n\n%s: %s", t.Title, t.Content)
		}
		st.History = append(st.History, types.Message{Role: types.RoleAssistant, Content: full})
	}

	st.FinalPayload = &types.Payload{
		Question:      st.Query,
		Overview:      overview,
		OverviewImage: st.OverviewImage,
		Topics:        topics,
		Sources:       sources,
		Timestamp:     s.timestamp(),
	}
}

func (s *FormatStage) timestamp() string {
	return s.now().UTC().Format(types.TimestampLayout)
}

func (s *FormatStage) fallbackPayload(st *types.PipelineState) *types.Payload {
	overview := st.Overview
	if overview == "" {
		overview = st.Answer
	}
	topics := st.Topics
	if topics == nil {
		topics = []types.Topic{}
	}
	return &types.Payload{
		Question:      st.Query,
		Overview:      overview,
		OverviewImage: st.OverviewImage,
		Topics:        topics,
		Sources:       []types.Citation{},
		Timestamp:     s.timestamp(),
	}
}
