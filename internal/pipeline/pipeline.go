// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a query through the fixed answer pipeline:
// search, optional ranking, synthesis, image enrichment, and output
// formatting. Stages execute strictly in order over one shared state;
// every external failure degrades to the stage's defined fallback, so a
// run always ends with a final payload.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/serp"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// SearchProvider issues one web search and returns the parsed SERP.
type SearchProvider interface {
	Search(ctx context.Context, query string) (*serp.Body, error)
}

// ImageProvider issues one image search and returns the parsed SERP.
type ImageProvider interface {
	ImageSearch(ctx context.Context, query string) (*serp.Body, error)
}

// Stage is one pipeline step. Run reads the fields earlier stages
// produced and mutates only the fields the stage owns. Stages do not
// return errors: failures are logged and leave the stage's degraded
// default in place.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *types.PipelineState)
}

// Pipeline executes stages sequentially over a shared state.
type Pipeline struct {
	stages []Stage
	logger *zap.Logger
}

// New builds a pipeline from an ordered stage list.
func New(logger *zap.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{stages: stages, logger: logger}
}

// Run executes every stage in order and returns the same state. No
// stage starts before the previous one completes; a panic inside a
// stage is contained at the stage boundary and the run continues with
// whatever the stage had produced so far.
func (p *Pipeline) Run(ctx context.Context, st *types.PipelineState) *types.PipelineState {
	for _, s := range p.stages {
		p.runStage(ctx, s, st)
	}
	return st
}

func (p *Pipeline) runStage(ctx context.Context, s Stage, st *types.PipelineState) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("stage panic",
				zap.String("stage", s.Name()),
				zap.Any("panic", r),
			)
		}
	}()

	p.logger.Info("stage start", zap.String("stage", s.Name()))
	s.Run(ctx, st)
	p.logger.Info("stage end", zap.String("stage", s.Name()))
}
