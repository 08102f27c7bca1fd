// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/serp"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// loadPipelineConfig assembles configuration from the config file,
// ANSWER_ENGINE_* environment variables, and .secrets/ files.
func loadPipelineConfig() types.PipelineConfig {
	viper.SetDefault("serp.max_results", 10)
	viper.SetDefault("serp.timeout", "30s")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.timeout", "60s")
	viper.SetDefault("rank.enabled", false)
	viper.SetDefault("rank.max_results", 5)
	viper.SetDefault("enrich.max_workers", 5)
	viper.SetDefault("checkpoint.backend", "sqlite")
	viper.SetDefault("checkpoint.dir", ".answer-engine")
	viper.SetDefault("checkpoint.ttl", "24h")
	viper.SetDefault("server.addr", ":8080")

	return types.PipelineConfig{
		SERP: types.SERPConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("serp.timeout"),
				UserAgent: "answer-engine/" + version,
			},
			APIKey:     secretDefault("serp-api-key", viper.GetString("serp.api_key")),
			Zone:       secretDefault("serp-zone", viper.GetString("serp.zone")),
			MaxResults: viper.GetInt("serp.max_results"),
		},
		LLM: types.LLMConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("llm.timeout"),
				UserAgent: "answer-engine/" + version,
			},
			Model:       viper.GetString("llm.model"),
			APIKey:      secretDefault("openai-api-key", viper.GetString("llm.api_key")),
			BaseURL:     viper.GetString("llm.base_url"),
			Temperature: viper.GetFloat64("llm.temperature"),
		},
		Rank: types.RankConfig{
			Enabled:    viper.GetBool("rank.enabled"),
			MaxResults: viper.GetInt("rank.max_results"),
		},
		Enrich: types.EnrichConfig{
			MaxWorkers: viper.GetInt("enrich.max_workers"),
		},
		Checkpoint: types.CheckpointConfig{
			Backend:       types.CheckpointBackend(viper.GetString("checkpoint.backend")),
			Dir:           viper.GetString("checkpoint.dir"),
			RedisAddr:     viper.GetString("checkpoint.redis_addr"),
			RedisPassword: viper.GetString("checkpoint.redis_password"),
			TTL:           viper.GetDuration("checkpoint.ttl"),
		},
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		},
	}
}

// engine bundles the assembled pipeline with the pieces the API and CLI
// need around it.
type engine struct {
	pipeline    *pipeline.Pipeline
	llmClient   llm.Client
	temperature float64
	logger      *zap.Logger
}

// newEngine wires clients and stages from config. Missing credentials
// produce nil clients; the stages then degrade instead of failing.
func newEngine(cfg types.PipelineConfig, logger *zap.Logger) *engine {
	var serpClient *serp.Client
	var search pipeline.SearchProvider
	var images pipeline.ImageProvider
	if cfg.SERP.APIKey != "" && cfg.SERP.Zone != "" {
		serpClient = serp.NewClient(cfg.SERP, "")
		search = serpClient
		images = serpClient
	} else {
		logger.Warn("SERP credentials not configured, search and images disabled")
	}

	var llmClient llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewOpenAIClient(cfg.LLM, llm.Options{})
	} else {
		logger.Warn("LLM credential not configured, synthesis disabled")
	}

	stages := []pipeline.Stage{pipeline.NewSearchStage(search, logger)}
	if cfg.Rank.Enabled {
		stages = append(stages, pipeline.NewRankStage(llmClient, cfg.Rank, cfg.LLM.Temperature, logger))
	}
	stages = append(stages,
		pipeline.NewSynthesizeStage(llmClient, cfg.LLM.Temperature, logger),
		pipeline.NewEnrichStage(images, cfg.Enrich, logger),
		pipeline.NewFormatStage(nil, logger),
	)

	return &engine{
		pipeline:    pipeline.New(logger, stages...),
		llmClient:   llmClient,
		temperature: cfg.LLM.Temperature,
		logger:      logger,
	}
}

// Answer runs the full pipeline for one query.
func (e *engine) Answer(ctx context.Context, query string, history []types.Message) (*types.Payload, []types.Message) {
	st := types.NewPipelineState(query, history)
	start := time.Now()
	e.pipeline.Run(ctx, st)
	e.logger.Info("query answered",
		zap.String("query", query),
		zap.Duration("duration", time.Since(start)),
	)
	return st.FinalPayload, st.History
}

// Related generates follow-up question suggestions.
func (e *engine) Related(ctx context.Context, query string) []string {
	return pipeline.RelatedQuestions(ctx, e.llmClient, query, e.temperature, e.logger)
}
