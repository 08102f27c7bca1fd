// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. There is no retry anywhere in
	// the pipeline: a timed-out call degrades to the stage's fallback.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "answer-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SERPConfig holds settings for the SERP provider (web and image search).
type SERPConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the SERP request broker.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Zone is the provider zone identifier required by the broker.
	Zone string `json:"zone,omitempty" yaml:"zone,omitempty"`

	// MaxResults is the number of organic entries requested (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// LLMConfig holds settings for stages that call the chat-completions API.
type LLMConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// RankConfig holds settings for the optional ranking stage.
type RankConfig struct {
	// Enabled inserts the ranking stage between search and synthesis.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxResults caps ranked_results (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EnrichConfig holds settings for the image enrichment stage.
type EnrichConfig struct {
	// MaxWorkers caps concurrent image searches (default 5). The
	// effective pool size is min(pending citations, MaxWorkers).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`
}

// CheckpointBackend identifies the checkpoint store implementation.
type CheckpointBackend string

const (
	CheckpointSQLite CheckpointBackend = "sqlite"
	CheckpointRedis  CheckpointBackend = "redis"
)

// CheckpointConfig holds settings for session checkpoint persistence.
type CheckpointConfig struct {
	// Backend selects the store: sqlite or redis.
	Backend CheckpointBackend `json:"backend" yaml:"backend"`

	// Dir is the directory holding the SQLite database file.
	Dir string `json:"dir" yaml:"dir"`

	// RedisAddr is the Redis host:port for the redis backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// RedisPassword authenticates against Redis when set.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	// TTL is how long Redis checkpoints live (default 24h). Ignored by
	// the SQLite backend.
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists CORS origins permitted to call the API.
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	SERP       SERPConfig       `json:"serp" yaml:"serp"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Rank       RankConfig       `json:"rank" yaml:"rank"`
	Enrich     EnrichConfig     `json:"enrich" yaml:"enrich"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}
