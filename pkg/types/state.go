// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
package types

import "time"

// Role values for conversation history turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// SearchResult represents one organic hit returned by the SERP provider.
// Title, URL, Snippet, and Domain are always populated; the remaining
// fields are contextual extras used opportunistically by later stages.
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Domain  string `json:"domain" yaml:"domain"`

	// ExtendedSnippet is the longer snippet variant when the provider
	// returns both a short description and a full snippet.
	ExtendedSnippet string `json:"extended_snippet,omitempty" yaml:"extended_snippet,omitempty"`

	// SnippetHighlighted lists the query terms the provider highlighted.
	SnippetHighlighted []string `json:"snippet_highlighted,omitempty" yaml:"snippet_highlighted,omitempty"`

	// Position is the provider's 1-based ranking position.
	Position int `json:"position,omitempty" yaml:"position,omitempty"`

	// Date is the publication or update date string as the provider gave it.
	Date string `json:"date,omitempty" yaml:"date,omitempty"`

	// Cite is the provider's citation string (e.g. "example.com").
	Cite string `json:"cite,omitempty" yaml:"cite,omitempty"`

	// Thumbnail is a preview image URL for the result page.
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`

	// Breadcrumb is the site navigation path shown under the title.
	Breadcrumb string `json:"breadcrumb,omitempty" yaml:"breadcrumb,omitempty"`

	// Keywords come from the provider's "about this result" block.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// CachedLink is the provider's cached-page URL.
	CachedLink string `json:"cached_link,omitempty" yaml:"cached_link,omitempty"`

	// CredibilityScore is assigned by the ranking stage: 11.0 minus the
	// LLM rank (higher = more trustworthy), or 0.0 on the fallback path.
	// Nil means the ranking stage has not scored this result.
	CredibilityScore *float64 `json:"credibility_score,omitempty" yaml:"credibility_score,omitempty"`
}

// Citation is a numbered reference in the synthesized overview. ID matches
// the inline marker [id] and is unique within a response.
type Citation struct {
	ID    int    `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`

	// Image is filled by the enrichment stage; empty means no image found.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// ExtendedSnippet is copied from the matching SearchResult at
	// synthesis time; empty when no result matched the citation URL.
	ExtendedSnippet string `json:"extended_snippet,omitempty" yaml:"extended_snippet,omitempty"`
}

// Topic is one of the short topic breakdowns accompanying the overview.
type Topic struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Payload is the final structured response returned by the API.
type Payload struct {
	Question      string     `json:"question" yaml:"question"`
	Overview      string     `json:"overview" yaml:"overview"`
	OverviewImage string     `json:"overview_image,omitempty" yaml:"overview_image,omitempty"`
	Topics        []Topic    `json:"topics" yaml:"topics"`
	Sources       []Citation `json:"sources" yaml:"sources"`
	Timestamp     string     `json:"timestamp" yaml:"timestamp"`
}

// PipelineState is the single unit of work threaded through every stage.
// Each stage reads the fields earlier stages produced, mutates its own
// output fields in place, and leaves everything else alone. A state is
// created once per incoming query and discarded after formatting.
type PipelineState struct {
	// Query is immutable after creation.
	Query string `json:"query" yaml:"query"`

	// History is the append-only conversation log; the formatter appends
	// the assistant turn after each successful synthesis.
	History []Message `json:"history" yaml:"history"`

	// Results is the raw provider output, owned by the search stage.
	Results []SearchResult `json:"results,omitempty" yaml:"results,omitempty"`

	// RankedResults is the ranking stage's output; a distinct list that
	// may overlap with Results.
	RankedResults []SearchResult `json:"ranked_results,omitempty" yaml:"ranked_results,omitempty"`

	// Answer mirrors Overview for payload compatibility with older clients.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`

	// Overview is the synthesized answer text with inline [n] citations.
	Overview string `json:"overview,omitempty" yaml:"overview,omitempty"`

	// OverviewImage is a single decorative image for the overview.
	OverviewImage string `json:"overview_image,omitempty" yaml:"overview_image,omitempty"`

	Topics    []Topic    `json:"topics,omitempty" yaml:"topics,omitempty"`
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`

	// FinalPayload is produced by the formatter stage.
	FinalPayload *Payload `json:"final_payload,omitempty" yaml:"final_payload,omitempty"`
}

// NewPipelineState creates the state for one incoming query, seeding the
// history with the user turn.
func NewPipelineState(query string, history []Message) *PipelineState {
	st := &PipelineState{
		Query:   query,
		History: history,
	}
	st.History = append(st.History, Message{Role: RoleUser, Content: query})
	return st
}

// Timestamp format helper shared by formatter and transcript files.
const TimestampLayout = time.RFC3339
