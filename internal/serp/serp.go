// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package serp queries a Bright Data-style SERP request broker for web
// and image search results. The broker proxies a Google search URL and
// returns the parsed SERP as JSON inside a response envelope.
package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// defaultAPIBase is the production request broker endpoint.
const defaultAPIBase = "https://api.brightdata.com"

// Body is the parsed SERP payload. Only the sections the pipeline
// consumes are mapped; unknown fields are ignored.
type Body struct {
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph,omitempty"`
	Images         []ImageItem     `json:"images,omitempty"`
	Organic        []OrganicItem   `json:"organic,omitempty"`
}

// KnowledgeGraph is the knowledge-panel section of a SERP.
type KnowledgeGraph struct {
	Image string `json:"image,omitempty"`
}

// ImageItem is one entry of an image-search result list. Providers are
// inconsistent about which field carries the actual image URL, so all
// candidates are mapped and callers try them in preference order.
type ImageItem struct {
	Original  string `json:"original,omitempty"`
	URL       string `json:"url,omitempty"`
	Src       string `json:"src,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Image     string `json:"image,omitempty"`
	Link      string `json:"link,omitempty"`
}

// OrganicItem is one organic web result.
type OrganicItem struct {
	Title              string          `json:"title,omitempty"`
	Link               string          `json:"link,omitempty"`
	Description        string          `json:"description,omitempty"`
	Snippet            string          `json:"snippet,omitempty"`
	SnippetHighlighted []string        `json:"snippet_highlighted,omitempty"`
	Position           int             `json:"position,omitempty"`
	Date               string          `json:"date,omitempty"`
	Cite               string          `json:"cite,omitempty"`
	Thumbnail          string          `json:"thumbnail,omitempty"`
	Image              string          `json:"image,omitempty"`
	OGImage            string          `json:"og_image,omitempty"`
	PreviewImage       string          `json:"preview_image,omitempty"`
	Breadcrumb         string          `json:"breadcrumb,omitempty"`
	CachedPageLink     string          `json:"cached_page_link,omitempty"`
	AboutThisResult    aboutThisResult `json:"about_this_result,omitempty"`
}

type aboutThisResult struct {
	Keywords []string `json:"keywords,omitempty"`
}

// Keywords returns the "about this result" keywords, if any.
func (o OrganicItem) Keywords() []string {
	return o.AboutThisResult.Keywords
}

// Client talks to the SERP request broker. A single fixed timeout is
// configured per deployment; there are no retries.
type Client struct {
	httpClient *http.Client
	apiKey     string
	zone       string
	baseURL    string
	userAgent  string
	maxResults int
}

// NewClient builds a broker client from config. BaseURL is overridable
// through ANSWER_ENGINE-style config mainly so tests can point it at an
// httptest server.
func NewClient(cfg types.SERPConfig, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		zone:       cfg.Zone,
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		maxResults: maxResults,
	}
}

// Search runs a web search for query and returns the parsed SERP body.
func (c *Client) Search(ctx context.Context, query string) (*Body, error) {
	searchURL := fmt.Sprintf(
		"https://www.google.com/search?q=%s&hl=en&gl=us&num=%d",
		url.QueryEscape(query), c.maxResults,
	)
	return c.request(ctx, searchURL)
}

// ImageSearch runs an image search (tbm=isch) for query.
func (c *Client) ImageSearch(ctx context.Context, query string) (*Body, error) {
	searchURL := fmt.Sprintf(
		"https://www.google.com/search?q=%s&tbm=isch&hl=en&gl=us&num=%d",
		url.QueryEscape(query), c.maxResults,
	)
	return c.request(ctx, searchURL)
}

// brokerRequest is the JSON body posted to the request broker.
type brokerRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// brokerEnvelope wraps the broker response; the SERP JSON is in Body,
// which some broker configurations return as a JSON-encoded string.
type brokerEnvelope struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
}

func (c *Client) request(ctx context.Context, searchURL string) (*Body, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)
	headers.Set("x-unblock-data-format", "parsed_light")
	if c.userAgent != "" {
		headers.Set("User-Agent", c.userAgent)
	}

	var env brokerEnvelope
	err := httputil.PostJSON(ctx, c.httpClient, c.baseURL+"/request", headers, brokerRequest{
		Zone:   c.zone,
		URL:    searchURL + "&brd_json=1",
		Format: "json",
	}, &env)
	if err != nil {
		return nil, fmt.Errorf("SERP broker request: %w", err)
	}

	return decodeBody(env.Body)
}

// decodeBody unwraps the envelope body, which is either a SERP object or
// a JSON string containing one.
func decodeBody(raw json.RawMessage) (*Body, error) {
	if len(raw) == 0 {
		return &Body{}, nil
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("unwrapping string body: %w", err)
		}
		raw = json.RawMessage(inner)
	}

	var body Body
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parsing SERP body: %w", err)
	}
	return &body, nil
}
