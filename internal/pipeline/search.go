// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/serp"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// maxOrganicResults caps how many organic entries the search stage keeps
// regardless of what the provider returns.
const maxOrganicResults = 10

// SearchStage issues one web search and owns st.Results and the initial
// st.OverviewImage. A nil provider (missing credentials) or a provider
// failure leaves Results empty; later stages detect that and degrade.
type SearchStage struct {
	provider SearchProvider
	logger   *zap.Logger
}

// NewSearchStage builds the stage. Pass a nil provider when SERP
// credentials are not configured.
func NewSearchStage(provider SearchProvider, logger *zap.Logger) *SearchStage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchStage{provider: provider, logger: logger}
}

func (s *SearchStage) Name() string { return "search" }

func (s *SearchStage) Run(ctx context.Context, st *types.PipelineState) {
	st.Results = []types.SearchResult{}

	if s.provider == nil {
		s.logger.Error("SERP credentials not configured", zap.String("stage", s.Name()))
		return
	}

	body, err := s.provider.Search(ctx, st.Query)
	if err != nil {
		s.logger.Error("search request failed", zap.String("stage", s.Name()), zap.Error(err))
		return
	}

	st.OverviewImage = extractOverviewImage(body)

	for _, o := range body.Organic {
		if o.Link == "" {
			continue
		}
		st.Results = append(st.Results, organicToResult(o))
		if len(st.Results) >= maxOrganicResults {
			break
		}
	}

	s.logger.Info("search complete",
		zap.String("stage", s.Name()),
		zap.Int("results", len(st.Results)),
		zap.Bool("overview_image", st.OverviewImage != ""),
	)
}

// organicToResult maps a provider entry onto the pipeline's result type.
// The short description is the primary snippet; the long snippet becomes
// the extended snippet, falling back to the description when absent.
func organicToResult(o serp.OrganicItem) types.SearchResult {
	primary := o.Description
	if primary == "" {
		primary = o.Snippet
	}
	extended := o.Snippet
	if extended == "" {
		extended = o.Description
	}

	return types.SearchResult{
		Title:              o.Title,
		URL:                o.Link,
		Snippet:            primary,
		Domain:             hostOf(o.Link),
		ExtendedSnippet:    extended,
		SnippetHighlighted: o.SnippetHighlighted,
		Position:           o.Position,
		Date:               o.Date,
		Cite:               o.Cite,
		Thumbnail:          o.Thumbnail,
		Breadcrumb:         o.Breadcrumb,
		Keywords:           o.Keywords(),
		CachedLink:         o.CachedPageLink,
	}
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Host
}

// overviewImageExtractors are tried in preference order; the first
// non-empty hit wins. Each tier silently skips to the next on any
// missing or unusable field.
var overviewImageExtractors = []func(*serp.Body) string{
	knowledgeGraphImage,
	firstImagesEntry,
	topOrganicImage,
}

func extractOverviewImage(body *serp.Body) string {
	for _, extract := range overviewImageExtractors {
		if img := extract(body); img != "" {
			return img
		}
	}
	return ""
}

func knowledgeGraphImage(body *serp.Body) string {
	if body.KnowledgeGraph == nil {
		return ""
	}
	return body.KnowledgeGraph.Image
}

func firstImagesEntry(body *serp.Body) string {
	if len(body.Images) == 0 {
		return ""
	}
	first := body.Images[0]
	for _, candidate := range []string{first.Original, first.Link, first.Thumbnail} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func topOrganicImage(body *serp.Body) string {
	if len(body.Organic) == 0 {
		return ""
	}
	top := body.Organic[0]
	for _, candidate := range []string{top.Thumbnail, top.Image, top.OGImage, top.PreviewImage} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
