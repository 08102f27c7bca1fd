// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/internal/serp"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestEnrichStageNilProviderLeavesStateAlone(t *testing.T) {
	st := types.NewPipelineState("q", nil)
	st.Citations = []types.Citation{{ID: 1, Title: "a", URL: "https://a.example"}}

	NewEnrichStage(nil, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Empty(t, st.Citations[0].Image)
	assert.Empty(t, st.OverviewImage)
}

func TestEnrichStageFillsPendingCitationsOnly(t *testing.T) {
	provider := &fakeSERP{imageBody: imageBody("https://cdn.example/pic.png")}

	st := types.NewPipelineState("machine learning basics today", nil)
	st.OverviewImage = "https://already.example/kg.png"
	st.Citations = []types.Citation{
		{ID: 1, Title: "First", URL: "https://a.example"},
		{ID: 2, Title: "Second", URL: "https://b.example", Image: "https://kept.example/old.png"},
		{ID: 3, Title: "Third", URL: "https://c.example", Image: "   "},
	}

	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Equal(t, "https://cdn.example/pic.png", st.Citations[0].Image)
	assert.Equal(t, "https://kept.example/old.png", st.Citations[1].Image)
	assert.Equal(t, "https://cdn.example/pic.png", st.Citations[2].Image)
	// Overview image already present, so no backfill attempt.
	assert.Equal(t, "https://already.example/kg.png", st.OverviewImage)
}

func TestEnrichStageCompositeQueryUsesLeadingQueryWords(t *testing.T) {
	provider := &fakeSERP{imageBody: imageBody("https://cdn.example/pic.png")}

	st := types.NewPipelineState("machine learning basics for beginners", nil)
	st.OverviewImage = "set"
	st.Citations = []types.Citation{{ID: 1, Title: "Neural Nets", URL: "https://a.example"}}

	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	require.Len(t, provider.imageCalls, 1)
	assert.Equal(t, "Neural Nets machine learning basics", provider.imageCalls[0])
}

func TestEnrichStageOneFailureDoesNotAffectOthers(t *testing.T) {
	provider := &fakeSERP{
		imageBody:   imageBody("https://cdn.example/pic.png"),
		imageErrFor: "Broken",
	}

	st := types.NewPipelineState("", nil)
	st.OverviewImage = "set"
	st.Citations = []types.Citation{
		{ID: 1, Title: "Fine", URL: "https://a.example"},
		{ID: 2, Title: "Broken", URL: "https://b.example"},
		{ID: 3, Title: "AlsoFine", URL: "https://c.example"},
	}

	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Equal(t, "https://cdn.example/pic.png", st.Citations[0].Image)
	assert.Empty(t, st.Citations[1].Image)
	assert.Equal(t, "https://cdn.example/pic.png", st.Citations[2].Image)
}

func TestEnrichStageOrganicThumbnailFallback(t *testing.T) {
	provider := &fakeSERP{imageBody: &serp.Body{
		Organic: []serp.OrganicItem{
			{Thumbnail: "https://page.example/article/view"},
			{Thumbnail: "https://cdn.example/thumb.jpg"},
		},
	}}

	st := types.NewPipelineState("", nil)
	st.OverviewImage = "set"
	st.Citations = []types.Citation{{ID: 1, Title: "T", URL: "https://a.example"}}

	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Equal(t, "https://cdn.example/thumb.jpg", st.Citations[0].Image)
}

func TestEnrichStageDomainFallback(t *testing.T) {
	provider := &fakeSERP{
		imageByQuery: map[string]*serp.Body{
			"nature.com": imageBody("https://cdn.example/domain.png"),
		},
	}

	st := types.NewPipelineState("", nil)
	st.OverviewImage = "set"
	st.Citations = []types.Citation{{ID: 1, Title: "Paper", URL: "https://www.nature.com/articles/x"}}

	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Equal(t, "https://cdn.example/domain.png", st.Citations[0].Image)
	// Composite query first, then the bare domain re-query.
	require.Len(t, provider.imageCalls, 2)
	assert.Equal(t, "nature.com", provider.imageCalls[1])
}

func TestEnrichStageOverviewBackfill(t *testing.T) {
	provider := &fakeSERP{imageBody: imageBody("https://cdn.example/overview.png")}

	st := types.NewPipelineState("what is photosynthesis", nil)
	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	assert.Equal(t, "https://cdn.example/overview.png", st.OverviewImage)
	require.Len(t, provider.imageCalls, 1)
}

func TestEnrichStageTruncatesLongImageQueries(t *testing.T) {
	provider := &fakeSERP{imageBody: imageBody("https://cdn.example/pic.png")}

	st := types.NewPipelineState(strings.Repeat("verylongword ", 30), nil)
	NewEnrichStage(provider, types.EnrichConfig{}, nil).Run(context.Background(), st)

	require.Len(t, provider.imageCalls, 1)
	assert.LessOrEqual(t, len(provider.imageCalls[0]), imageQueryMaxLen)
}

func TestFirstImageURL(t *testing.T) {
	tests := []struct {
		name  string
		items []serp.ImageItem
		want  string
	}{
		{
			name:  "original preferred",
			items: []serp.ImageItem{{Original: "https://c.example/a.png", Thumbnail: "https://c.example/t.png"}},
			want:  "https://c.example/a.png",
		},
		{
			name:  "data URI accepted",
			items: []serp.ImageItem{{Original: "data:image/png;base64,AAAA"}},
			want:  "data:image/png;base64,AAAA",
		},
		{
			name:  "page URL rejected, next item wins",
			items: []serp.ImageItem{{Original: "https://en.wikipedia.org/wiki/Cat"}, {Original: "https://c.example/cat.png"}},
			want:  "https://c.example/cat.png",
		},
		{
			name:  "empty fields fall through within item",
			items: []serp.ImageItem{{Src: "https://c.example/src.png"}},
			want:  "https://c.example/src.png",
		},
		{
			name:  "no acceptable candidate",
			items: []serp.ImageItem{{Original: "ftp://weird.example/x"}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstImageURL(tt.items, 5))
		})
	}
}

func TestLooksLikeImageURL(t *testing.T) {
	assert.True(t, looksLikeImageURL("https://c.example/photo.JPG"))
	assert.True(t, looksLikeImageURL("https://lh3.googleusercontent.com/abc"))
	assert.True(t, looksLikeImageURL("https://c.example/img/abc"))
	assert.False(t, looksLikeImageURL("https://c.example/article/abc"))
}

func TestDomainName(t *testing.T) {
	assert.Equal(t, "nature.com", domainName("https://www.nature.com/articles/x"))
	assert.Equal(t, "example.com", domainName("example.com/page"))
	assert.Equal(t, "", domainName(""))
}
