// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/serp"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	// defaultEnrichWorkers caps concurrent image searches.
	defaultEnrichWorkers = 5

	// imageQueryMaxLen bounds every image-search query string.
	imageQueryMaxLen = 100

	// queryContextWords is how many leading words of the main query are
	// appended to a citation title when composing its image query.
	queryContextWords = 3
)

// pageURLPatterns mark URLs that are article/page links rather than
// image files; image candidates matching any of them are rejected.
var pageURLPatterns = []string{"/wiki/", ".html", "/discover/", "/article/", "/page/", "?q="}

// imageExtensions and imageHosts validate that an organic thumbnail
// actually points at an image.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg", ".bmp"}

var imageHosts = []string{
	"googleusercontent.com", "gstatic.com", "imgur.com", "i.imgur.com", "images.unsplash.com",
}

// EnrichStage decorates citations (and a missing overview image) with
// best-effort image URLs. Each pending citation gets its own worker in a
// bounded pool; a worker failure leaves only its citation without an
// image. With no image provider configured the stage is a no-op.
type EnrichStage struct {
	images     ImageProvider
	maxWorkers int
	logger     *zap.Logger
}

// NewEnrichStage builds the stage. Pass a nil provider when SERP
// credentials are not configured.
func NewEnrichStage(images ImageProvider, cfg types.EnrichConfig, logger *zap.Logger) *EnrichStage {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = defaultEnrichWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrichStage{images: images, maxWorkers: workers, logger: logger}
}

func (s *EnrichStage) Name() string { return "enrich" }

func (s *EnrichStage) Run(ctx context.Context, st *types.PipelineState) {
	if s.images == nil {
		s.logger.Warn("image search credentials missing, skipping images", zap.String("stage", s.Name()))
		return
	}

	if st.OverviewImage == "" && st.Query != "" {
		if img := s.searchOverviewImage(ctx, st.Query); img != "" {
			st.OverviewImage = img
		}
	}

	var pending []*types.Citation
	for i := range st.Citations {
		if strings.TrimSpace(st.Citations[i].Image) == "" {
			pending = append(pending, &st.Citations[i])
		}
	}
	if len(pending) == 0 {
		return
	}

	workers := s.maxWorkers
	if len(pending) < workers {
		workers = len(pending)
	}

	// Bounded fan-out: each worker owns exactly one citation, so no
	// synchronization is needed beyond the pool itself.
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, c := range pending {
		wg.Add(1)
		go func(c *types.Citation) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("citation image worker panic",
						zap.String("stage", s.Name()), zap.Int("citation", c.ID), zap.Any("panic", r))
				}
			}()
			sem <- struct{}{}
			defer func() { <-sem }()

			if img := s.searchCitationImage(ctx, c.Title, st.Query, c.URL); img != "" {
				c.Image = img
			}
		}(c)
	}
	wg.Wait()

	found := 0
	for _, c := range st.Citations {
		if c.Image != "" {
			found++
		}
	}
	s.logger.Info("enrichment complete",
		zap.String("stage", s.Name()),
		zap.Int("citations", len(st.Citations)),
		zap.Int("with_image", found),
	)
}

// searchOverviewImage runs a single image search on the raw query. There
// is exactly one attempt: any failure or empty result set leaves the
// overview image unset for good.
func (s *EnrichStage) searchOverviewImage(ctx context.Context, query string) string {
	body, err := s.images.ImageSearch(ctx, truncateString(strings.TrimSpace(query), imageQueryMaxLen))
	if err != nil {
		s.logger.Warn("overview image search failed", zap.String("stage", s.Name()), zap.Error(err))
		return ""
	}
	return firstImageURL(body.Images, 5)
}

// searchCitationImage finds an image for one citation using the
// three-tier strategy: composite title+context image search, organic
// thumbnails from that same search, then a re-query on the citation's
// domain name.
func (s *EnrichStage) searchCitationImage(ctx context.Context, title, queryContext, citationURL string) string {
	imageQuery := title
	if terms := leadingWords(queryContext, queryContextWords); terms != "" {
		imageQuery = title + " " + terms
	}
	imageQuery = truncateString(strings.TrimSpace(imageQuery), imageQueryMaxLen)

	body, err := s.images.ImageSearch(ctx, imageQuery)
	if err != nil {
		s.logger.Warn("citation image search failed",
			zap.String("stage", s.Name()), zap.String("title", truncateString(title, 50)), zap.Error(err))
		return ""
	}

	if img := firstImageURL(body.Images, 5); img != "" {
		return img
	}

	// Second tier: organic thumbnails, validated as image URLs.
	limit := len(body.Organic)
	if limit > 5 {
		limit = 5
	}
	for _, o := range body.Organic[:limit] {
		if o.Thumbnail != "" && isHTTPURL(o.Thumbnail) && looksLikeImageURL(o.Thumbnail) {
			return o.Thumbnail
		}
	}

	// Final tier: re-query with just the citation's domain name.
	domain := domainName(citationURL)
	if domain == "" {
		return ""
	}
	fallback, err := s.images.ImageSearch(ctx, domain)
	if err != nil {
		s.logger.Debug("domain fallback image search failed",
			zap.String("stage", s.Name()), zap.String("domain", domain), zap.Error(err))
		return ""
	}
	return firstImageURL(fallback.Images, 3)
}

// firstImageURL scans up to limit image-search entries and returns the
// first acceptable URL. Fields are tried in preference order; the link
// field is skipped because it usually carries the page URL.
func firstImageURL(items []serp.ImageItem, limit int) string {
	if len(items) < limit {
		limit = len(items)
	}
	for _, item := range items[:limit] {
		for _, candidate := range []string{item.Original, item.URL, item.Src, item.Thumbnail, item.Image} {
			if candidate == "" {
				continue
			}
			if strings.HasPrefix(candidate, "data:image") {
				return candidate
			}
			if isHTTPURL(candidate) && !isPageURL(candidate) {
				return candidate
			}
			break
		}
	}
	return ""
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func isPageURL(u string) bool {
	lower := strings.ToLower(u)
	for _, pattern := range pageURLPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func looksLikeImageURL(u string) bool {
	lower := strings.ToLower(u)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, host := range imageHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return strings.Contains(lower, "/image/") ||
		strings.Contains(lower, "/img/") ||
		strings.HasPrefix(u, "data:image")
}

// domainName extracts a bare domain ("example.com") from a citation URL
// for the fallback search query.
func domainName(citationURL string) string {
	if citationURL == "" {
		return ""
	}
	u, err := url.Parse(citationURL)
	if err != nil {
		return ""
	}
	domain := u.Host
	if domain == "" {
		domain = u.Path
	}
	domain = strings.TrimPrefix(domain, "www.")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	return domain
}

func leadingWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
