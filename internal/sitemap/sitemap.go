// Package sitemap resolves a root sitemap into the listing URLs it references,
// following nested sitemap indexes.
package sitemap

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"
)

// DefaultListingsMarker is the path fragment identifying listing pages.
const DefaultListingsMarker = "/listings/"

const (
	childrenExpr = `/*/*[local-name()='sitemap' or local-name()='url' or local-name()='item']`
	locExpr      = `.//*[local-name()='loc']`
)

// Fetcher retrieves a sitemap document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetchError reports a sitemap node that could not be fetched or parsed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("sitemap %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Crawler walks sitemap documents.
type Crawler struct {
	fetcher Fetcher
	marker  string
	logger  *zap.Logger
}

// New returns a Crawler keeping leaf URLs whose path contains marker.
func New(fetcher Fetcher, marker string, logger *zap.Logger) *Crawler {
	if marker == "" {
		marker = DefaultListingsMarker
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{fetcher: fetcher, marker: marker, logger: logger}
}

// Crawl returns listing URLs reachable from rootURL in document order. A
// node that fails to fetch or parse contributes nothing; the walk goes on.
func (c *Crawler) Crawl(ctx context.Context, rootURL string) []string {
	visited := make(map[string]struct{})
	return c.crawl(ctx, rootURL, visited)
}

func (c *Crawler) crawl(ctx context.Context, sitemapURL string, visited map[string]struct{}) []string {
	if _, seen := visited[sitemapURL]; seen {
		c.logger.Warn("sitemap cycle skipped", zap.String("url", sitemapURL))
		return nil
	}
	visited[sitemapURL] = struct{}{}

	children, err := c.load(ctx, sitemapURL)
	if err != nil {
		c.logger.Error("sitemap branch dropped", zap.Error(err))
		return nil
	}

	var urls []string
	for _, child := range children {
		loc := xmlquery.FindOne(child, locExpr)
		if loc == nil {
			continue
		}
		target := strings.TrimSpace(loc.InnerText())
		if child.Data == "sitemap" {
			urls = append(urls, c.crawl(ctx, target, visited)...)
			continue
		}
		if c.isListing(target) {
			urls = append(urls, target)
		}
	}
	return urls
}

func (c *Crawler) load(ctx context.Context, sitemapURL string) ([]*xmlquery.Node, error) {
	body, err := c.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: err}
	}
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: fmt.Errorf("parse xml: %w", err)}
	}
	children, err := xmlquery.QueryAll(doc, childrenExpr)
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: err}
	}
	return children, nil
}

func (c *Crawler) isListing(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, c.marker)
}
