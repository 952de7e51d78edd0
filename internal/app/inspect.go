package app

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"article-saver/internal/content"
	"article-saver/internal/scraper"
	"article-saver/internal/site"
)

// Inspection is a selector self-test of one page: what the adapter's
// selectors find on it, without exporting anything.
type Inspection struct {
	Site       string
	URL        string
	Kind       site.PageKind
	StatusCode int

	// Listing pages.
	Keyword    string
	Page       int
	TotalPages int
	Stubs      []scraper.ArticleStub

	// Article pages.
	ContainerSelector string
	ContainerChars    int
	Paragraphs        map[content.Kind]int
	Failure           string
}

// Inspect fetches rawURL and runs the matching adapter's selectors over it.
// Pages that look like neither kind are checked both ways.
func (o *Orchestrator) Inspect(ctx context.Context, rawURL string) (*Inspection, error) {
	u, adapter, err := o.detect(rawURL)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("site", adapter.Name, "mode", "inspect")

	resp, err := o.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	ins := &Inspection{
		Site:       adapter.Name,
		URL:        u.String(),
		Kind:       adapter.Classify(u),
		StatusCode: resp.StatusCode,
	}

	if ins.Kind != site.PageArticle {
		listing, err := scraper.NewScraper(adapter, logger).ParseListing(string(resp.Body), u.String())
		if err != nil {
			return nil, err
		}
		ins.Keyword = adapter.Keyword(u)
		ins.Page = listing.Page
		ins.TotalPages = listing.TotalPages
		ins.Stubs = listing.Stubs
	}

	if ins.Kind != site.PageListing {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse page: %w", err)
		}
		extractor := content.NewExtractor(adapter, o.normalizer, logger)
		if container, selector := extractor.Locate(doc); container != nil {
			ins.ContainerSelector = selector
			ins.ContainerChars = utf8.RuneCountInString(container.Text())
		}
		c := extractor.Extract(doc)
		if c.Failed() {
			ins.Failure = c.Failure.Message()
		} else {
			ins.Paragraphs = make(map[content.Kind]int)
			for _, p := range c.Paragraphs {
				ins.Paragraphs[p.Kind]++
			}
		}
	}

	logger.Info("Page inspected",
		"url", ins.URL,
		"kind", ins.Kind.String(),
		"status", ins.StatusCode,
		"stubs", len(ins.Stubs),
		"total_pages", ins.TotalPages,
		"container", ins.ContainerSelector,
		"container_chars", ins.ContainerChars,
	)
	return ins, nil
}
