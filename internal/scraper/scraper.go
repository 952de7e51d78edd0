package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"article-saver/internal/normalize"
	"article-saver/internal/observability"
	"article-saver/internal/site"
)

type Scraper struct {
	adapter site.Adapter
	dates   *DateParser
	logger  *observability.Logger
}

func NewScraper(adapter site.Adapter, logger *observability.Logger) *Scraper {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Scraper{
		adapter: adapter,
		dates:   NewDateParser(nil),
		logger:  logger.With("component", "scraper", "site", adapter.Name),
	}
}

// ParseListing reads the stubs and the total-page estimate from a listing page.
func (s *Scraper) ParseListing(html, pageURL string) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	return &Listing{
		Stubs:      s.ExtractStubs(doc, base),
		TotalPages: s.TotalPages(doc),
		Page:       s.adapter.Pagination.PageOf(pageURL),
	}, nil
}

// ExtractStubs returns the listing's article stubs in document order. A missing
// container yields an empty slice; items without a title link are skipped.
func (s *Scraper) ExtractStubs(doc *goquery.Document, base *url.URL) []ArticleStub {
	sel := s.adapter.Selectors
	stubs := []ArticleStub{}

	container := doc.Find(sel.ListingContainer).First()
	if container.Length() == 0 {
		s.logger.Debug("listing container not found", "selector", sel.ListingContainer)
		return stubs
	}

	items := container.Find(sel.ListingItem)
	s.logger.Debug("listing items found", "selector", sel.ListingItem, "count", items.Length())

	items.Each(func(i int, item *goquery.Selection) {
		if s.adapter.Listing.SkipHeaderRows && item.Find("th").Length() > 0 && item.Find("th a").Length() == 0 {
			return
		}

		link := item.Find(sel.TitleLink).First()
		if link.Length() == 0 {
			s.logger.Debug("item has no title link", "index", i)
			return
		}

		title := normalize.StripTags(link.Text())
		href, _ := link.Attr("href")
		target := normalize.ResolveURL(base, href)
		if title == "" || target == "" {
			return
		}

		date := firstText(item, sel.DateField)

		var summary string
		if s.adapter.Listing.SummaryInNextRow {
			summary = firstText(item.Next(), sel.SummaryField)
		} else {
			summary = firstText(item, sel.SummaryField)
		}

		stub := ArticleStub{
			Title:   title,
			URL:     target,
			Date:    date,
			Summary: normalize.StripTags(summary),
		}
		if t, err := s.dates.Parse(date); err == nil {
			stub.Published = t
		}
		stubs = append(stubs, stub)
	})

	return stubs
}

func firstText(s *goquery.Selection, selectors ...string) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	for _, selector := range selectors {
		if selector == "" {
			continue
		}
		if text := strings.TrimSpace(s.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
