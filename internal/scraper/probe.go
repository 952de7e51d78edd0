package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	leadingNumber = regexp.MustCompile(`^\d+`)
	totalPageText = regexp.MustCompile(`共\s*(\d+)\s*页`)
)

// pageProbe is one heuristic for the total page count. It returns 0 when it
// finds nothing.
type pageProbe struct {
	name string
	run  func(s *Scraper, doc *goquery.Document, pager *goquery.Selection) int
}

// pageProbes run in order; TotalPages keeps the largest answer. The result is
// an estimate: a page reports what its own pagination widget shows.
var pageProbes = []pageProbe{
	{"last_page_link", probeLastPageLink},
	{"page_links", probePageLinks},
	{"total_records", probeTotalRecords},
	{"total_text", probeTotalText},
}

// TotalPages estimates how many listing pages the search has. Without a
// pagination container the listing is taken to be a single page.
func (s *Scraper) TotalPages(doc *goquery.Document) int {
	pager := doc.Find(s.adapter.Selectors.PaginationContainer).First()
	if pager.Length() == 0 {
		s.logger.Debug("pagination container not found", "selector", s.adapter.Selectors.PaginationContainer)
		return 1
	}

	maxPage := 1
	for _, p := range pageProbes {
		n := p.run(s, doc, pager)
		if n > 0 {
			s.logger.Debug("page probe", "probe", p.name, "pages", n)
		}
		maxPage = max(maxPage, n)
	}
	return maxPage
}

func probeLastPageLink(s *Scraper, _ *goquery.Document, pager *goquery.Selection) int {
	if s.adapter.Selectors.LastPageLink == "" {
		return 0
	}
	href, _ := pager.Find(s.adapter.Selectors.LastPageLink).First().Attr("href")
	return s.pageNumberIn(href)
}

func probePageLinks(s *Scraper, _ *goquery.Document, pager *goquery.Selection) int {
	if s.adapter.Selectors.PageLinkItem == "" {
		return 0
	}
	best := 0
	pager.Find(s.adapter.Selectors.PageLinkItem).Each(func(_ int, link *goquery.Selection) {
		best = max(best, leadingInt(link.Text()))
		for _, attr := range []string{"href", "onclick"} {
			if v, ok := link.Attr(attr); ok {
				best = max(best, s.pageNumberIn(v))
			}
		}
	})
	return best
}

func probeTotalRecords(s *Scraper, _ *goquery.Document, pager *goquery.Selection) int {
	if s.adapter.Selectors.TotalRecords == "" || s.adapter.PageSize <= 0 {
		return 0
	}
	records := leadingInt(pager.Find(s.adapter.Selectors.TotalRecords).First().Text())
	if records <= 0 {
		return 0
	}
	return (records + s.adapter.PageSize - 1) / s.adapter.PageSize
}

func probeTotalText(_ *Scraper, doc *goquery.Document, _ *goquery.Selection) int {
	m := totalPageText.FindStringSubmatch(doc.Find("body").Text())
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func (s *Scraper) pageNumberIn(v string) int {
	if v == "" || s.adapter.PageNumberPattern == nil {
		return 0
	}
	m := s.adapter.PageNumberPattern.FindStringSubmatch(v)
	if len(m) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func leadingInt(text string) int {
	n, _ := strconv.Atoi(leadingNumber.FindString(strings.TrimSpace(text)))
	return n
}
