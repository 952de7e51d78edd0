package site

import (
	"net/url"
	"regexp"
	"slices"
)

// Profile selects how paragraph text whitespace is normalized.
type Profile int

const (
	// ProfileStructural keeps newlines as authored and only trims surrounding whitespace.
	ProfileStructural Profile = iota
	// ProfileVisual treats single newlines as soft wraps, like a browser rendering
	// with white-space: normal.
	ProfileVisual
)

func (p Profile) String() string {
	if p == ProfileVisual {
		return "visual"
	}
	return "structural"
}

// PageKind classifies a URL against an adapter.
type PageKind int

const (
	PageOther PageKind = iota
	PageListing
	PageArticle
)

func (k PageKind) String() string {
	switch k {
	case PageListing:
		return "listing"
	case PageArticle:
		return "article"
	default:
		return "other"
	}
}

// Selectors is the named set of CSS selectors an adapter scrapes with.
type Selectors struct {
	ListingContainer     string   `yaml:"listing_container"`
	ListingItem          string   `yaml:"listing_item"`
	TitleLink            string   `yaml:"title_link"`
	DateField            string   `yaml:"date_field"`
	SummaryField         string   `yaml:"summary_field"`
	PaginationContainer  string   `yaml:"pagination_container"`
	PageLinkItem         string   `yaml:"page_link_item"`
	LastPageLink         string   `yaml:"last_page_link"`
	TotalRecords         string   `yaml:"total_records"`
	ArticleBody          string   `yaml:"article_body"`
	ArticleBodyFallbacks []string `yaml:"article_body_fallbacks"`
	ParagraphContainers  []string `yaml:"paragraph_containers"`
	ArticleTitle         string   `yaml:"article_title"`
	ArticleTime          string   `yaml:"article_time"`
}

func (s Selectors) clone() Selectors {
	s.ArticleBodyFallbacks = slices.Clone(s.ArticleBodyFallbacks)
	s.ParagraphContainers = slices.Clone(s.ParagraphContainers)
	return s
}

// Merge returns s with every non-empty field of override applied.
func (s Selectors) Merge(override Selectors) Selectors {
	out := s.clone()
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.ListingContainer, override.ListingContainer)
	set(&out.ListingItem, override.ListingItem)
	set(&out.TitleLink, override.TitleLink)
	set(&out.DateField, override.DateField)
	set(&out.SummaryField, override.SummaryField)
	set(&out.PaginationContainer, override.PaginationContainer)
	set(&out.PageLinkItem, override.PageLinkItem)
	set(&out.LastPageLink, override.LastPageLink)
	set(&out.TotalRecords, override.TotalRecords)
	set(&out.ArticleBody, override.ArticleBody)
	set(&out.ArticleTitle, override.ArticleTitle)
	set(&out.ArticleTime, override.ArticleTime)
	if len(override.ArticleBodyFallbacks) > 0 {
		out.ArticleBodyFallbacks = slices.Clone(override.ArticleBodyFallbacks)
	}
	if len(override.ParagraphContainers) > 0 {
		out.ParagraphContainers = slices.Clone(override.ParagraphContainers)
	}
	return out
}

// ListingRules covers the listing quirks that differ between site templates.
type ListingRules struct {
	// SkipHeaderRows drops table rows that carry a th without a link.
	SkipHeaderRows bool
	// SummaryInNextRow reads the summary from the item's next sibling row.
	SummaryInNextRow bool
}

// HeadingRules decides which styled paragraphs count as headings.
type HeadingRules struct {
	FontFamilies []string
	CenterAlign  bool
}

// Adapter describes one supported site. Adapters are built once and never
// mutated; Registry hands out copies.
type Adapter struct {
	Name   string
	Domain string
	// Prefix starts every exported filename.
	Prefix string

	ListingPage *regexp.Regexp
	ArticlePage *regexp.Regexp

	Selectors  Selectors
	Pagination Pagination
	Profile    Profile
	Listing    ListingRules
	Headings   HeadingRules

	// SearchParam is the query parameter holding the search keyword.
	SearchParam string
	// PageNumberPattern finds a page number inside an href or onclick value.
	PageNumberPattern *regexp.Regexp
	// PageSize is used to turn a total record count into a page count.
	PageSize int
	// TimePattern captures the publication date inside the article time element.
	TimePattern *regexp.Regexp
}

// Classify reports whether u is a listing page, an article page or neither.
func (a Adapter) Classify(u *url.URL) PageKind {
	if u == nil {
		return PageOther
	}
	switch {
	case a.ListingPage != nil && a.ListingPage.MatchString(u.Path):
		return PageListing
	case a.ArticlePage != nil && a.ArticlePage.MatchString(u.Path):
		return PageArticle
	default:
		return PageOther
	}
}

// Keyword returns the search keyword carried by a listing URL, or "".
func (a Adapter) Keyword(u *url.URL) string {
	if u == nil || a.SearchParam == "" {
		return ""
	}
	return u.Query().Get(a.SearchParam)
}

// WithSelectors returns a copy of a using the merged selectors.
func (a Adapter) WithSelectors(override Selectors) Adapter {
	a.Selectors = a.Selectors.Merge(override)
	return a
}

func (a Adapter) clone() Adapter {
	a.Selectors = a.Selectors.clone()
	a.Headings.FontFamilies = slices.Clone(a.Headings.FontFamilies)
	return a
}
