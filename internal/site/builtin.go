package site

import "regexp"

// SCOPSR is the adapter for www.scopsr.gov.cn (TRS search, table layout articles).
func SCOPSR() Adapter {
	return Adapter{
		Name:        "SCOPSR",
		Domain:      "scopsr.gov.cn",
		Prefix:      "SCOPSR",
		ListingPage: regexp.MustCompile(`/was5/web/search`),
		ArticlePage: regexp.MustCompile(`/xwzx/`),
		Selectors: Selectors{
			ListingContainer:    "#searchresult, .jiansuo-container-result",
			ListingItem:         "ul",
			TitleLink:           "li h2 a",
			DateField:           "li div.jiansuo-result-link span",
			SummaryField:        "li p",
			PaginationContainer: "td.t4",
			PageLinkItem:        `a[href*="page="]`,
			LastPageLink:        `a.last-page, a[href*="page="]:last-of-type`,
			ArticleBody:         "#Zoom",
			ArticleBodyFallbacks: []string{
				"td#Zoom",
				".TRS_Editor",
				".Custom_UnionStyle",
				".hui12#Zoom",
				`td.hui12[id="Zoom"]`,
			},
			ParagraphContainers: []string{
				".TRS_Editor .Custom_UnionStyle",
				".TRS_Editor",
				".Custom_UnionStyle",
			},
			ArticleTitle: ".hui14c",
			ArticleTime:  ".hui14",
		},
		Pagination: QueryPagination{Param: "page"},
		Profile:    ProfileStructural,
		Headings: HeadingRules{
			CenterAlign: true,
		},
		SearchParam:       "searchword",
		PageNumberPattern: regexp.MustCompile(`page=(\d+)`),
		PageSize:          10,
		TimePattern:       regexp.MustCompile(`时间：\s*(\d{4}-\d{2}-\d{2})`),
	}
}

// SHBB is the adapter for www.shbb.gov.cn (jspx search, .jhtml articles).
func SHBB() Adapter {
	return Adapter{
		Name:        "SHBB",
		Domain:      "shbb.gov.cn",
		Prefix:      "SHBB",
		ListingPage: regexp.MustCompile(`/search`),
		ArticlePage: regexp.MustCompile(`\.jhtml$`),
		Selectors: Selectors{
			ListingContainer:    "#conView .jiansuoResult",
			ListingItem:         "tr",
			TitleLink:           "th a",
			DateField:           "td:last-child",
			SummaryField:        `td[colspan="2"]`,
			PaginationContainer: "#conView .page",
			PageLinkItem:        "a.Num",
			TotalRecords:        "label span",
			ArticleBody:         "#conView .cvbody",
			ArticleBodyFallbacks: []string{
				"#conView blockquote .cvbody",
				"#conView .con .cvbody",
			},
			ArticleTitle: "#conView h2",
			ArticleTime:  "#conView .details label",
		},
		Pagination: PathPagination{Stem: "search", Ext: ".jspx", QueryParam: "q"},
		Profile:    ProfileVisual,
		Listing: ListingRules{
			SkipHeaderRows:   true,
			SummaryInNextRow: true,
		},
		Headings: HeadingRules{
			FontFamilies: []string{"黑体"},
			CenterAlign:  true,
		},
		SearchParam:       "q",
		PageNumberPattern: regexp.MustCompile(`search_(\d+)\.jspx`),
		PageSize:          10,
		TimePattern:       regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
	}
}

// DefaultRegistry registers the built-in adapters, applying selector
// overrides keyed by domain.
func DefaultRegistry(overrides map[string]Selectors) (*Registry, error) {
	adapters := []Adapter{SCOPSR(), SHBB()}
	for i, a := range adapters {
		if o, ok := overrides[a.Domain]; ok {
			adapters[i] = a.WithSelectors(o)
		}
	}
	return NewRegistry(adapters...)
}
