package site

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	reg, err := DefaultRegistry(nil)
	require.NoError(t, err)

	tests := []struct {
		host     string
		wantName string
		wantErr  bool
	}{
		{"www.scopsr.gov.cn", "SCOPSR", false},
		{"scopsr.gov.cn", "SCOPSR", false},
		{"WWW.SHBB.GOV.CN", "SHBB", false},
		{"www.shbb.gov.cn:443", "SHBB", false},
		{"example.com", "", true},
		{"notscopsr.gov.cn", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		a, err := reg.Detect(tt.host)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrNotSupported, tt.host)
			continue
		}
		require.NoError(t, err, tt.host)
		assert.Equal(t, tt.wantName, a.Name, tt.host)
	}
}

func TestNewRegistryRejectsOverlap(t *testing.T) {
	sub := SCOPSR()
	sub.Name = "SUB"
	sub.Domain = "www.scopsr.gov.cn"

	_, err := NewRegistry(SCOPSR(), sub)
	assert.Error(t, err)
}

func TestDetectReturnsCopy(t *testing.T) {
	reg, err := DefaultRegistry(nil)
	require.NoError(t, err)

	a, err := reg.Detect("www.scopsr.gov.cn")
	require.NoError(t, err)
	a.Selectors.ArticleBodyFallbacks[0] = "mutated"
	a.Selectors.ArticleBody = "mutated"

	b, err := reg.Detect("www.scopsr.gov.cn")
	require.NoError(t, err)
	assert.Equal(t, "td#Zoom", b.Selectors.ArticleBodyFallbacks[0])
	assert.Equal(t, "#Zoom", b.Selectors.ArticleBody)
}

func TestClassify(t *testing.T) {
	scopsr := SCOPSR()
	shbb := SHBB()

	tests := []struct {
		adapter Adapter
		raw     string
		want    PageKind
	}{
		{scopsr, "https://www.scopsr.gov.cn/was5/web/search?searchword=编制&page=2", PageListing},
		{scopsr, "https://www.scopsr.gov.cn/xwzx/bbyw/202401/t20240102_1.html", PageArticle},
		{scopsr, "https://www.scopsr.gov.cn/", PageOther},
		{shbb, "https://www.shbb.gov.cn/search.jspx?q=test", PageListing},
		{shbb, "https://www.shbb.gov.cn/bzglyj202404/9601.jhtml", PageArticle},
		{shbb, "https://www.shbb.gov.cn/category/123.jhtml", PageArticle},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, tt.adapter.Classify(u), tt.raw)
	}
}

func TestQueryPagination(t *testing.T) {
	p := QueryPagination{Param: "page"}

	assert.Equal(t, 3, p.PageOf("https://www.scopsr.gov.cn/was5/web/search?searchword=x&page=3"))
	assert.Equal(t, 1, p.PageOf("https://www.scopsr.gov.cn/was5/web/search?searchword=x"))
	assert.Equal(t, 1, p.PageOf("https://www.scopsr.gov.cn/was5/web/search?page=abc"))

	got, err := p.URLFor("https://www.scopsr.gov.cn/was5/web/search?searchword=x&page=1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.PageOf(got))
	u, _ := url.Parse(got)
	assert.Equal(t, "x", u.Query().Get("searchword"))
}

func TestPathPagination(t *testing.T) {
	p := SHBB().Pagination

	assert.Equal(t, 1, p.PageOf("https://www.shbb.gov.cn/search.jspx?q=abc"))
	assert.Equal(t, 7, p.PageOf("https://www.shbb.gov.cn/search_7.jspx?q=abc"))

	first, err := p.URLFor("https://www.shbb.gov.cn/search_7.jspx?q=abc&x=1", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shbb.gov.cn/search.jspx?q=abc", first)

	third, err := p.URLFor("https://www.shbb.gov.cn/search.jspx?q=abc", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://www.shbb.gov.cn/search_3.jspx?q=abc", third)
}

func TestWithSelectorsMerges(t *testing.T) {
	a := SHBB().WithSelectors(Selectors{ArticleBody: ".article"})

	assert.Equal(t, ".article", a.Selectors.ArticleBody)
	assert.Equal(t, "th a", a.Selectors.TitleLink)
	assert.Len(t, a.Selectors.ArticleBodyFallbacks, 2)
}

func TestKeyword(t *testing.T) {
	u, _ := url.Parse("https://www.shbb.gov.cn/search.jspx?q=%E7%BC%96%E5%88%B6")
	assert.Equal(t, "编制", SHBB().Keyword(u))
	assert.Equal(t, "", SCOPSR().Keyword(u))
}
