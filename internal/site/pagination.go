package site

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
)

// Pagination maps listing URLs to page numbers and back. Both directions are
// pure functions of their inputs.
type Pagination interface {
	PageOf(rawURL string) int
	URLFor(baseURL string, page int) (string, error)
}

// QueryPagination keeps the page number in a query parameter (?page=N).
type QueryPagination struct {
	Param string
}

func (p QueryPagination) PageOf(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 1
	}
	n, err := strconv.Atoi(u.Query().Get(p.Param))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (p QueryPagination) URLFor(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set(p.Param, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// PathPagination encodes the page in the path: /search.jspx for page one and
// /search_N.jspx after that, carrying only the keyword parameter along.
type PathPagination struct {
	Stem       string
	Ext        string
	QueryParam string
}

func (p PathPagination) pattern() *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(p.Stem) + `_(\d+)` + regexp.QuoteMeta(p.Ext))
}

func (p PathPagination) PageOf(rawURL string) int {
	m := p.pattern().FindStringSubmatch(rawURL)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (p PathPagination) URLFor(baseURL string, page int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	path := "/" + p.Stem + p.Ext
	if page > 1 {
		path = fmt.Sprintf("/%s_%d%s", p.Stem, page, p.Ext)
	}
	out := url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
	if p.QueryParam != "" {
		q := url.Values{}
		q.Set(p.QueryParam, u.Query().Get(p.QueryParam))
		out.RawQuery = q.Encode()
	}
	return out.String(), nil
}
