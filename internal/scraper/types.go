package scraper

import "time"

// ArticleStub is one search hit read from a listing page.
type ArticleStub struct {
	Title   string
	URL     string
	Date    string
	Summary string
	// Published is Date parsed; zero when the listing date is unreadable.
	Published time.Time
	// Page is the listing page the stub came from, set by the walker.
	Page int
}

// Listing is everything read from one listing page.
type Listing struct {
	Stubs      []ArticleStub
	TotalPages int
	Page       int
}
