package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"article-saver/internal/checksum"
	"article-saver/internal/config"
	"article-saver/internal/content"
	"article-saver/internal/document"
	"article-saver/internal/fetcher"
	"article-saver/internal/normalize"
	"article-saver/internal/observability"
	"article-saver/internal/scraper"
	"article-saver/internal/site"
	"article-saver/internal/storage"
)

var (
	ErrInvalidPageCount = errors.New("page count must be a positive integer")
	ErrNoArticlesFound  = errors.New("no articles found")
	ErrBusy             = errors.New("another export is in progress")
	ErrContentNotFound  = errors.New("article content not found")
)

const untitled = "未命名文章"

// Fetcher is the network collaborator. The HTTP fetcher and the browser
// fetcher both satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Response, error)
}

type Options struct {
	Config   *config.Config
	Registry *site.Registry
	Fetcher  Fetcher
	Saver    Saver
	// Ledger is optional.
	Ledger     storage.Repository
	Logger     *observability.Logger
	Now        func() time.Time
	OnProgress func(Progress)
}

// Orchestrator runs exports one at a time: a second call while one is in
// flight fails with ErrBusy.
type Orchestrator struct {
	cfg        *config.Config
	registry   *site.Registry
	fetcher    Fetcher
	saver      Saver
	ledger     storage.Repository
	normalizer *normalize.Normalizer
	checksums  *checksum.Generator
	logger     *observability.Logger
	now        func() time.Time
	onProgress func(Progress)

	busy  atomic.Bool
	state atomic.Int32
}

func NewOrchestrator(opts Options) *Orchestrator {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	saver := opts.Saver
	if saver == nil {
		saver = &FileSaver{Dir: cfg.Export.OutputDir}
	}
	return &Orchestrator{
		cfg:        cfg,
		registry:   opts.Registry,
		fetcher:    opts.Fetcher,
		saver:      saver,
		ledger:     opts.Ledger,
		normalizer: normalize.NewNormalizer(cfg.Normalize),
		checksums:  checksum.NewGenerator(),
		logger:     logger.With("component", "orchestrator"),
		now:        now,
		onProgress: opts.OnProgress,
	}
}

// BatchRequest asks for Pages listing pages starting at the page StartURL shows.
type BatchRequest struct {
	StartURL string
	Pages    int
}

// Report summarises a finished export.
type Report struct {
	Filename string
	Path     string
	Site     string
	Keyword  string

	Total     int
	Succeeded int
	Failed    int
	// Titles are tagged with their listing page, e.g. "[第2页] 标题".
	SucceededTitles []string
	FailedTitles    []string

	StartPage      int
	EndPage        int
	PagesProcessed int
	Clamped        bool

	CheckSum string
	// Duplicate is set when the ledger already holds the same article set.
	Duplicate bool
}

// PageRange renders the processed pages as 第N页 or 第N页到第M页.
func (r *Report) PageRange() string {
	if r.StartPage == r.EndPage {
		return fmt.Sprintf("第%d页", r.StartPage)
	}
	return fmt.Sprintf("第%d页到第%d页", r.StartPage, r.EndPage)
}

// ParsePageCount validates a user-typed page count.
func ParsePageCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageCount, s)
	}
	return n, nil
}

// State returns the state of the current or most recent export.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Busy reports whether an export is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// ExportBatch collects stubs across listing pages, fetches every article in
// discovery order and saves them as one document. Per-article failures are
// counted and rendered, never returned.
func (o *Orchestrator) ExportBatch(ctx context.Context, req BatchRequest) (rep *Report, err error) {
	if req.Pages <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageCount, req.Pages)
	}
	startURL, adapter, err := o.detect(req.StartURL)
	if err != nil {
		return nil, err
	}

	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			rep, err = nil, fmt.Errorf("export aborted: %v", r)
		}
		o.complete(err)
	}()

	logger := o.logger.With("site", adapter.Name, "mode", storage.ModeBatch)
	keyword := adapter.Keyword(startURL)
	if keyword == "" {
		keyword = o.cfg.Export.DefaultKeyword
	}
	logger.Info("Starting export", "url", startURL.String(), "pages", req.Pages, "keyword", keyword)

	o.transition(Progress{State: StateCollecting})
	walk, err := o.collect(ctx, adapter, startURL, req.Pages, logger)
	if err != nil {
		return nil, err
	}
	if len(walk.Stubs) == 0 {
		logger.Warn("No articles found", "start_page", walk.StartPage)
		return nil, ErrNoArticlesFound
	}

	rep = &Report{
		Site:           adapter.Name,
		Keyword:        keyword,
		Total:          len(walk.Stubs),
		StartPage:      walk.StartPage,
		EndPage:        walk.EndPage,
		PagesProcessed: walk.PagesProcessed,
		Clamped:        walk.Clamped,
	}

	records, err := o.fetchArticles(ctx, adapter, walk.Stubs, rep, logger)
	if err != nil {
		return nil, err
	}

	filename := document.BatchFilename(adapter.Prefix, keyword, walk.StartPage, walk.EndPage, walk.PagesProcessed, o.now())
	if err := o.assembleAndSave(ctx, adapter, filename, records, rep, storage.ModeBatch, logger); err != nil {
		return nil, err
	}

	logger.Info("Export completed",
		"filename", rep.Filename,
		"path", rep.Path,
		"total", rep.Total,
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"pages", rep.PageRange(),
	)
	return rep, nil
}

// ExportArticle saves a single article page.
func (o *Orchestrator) ExportArticle(ctx context.Context, articleURL string) (rep *Report, err error) {
	u, adapter, err := o.detect(articleURL)
	if err != nil {
		return nil, err
	}

	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			rep, err = nil, fmt.Errorf("export aborted: %v", r)
		}
		o.complete(err)
	}()

	logger := o.logger.With("site", adapter.Name, "mode", storage.ModeArticle)
	logger.Info("Starting article export", "url", u.String())

	o.transition(Progress{State: StateFetching, Total: 1})
	resp, err := o.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch article: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}
	c := content.NewExtractor(adapter, o.normalizer, logger).Extract(doc)
	if c.Failed() {
		logger.Warn("Article content not found", "url", u.String(), "reason", c.Failure.String())
		return nil, ErrContentNotFound
	}

	title := articleTitle(doc, adapter)
	date := o.articleDate(doc, adapter)
	o.transition(Progress{State: StateFetching, Done: 1, Total: 1, Succeeded: 1, Title: title})

	rep = &Report{
		Site:            adapter.Name,
		Total:           1,
		Succeeded:       1,
		SucceededTitles: []string{title},
	}
	records := []document.Record{{Title: title, URL: u.String(), Date: date, Content: c}}

	filename := document.ArticleFilename(adapter.Prefix, title, date, o.now())
	if err := o.assembleAndSave(ctx, adapter, filename, records, rep, storage.ModeArticle, logger); err != nil {
		return nil, err
	}

	logger.Info("Article saved", "filename", rep.Filename, "path", rep.Path, "chars", len([]rune(c.Text)))
	return rep, nil
}

func (o *Orchestrator) detect(raw string) (*url.URL, site.Adapter, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, site.Adapter{}, fmt.Errorf("invalid URL %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, site.Adapter{}, fmt.Errorf("invalid URL %q: unsupported scheme", raw)
	}
	adapter, err := o.registry.Detect(u.Hostname())
	if err != nil {
		return nil, site.Adapter{}, err
	}
	return u, adapter, nil
}

// collect reads the start page once and walks the following listing pages.
func (o *Orchestrator) collect(ctx context.Context, adapter site.Adapter, startURL *url.URL, pages int, logger *observability.Logger) (*scraper.WalkResult, error) {
	scr := scraper.NewScraper(adapter, logger)

	first, err := o.fetchListing(ctx, scr, startURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to read start page: %w", err)
	}
	logger.Info("Start page parsed",
		"page", first.Page,
		"stubs", len(first.Stubs),
		"total_pages", first.TotalPages,
	)

	fetchPage := func(ctx context.Context, page int) ([]scraper.ArticleStub, error) {
		if page == first.Page {
			return first.Stubs, nil
		}
		pageURL, err := adapter.Pagination.URLFor(startURL.String(), page)
		if err != nil {
			return nil, err
		}
		logger.Info("Processing page", "page", page, "url", pageURL)
		listing, err := o.fetchListing(ctx, scr, pageURL)
		if err != nil {
			return nil, err
		}
		return listing.Stubs, nil
	}

	walk, err := scraper.CollectAcrossPages(ctx, first.Page, pages, first.TotalPages, fetchPage, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Pagination completed",
		"start_page", walk.StartPage,
		"end_page", walk.EndPage,
		"planned_end_page", walk.PlannedEndPage,
		"pages_processed", walk.PagesProcessed,
		"stubs", len(walk.Stubs),
	)
	return walk, nil
}

func (o *Orchestrator) fetchListing(ctx context.Context, scr *scraper.Scraper, pageURL string) (*scraper.Listing, error) {
	resp, err := o.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return scr.ParseListing(string(resp.Body), pageURL)
}

// fetchArticles fetches stubs strictly one after another. The fetcher spaces
// requests to the same host.
func (o *Orchestrator) fetchArticles(ctx context.Context, adapter site.Adapter, stubs []scraper.ArticleStub, rep *Report, logger *observability.Logger) ([]document.Record, error) {
	extractor := content.NewExtractor(adapter, o.normalizer, logger)
	records := make([]document.Record, 0, len(stubs))

	o.transition(Progress{State: StateFetching, Total: len(stubs)})
	for i, stub := range stubs {
		c, err := o.fetchContent(ctx, extractor, stub.URL)
		if err != nil {
			return nil, err
		}

		tagged := fmt.Sprintf("[第%d页] %s", stub.Page, stub.Title)
		if c.Failed() {
			rep.Failed++
			rep.FailedTitles = append(rep.FailedTitles, tagged)
			logger.Warn("Article fetch failed", "page", stub.Page, "url", stub.URL, "reason", c.Failure.String())
		} else {
			rep.Succeeded++
			rep.SucceededTitles = append(rep.SucceededTitles, tagged)
			logger.Debug("Article fetched", "page", stub.Page, "url", stub.URL, "chars", len([]rune(c.Text)))
		}

		records = append(records, document.Record{
			Title:   stub.Title,
			URL:     stub.URL,
			Date:    stub.Date,
			Page:    stub.Page,
			Content: c,
		})
		o.emit(Progress{
			State:     StateFetching,
			Done:      i + 1,
			Total:     len(stubs),
			Succeeded: rep.Succeeded,
			Failed:    rep.Failed,
			Title:     stub.Title,
		})
	}
	return records, nil
}

// fetchContent maps every fetch problem to a failure marker. The only error
// it returns is the caller's context ending.
func (o *Orchestrator) fetchContent(ctx context.Context, extractor *content.Extractor, articleURL string) (content.Content, error) {
	resp, err := o.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return content.Content{}, ctxErr
		}
		switch {
		case fetcher.IsTimeout(err):
			return content.Failed(content.FailureTimeout), nil
		case errors.Is(err, fetcher.ErrDecode):
			return content.Failed(content.FailureParse), nil
		}
		return content.Failed(content.FailureNetwork), nil
	}
	if resp.StatusCode != http.StatusOK {
		return content.HTTPFailure(resp.StatusCode), nil
	}
	return extractor.ExtractHTML(string(resp.Body)), nil
}

func (o *Orchestrator) assembleAndSave(
	ctx context.Context,
	adapter site.Adapter,
	filename string,
	records []document.Record,
	rep *Report,
	mode string,
	logger *observability.Logger,
) error {
	o.transition(Progress{State: StateAssembling, Done: rep.Total, Total: rep.Total, Succeeded: rep.Succeeded, Failed: rep.Failed})

	doc := document.Assemble(adapter.Domain+"文章集", o.now().Format(scraper.DateLayout), records)
	data, filename, err := o.render(doc, filename)
	if err != nil {
		return err
	}

	path, err := o.saver.Save(ctx, data, filename)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	rep.Filename = filename
	rep.Path = path

	items := make([]checksum.Item, 0, len(records))
	for _, r := range records {
		items = append(items, checksum.Item{URL: r.URL, Title: r.Title, Text: r.Content.Text})
	}
	rep.CheckSum = o.checksums.GenerateExportHash(items)

	o.recordExport(ctx, rep, mode, logger)
	return nil
}

func (o *Orchestrator) render(doc []byte, filename string) ([]byte, string, error) {
	if o.cfg.Export.Format != config.FormatMD {
		return doc, filename, nil
	}
	md, err := document.ToMarkdown(doc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return []byte(md), document.WithExtension(filename, document.ExtMD), nil
}

// recordExport appends the export to the ledger. Ledger problems are logged
// and never fail the export.
func (o *Orchestrator) recordExport(ctx context.Context, rep *Report, mode string, logger *observability.Logger) {
	if o.ledger == nil {
		return
	}

	dup, err := o.ledger.ExistsByChecksum(ctx, rep.CheckSum)
	if err != nil {
		logger.Warn("Ledger lookup failed", "error", err)
	} else if dup {
		rep.Duplicate = true
		logger.Info("Same article set was exported before", "checksum", rep.CheckSum)
	}

	rec := &storage.ExportRecord{
		RunID:     uuid.NewString(),
		Site:      rep.Site,
		Keyword:   rep.Keyword,
		Mode:      mode,
		StartPage: rep.StartPage,
		EndPage:   rep.EndPage,
		Pages:     rep.PagesProcessed,
		Total:     rep.Total,
		Succeeded: rep.Succeeded,
		Failed:    rep.Failed,
		Filename:  rep.Filename,
		CheckSum:  rep.CheckSum,
		CreatedAt: o.now(),
	}
	if err := o.ledger.SaveExport(ctx, rec); err != nil {
		logger.Error("Failed to record export", "error", err)
		return
	}
	logger.Debug("Export recorded", "run_id", rec.RunID)
}

func (o *Orchestrator) transition(p Progress) {
	o.state.Store(int32(p.State))
	o.logger.Debug("State changed", "state", p.State.String())
	o.emit(p)
}

func (o *Orchestrator) emit(p Progress) {
	if o.onProgress != nil {
		o.onProgress(p)
	}
}

func (o *Orchestrator) complete(err error) {
	if err != nil {
		o.logger.Error("Export failed", "error", err)
		o.transition(Progress{State: StateFailed})
		return
	}
	o.transition(Progress{State: StateDone})
}

func articleTitle(doc *goquery.Document, adapter site.Adapter) string {
	if sel := adapter.Selectors.ArticleTitle; sel != "" {
		if t := normalize.StripTags(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return untitled
}

// articleDate reads the publication date next to the article, falling back
// to today.
func (o *Orchestrator) articleDate(doc *goquery.Document, adapter site.Adapter) string {
	if sel := adapter.Selectors.ArticleTime; sel != "" {
		text := doc.Find(sel).First().Text()
		if adapter.TimePattern != nil {
			if m := adapter.TimePattern.FindStringSubmatch(text); len(m) > 1 {
				return m[1]
			}
		}
		if d := scraper.NewDateParser(nil).Normalize(text); d != "" {
			return d
		}
	}
	return o.now().Format(scraper.DateLayout)
}
