package scraper

import (
	"context"
	"errors"

	"article-saver/internal/observability"
)

// ErrNoMorePages means the start page is already past the last available page.
var ErrNoMorePages = errors.New("no more pages")

// PageFetcher returns the stubs of one listing page.
type PageFetcher func(ctx context.Context, page int) ([]ArticleStub, error)

// WalkResult is the flattened outcome of a pagination walk.
type WalkResult struct {
	Stubs          []ArticleStub
	PagesProcessed int
	StartPage      int
	// EndPage is the last page that produced stubs, StartPage when none did.
	EndPage int
	// PlannedEndPage is the clamped last page the walk aimed for.
	PlannedEndPage int
	Clamped        bool
}

// PlanRange clamps the requested page range to the available total.
func PlanRange(startPage, requested, totalAvailable int) (endPage int, clamped bool, err error) {
	if startPage > totalAvailable {
		return totalAvailable, requested > 0, ErrNoMorePages
	}
	if requested > totalAvailable-startPage+1 {
		return totalAvailable, true, nil
	}
	endPage = startPage + requested - 1
	if endPage < startPage {
		return endPage, false, ErrNoMorePages
	}
	return endPage, false, nil
}

// CollectAcrossPages fetches listing pages startPage..endPage in order and
// tags every stub with its page. The walk stops at the first page that yields
// no stubs; a fetch error counts as such a page.
func CollectAcrossPages(
	ctx context.Context,
	startPage, requested, totalAvailable int,
	fetchPage PageFetcher,
	logger *observability.Logger,
) (*WalkResult, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	endPage, clamped, err := PlanRange(startPage, requested, totalAvailable)
	if err != nil {
		return nil, err
	}
	if clamped {
		logger.Warn("requested pages exceed available pages, clamping",
			"requested", requested, "start_page", startPage, "end_page", endPage, "total", totalAvailable)
	}

	res := &WalkResult{
		Stubs:          []ArticleStub{},
		StartPage:      startPage,
		EndPage:        startPage,
		PlannedEndPage: endPage,
		Clamped:        clamped,
	}

	for page := startPage; page <= endPage; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stubs, err := fetchPage(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.Warn("listing page failed, treating as end of results", "page", page, "error", err)
			break
		}
		if len(stubs) == 0 {
			logger.Info("listing page is empty, stopping", "page", page)
			break
		}

		for _, stub := range stubs {
			stub.Page = page
			res.Stubs = append(res.Stubs, stub)
		}
		res.PagesProcessed++
		res.EndPage = page
		logger.Debug("listing page collected", "page", page, "stubs", len(stubs))
	}

	return res, nil
}
