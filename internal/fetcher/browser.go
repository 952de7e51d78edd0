package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"article-saver/internal/config"
	"article-saver/internal/observability"
)

// BrowserFetcher renders pages in headless Chromium. It is used when the
// sites answer plain HTTP clients with a script challenge.
type BrowserFetcher struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg     *config.Config
	logger  *observability.Logger
	pacer   *Pacer
	mu      sync.Mutex
}

func NewBrowserFetcher(cfg *config.Config, logger *observability.Logger) (*BrowserFetcher, error) {
	if logger == nil {
		logger = observability.Nop()
	}

	l := launcher.New().
		Headless(cfg.Rod.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")
	if cfg.Rod.ChromePath != "" {
		l = l.Bin(cfg.Rod.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := connectOrKill(browser.Connect, l); err != nil {
		return nil, err
	}

	bf := &BrowserFetcher{
		browser:  browser,
		launcher: l,
		cfg:      cfg,
		logger:   logger.With("component", "browser_fetcher"),
		pacer:    NewPacer(cfg.GetRequestDelay()),
	}
	bf.logger.Info("browser fetcher ready", "headless", cfg.Rod.Headless, "stealth", cfg.Rod.Stealth)
	return bf, nil
}

// Fetch navigates a fresh tab to urlStr and returns the rendered HTML. The
// status is reported as 200 since the page has rendered.
func (bf *BrowserFetcher) Fetch(ctx context.Context, urlStr string) (*Response, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if err := bf.pacer.Wait(ctx, parsed.Host); err != nil {
		return nil, err
	}

	// One tab at a time; exports are sequential anyway.
	bf.mu.Lock()
	defer bf.mu.Unlock()

	page, err := bf.newPage()
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	if ua := bf.cfg.HTTP.UserAgent; ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: bf.cfg.HTTP.AcceptLanguage,
		}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	p := page.Context(ctx).Timeout(bf.cfg.GetRodPageTimeout())
	if err := p.Navigate(urlStr); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := page.Context(ctx).Timeout(bf.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		bf.logger.Warn("page load wait timed out, continuing", "url", urlStr, "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("read page HTML: %w", err)
	}

	finalURL := urlStr
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	bf.logger.Debug("browser fetch complete", "url", urlStr, "final_url", finalURL, "size", len(html))

	return &Response{
		StatusCode: 200,
		Body:       []byte(html),
		URL:        finalURL,
	}, nil
}

func (bf *BrowserFetcher) newPage() (*rod.Page, error) {
	if bf.cfg.Rod.Stealth {
		page, err := stealth.Page(bf.browser)
		if err != nil {
			return nil, fmt.Errorf("stealth page: %w", err)
		}
		return page, nil
	}
	page, err := bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return page, nil
}

func (bf *BrowserFetcher) Close() error {
	var err error
	if bf.browser != nil {
		err = bf.browser.Close()
	}
	if bf.launcher != nil {
		bf.launcher.Cleanup()
	}
	return err
}

type killer interface {
	Kill()
}

// connectOrKill connects to a launched browser and kills the process when
// the connection fails.
func connectOrKill(connect func() error, proc killer) error {
	if err := connect(); err != nil {
		proc.Kill()
		return fmt.Errorf("connect browser: %w", err)
	}
	return nil
}
