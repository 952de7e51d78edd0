package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"article-saver/internal/app"
	"article-saver/internal/config"
	"article-saver/internal/fetcher"
	"article-saver/internal/observability"
	"article-saver/internal/site"
	"article-saver/internal/storage"
)

var (
	configPath string
	outputDir  string
	format     string
	logLevel   string
	useBrowser bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "article-saver",
		Short: "Save search results and articles from scopsr.gov.cn and shbb.gov.cn as Word documents",
		Long: `article-saver walks the search result pages of the supported sites,
fetches every listed article one at a time and assembles them into a single
Word-readable document.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config YAML (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory (overrides export.output_dir)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format: docx or md (overrides export.format)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&useBrowser, "browser", false, "fetch pages with headless Chromium")

	rootCmd.AddCommand(exportCmd(), articleCmd(), inspectCmd(), sitesCmd(), historyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is everything a command needs, built from the config file and flags.
type env struct {
	cfg      *config.Config
	logger   *observability.Logger
	registry *site.Registry
	ledger   storage.Repository
	closers  []io.Closer
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if outputDir != "" {
		cfg.Export.OutputDir = outputDir
	}
	if format != "" {
		cfg.Export.Format = format
	}
	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if useBrowser {
		cfg.Rod.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return cfg, nil
}

func newEnv(withLedger bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(observability.Options{
		Path:       cfg.Observability.LogPath,
		Level:      cfg.Observability.LogLevel,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
	})
	e := &env{cfg: cfg, logger: logger, closers: []io.Closer{logger}}

	baseDir := ""
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}
	overrides, err := cfg.SelectorOverrides(baseDir)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.registry, err = site.DefaultRegistry(overrides)
	if err != nil {
		e.Close()
		return nil, err
	}

	if withLedger {
		e.ledger, err = app.OpenLedger(cfg, logger)
		if err != nil {
			e.Close()
			return nil, err
		}
		if e.ledger != nil {
			e.closers = append(e.closers, e.ledger)
		}
	}
	return e, nil
}

func (e *env) newFetcher() (app.Fetcher, error) {
	if e.cfg.Rod.Enabled {
		bf, err := fetcher.NewBrowserFetcher(e.cfg, e.logger)
		if err != nil {
			return nil, fmt.Errorf("create browser fetcher: %w", err)
		}
		e.closers = append(e.closers, bf)
		return bf, nil
	}
	f := fetcher.NewFetcher(e.cfg, e.logger)
	e.closers = append(e.closers, f)
	return f, nil
}

func (e *env) newOrchestrator(onProgress func(app.Progress)) (*app.Orchestrator, error) {
	f, err := e.newFetcher()
	if err != nil {
		return nil, err
	}
	return app.NewOrchestrator(app.Options{
		Config:   e.cfg,
		Registry: e.registry,
		Fetcher:  f,
		Saver: &app.FallbackSaver{
			Primary:   &app.FileSaver{Dir: e.cfg.Export.OutputDir},
			Secondary: &app.FileSaver{Dir: e.cfg.Export.FallbackDir},
			Logger:    e.logger,
		},
		Ledger:     e.ledger,
		Logger:     e.logger,
		OnProgress: onProgress,
	}), nil
}

// Close releases resources in reverse order of creation.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

// explain turns sentinel errors into the messages users see.
func explain(err error) error {
	switch {
	case errors.Is(err, site.ErrNotSupported):
		return fmt.Errorf("当前网站不受支持: %w", err)
	case errors.Is(err, app.ErrInvalidPageCount):
		return fmt.Errorf("请输入有效的页数: %w", err)
	case errors.Is(err, app.ErrNoArticlesFound):
		return fmt.Errorf("未找到任何文章: %w", err)
	case errors.Is(err, app.ErrContentNotFound):
		return fmt.Errorf("无法找到文章内容: %w", err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("已取消: %w", err)
	default:
		return err
	}
}
