package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"article-saver/internal/site"
)

// LoadSelectors reads a selector override file. Fields left out keep the
// built-in adapter's values.
func LoadSelectors(filePath string) (site.Selectors, error) {
	if filePath == "" {
		return site.Selectors{}, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return site.Selectors{}, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer file.Close()

	var selectors site.Selectors
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&selectors); err != nil {
		return site.Selectors{}, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return site.Selectors{}, fmt.Errorf("%s: %w", filePath, err)
	}

	return selectors, nil
}

// SelectorOverrides loads every sites.selectors_files entry, keyed by domain.
// Relative paths resolve against baseDir.
func (c *Config) SelectorOverrides(baseDir string) (map[string]site.Selectors, error) {
	out := make(map[string]site.Selectors, len(c.Sites.SelectorsFiles))
	for domain, path := range c.Sites.SelectorsFiles {
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		s, err := LoadSelectors(path)
		if err != nil {
			return nil, fmt.Errorf("selectors for %s: %w", domain, err)
		}
		out[domain] = s
	}
	return out, nil
}

// validateSelectors rejects selectors cascadia cannot compile; those would
// otherwise silently match nothing.
func validateSelectors(s site.Selectors) error {
	named := map[string]string{
		"listing_container":    s.ListingContainer,
		"listing_item":         s.ListingItem,
		"title_link":           s.TitleLink,
		"date_field":           s.DateField,
		"summary_field":        s.SummaryField,
		"pagination_container": s.PaginationContainer,
		"page_link_item":       s.PageLinkItem,
		"last_page_link":       s.LastPageLink,
		"total_records":        s.TotalRecords,
		"article_body":         s.ArticleBody,
		"article_title":        s.ArticleTitle,
		"article_time":         s.ArticleTime,
	}
	for i, v := range s.ArticleBodyFallbacks {
		named[fmt.Sprintf("article_body_fallbacks[%d]", i)] = v
	}
	for i, v := range s.ParagraphContainers {
		named[fmt.Sprintf("paragraph_containers[%d]", i)] = v
	}
	for name, sel := range named {
		if sel == "" {
			continue
		}
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid selector %s %q: %w", name, sel, err)
		}
	}
	return nil
}
