package content

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"article-saver/internal/normalize"
	"article-saver/internal/observability"
	"article-saver/internal/site"
)

const (
	// fallbackMinChars rejects fallback containers that are empty wrappers.
	fallbackMinChars = 100

	paragraphSelector = "p, h1, h2, h3, h4, h5, h6"
	paragraphSep      = "\n\n"
)

type Extractor struct {
	adapter    site.Adapter
	normalizer *normalize.Normalizer
	logger     *observability.Logger
}

func NewExtractor(adapter site.Adapter, normalizer *normalize.Normalizer, logger *observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Extractor{
		adapter:    adapter,
		normalizer: normalizer,
		logger:     logger.With("component", "content", "site", adapter.Name),
	}
}

// ExtractHTML parses an article page and extracts its content.
func (e *Extractor) ExtractHTML(body string) Content {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		e.logger.Warn("article parse failed", "error", err)
		return Failed(FailureParse)
	}
	return e.Extract(doc)
}

// Extract returns the article's classified paragraphs. It never fails
// outright: every problem ends up as Content.Failure.
func (e *Extractor) Extract(doc *goquery.Document) Content {
	container, selector := e.Locate(doc)
	if container == nil {
		e.logger.Debug("no content container matched")
		return Failed(FailureContentNotFound)
	}
	e.logger.Debug("content container found", "selector", selector)

	paragraphs := e.decompose(container)
	text := join(paragraphs)
	if text == "" {
		return Failed(FailureContentNotFound)
	}

	e.logStructure(paragraphs)
	return Content{Paragraphs: paragraphs, Text: text}
}

// Locate finds the article container: the primary selector, else the first
// fallback holding more than fallbackMinChars characters. It returns the
// selector that matched.
func (e *Extractor) Locate(doc *goquery.Document) (*goquery.Selection, string) {
	sel := e.adapter.Selectors
	if sel.ArticleBody != "" {
		if c := doc.Find(sel.ArticleBody).First(); c.Length() > 0 {
			return c, sel.ArticleBody
		}
	}
	for _, fb := range sel.ArticleBodyFallbacks {
		c := doc.Find(fb).First()
		if c.Length() > 0 && utf8.RuneCountInString(c.Text()) > fallbackMinChars {
			return c, fb
		}
	}
	return nil, ""
}

func (e *Extractor) decompose(container *goquery.Selection) []Paragraph {
	root := container.Clone()
	root.Find("br").ReplaceWithHtml("\n")

	scope := root
	for _, inner := range e.adapter.Selectors.ParagraphContainers {
		if c := root.Find(inner).First(); c.Length() > 0 {
			scope = c
			break
		}
	}

	nodes := scope.Find(paragraphSelector)
	if nodes.Length() == 0 {
		return e.splitText(root.Text())
	}

	paragraphs := make([]Paragraph, 0, nodes.Length())
	nodes.Each(func(_ int, p *goquery.Selection) {
		raw := p.Text()
		text := e.normalizer.Text(raw, e.adapter.Profile)
		paragraphs = append(paragraphs, classify(p, raw, text, e.adapter.Headings))
	})
	return paragraphs
}

func (e *Extractor) splitText(raw string) []Paragraph {
	text := e.normalizer.Text(raw, e.adapter.Profile)
	if text == "" {
		return nil
	}
	var paragraphs []Paragraph
	for _, chunk := range strings.Split(text, paragraphSep) {
		paragraphs = append(paragraphs, classifyText(strings.TrimSpace(chunk)))
	}
	return paragraphs
}

// join concatenates the visible paragraphs with one blank line between them.
func join(paragraphs []Paragraph) string {
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p.Kind == Blank || p.Text == "" {
			continue
		}
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, paragraphSep)
}

func (e *Extractor) logStructure(paragraphs []Paragraph) {
	counts := map[Kind]int{}
	for _, p := range paragraphs {
		counts[p.Kind]++
	}

	var previews []string
	for _, p := range paragraphs {
		if p.Kind == Blank {
			continue
		}
		previews = append(previews, e.normalizer.TruncatePreview(p.Text))
		if len(previews) == 3 {
			break
		}
	}

	e.logger.Debug("paragraph structure",
		"total", len(paragraphs),
		"headings", counts[Heading],
		"list_items", counts[ListItem],
		"body", counts[Body],
		"blank", counts[Blank],
		"preview", previews,
	)
}
