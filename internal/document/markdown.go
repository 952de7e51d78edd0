package document

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ToMarkdown converts an assembled document to Markdown, dropping the Word
// head section.
func ToMarkdown(doc []byte) (string, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(bytes.TrimPrefix(doc, []byte(BOM))))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}
	parsed.Find("head, style, script").Remove()

	body, err := parsed.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(body)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	return strings.TrimSpace(markdown) + "\n", nil
}
