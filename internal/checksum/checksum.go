package checksum

import (
	"crypto/sha256"
	"fmt"
	"io"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Item is one exported article as far as the checksum is concerned.
type Item struct {
	URL   string
	Title string
	Text  string
}

// GenerateContentHash hashes one article: SHA256(url|title|text).
func (g *Generator) GenerateContentHash(url, title, text string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", url, title, text)))
	return fmt.Sprintf("%x", hash)
}

// GenerateExportHash hashes an ordered article set. Two exports of the same
// articles in the same order hash equal, whatever their generation time.
func (g *Generator) GenerateExportHash(items []Item) string {
	h := sha256.New()
	for _, it := range items {
		_, _ = io.WriteString(h, g.GenerateContentHash(it.URL, it.Title, it.Text))
		_, _ = io.WriteString(h, "\n")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// VerifyContentHash checks a hash produced by GenerateContentHash.
func (g *Generator) VerifyContentHash(expectedHash, url, title, text string) bool {
	return g.GenerateContentHash(url, title, text) == expectedHash
}
