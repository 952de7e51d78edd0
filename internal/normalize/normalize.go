package normalize

import (
	"net/url"
	"regexp"
	"strings"

	"article-saver/internal/config"
	"article-saver/internal/site"
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	spaceRun         = regexp.MustCompile(`[ \t]+`)
	spaceAfterBreak  = regexp.MustCompile(`\n[ \t]+`)
	spaceBeforeBreak = regexp.MustCompile(`[ \t]+\n`)
	manyBreaks       = regexp.MustCompile(`\n{3,}`)
	breakRun         = regexp.MustCompile(`\n+`)
	anyWhitespace    = regexp.MustCompile(`\s+`)
)

type Normalizer struct {
	cfg config.NormalizeConfig
}

func NewNormalizer(cfg config.NormalizeConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Text normalizes flattened element text with the whitespace policy of profile.
func (n *Normalizer) Text(raw string, profile site.Profile) string {
	if n.cfg.TrimNBSP {
		raw = strings.ReplaceAll(raw, " ", " ")
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if profile == site.ProfileVisual {
		return Visual(raw)
	}
	return Structural(raw)
}

// Visual turns single newlines into spaces, collapses space runs and keeps
// paragraph breaks as exactly one blank line.
func Visual(text string) string {
	text = spaceAfterBreak.ReplaceAllString(text, "\n")
	text = spaceBeforeBreak.ReplaceAllString(text, "\n")
	text = breakRun.ReplaceAllStringFunc(text, func(run string) string {
		if len(run) == 1 {
			return " "
		}
		return "\n\n"
	})
	text = spaceRun.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Structural keeps authored newlines, dropping spaces around them and
// collapsing three or more breaks into one blank line.
func Structural(text string) string {
	text = spaceRun.ReplaceAllString(text, " ")
	text = spaceAfterBreak.ReplaceAllString(text, "\n")
	text = spaceBeforeBreak.ReplaceAllString(text, "\n")
	text = manyBreaks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripTags removes markup that leaked into text nodes and collapses whitespace.
func StripTags(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(anyWhitespace.ReplaceAllString(s, " "))
}

// TruncatePreview cuts text to max_preview_chars runes, preferring a space boundary.
func (n *Normalizer) TruncatePreview(text string) string {
	return TruncatePreview(text, n.cfg.MaxPreviewChars)
}

func TruncatePreview(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	truncated := string(runes[:limit-1])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > 0 {
		return truncated[:lastSpace] + "…"
	}
	return truncated + "…"
}

// NormalizeURL trims the URL and drops its fragment.
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// ResolveURL makes href absolute against base. Script and anchor-only links
// resolve to "".
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(lower, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	ref.Fragment = ""
	return ref.String()
}
