package content

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"article-saver/internal/site"
)

var (
	listPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\s*[\.、]\s*`),
		regexp.MustCompile(`^（[一二三四五六七八九十\d]+）`),
		regexp.MustCompile(`^[一二三四五六七八九十]+[\.、]`),
	}

	centerStyle = regexp.MustCompile(`(?i)text-align\s*:\s*center`)
	fontFamily  = regexp.MustCompile(`(?i)font-family\s*:\s*([^;]+)`)
	textIndent  = regexp.MustCompile(`(?i)text-indent\s*:\s*(-?[\d.]+)`)
	headingTag  = regexp.MustCompile(`^h[1-6]$`)
)

const fullWidthIndent = "　　"

// classify decides the kind of one paragraph element. raw is the element text
// before whitespace normalization, text after it.
func classify(p *goquery.Selection, raw, text string, rules site.HeadingRules) Paragraph {
	if isBlank(text) {
		return Paragraph{Kind: Blank}
	}

	if isHeading(p, rules) {
		return Paragraph{Kind: Heading, Text: text}
	}

	if isListItem(text) {
		return Paragraph{Kind: ListItem, Text: text}
	}

	style, _ := p.Attr("style")
	return Paragraph{
		Kind:   Body,
		Text:   text,
		Indent: hasIndent(style) || strings.HasPrefix(strings.TrimLeft(raw, " \t\r\n"), fullWidthIndent),
	}
}

// classifyText handles text that came from a container without paragraph
// elements, where no markup is left to inspect.
func classifyText(text string) Paragraph {
	switch {
	case isBlank(text):
		return Paragraph{Kind: Blank}
	case isListItem(text):
		return Paragraph{Kind: ListItem, Text: text}
	default:
		return Paragraph{Kind: Body, Text: text}
	}
}

func isBlank(text string) bool {
	return strings.TrimSpace(strings.ReplaceAll(text, " ", "")) == ""
}

func isListItem(text string) bool {
	text = strings.TrimSpace(text)
	for _, re := range listPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func isHeading(p *goquery.Selection, rules site.HeadingRules) bool {
	if headingTag.MatchString(goquery.NodeName(p)) {
		return true
	}

	style, _ := p.Attr("style")
	if rules.CenterAlign {
		if centerStyle.MatchString(style) {
			return true
		}
		if align, ok := p.Attr("align"); ok && strings.EqualFold(strings.TrimSpace(align), "center") {
			return true
		}
	}

	if len(rules.FontFamilies) > 0 {
		if hasFont(style, rules.FontFamilies) {
			return true
		}
		found := false
		p.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
			s, _ := span.Attr("style")
			found = hasFont(s, rules.FontFamilies)
			return !found
		})
		if found {
			return true
		}
	}

	return false
}

func hasFont(style string, families []string) bool {
	m := fontFamily.FindStringSubmatch(style)
	if m == nil {
		return false
	}
	for _, f := range families {
		if strings.Contains(m[1], f) {
			return true
		}
	}
	return false
}

func hasIndent(style string) bool {
	m := textIndent.FindStringSubmatch(style)
	if m == nil {
		return false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	return err == nil && v != 0
}
