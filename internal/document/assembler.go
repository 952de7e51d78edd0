package document

import (
	"fmt"
	"strings"

	"article-saver/internal/content"
)

// BOM prefixes every saved document so viewers detect UTF-8.
const BOM = "\ufeff"

// Record is one article section of an exported document.
type Record struct {
	Title string
	URL   string
	Date  string
	// Page is the listing page the article came from; 0 for single-article exports.
	Page    int
	Content content.Content
}

const (
	styleHeading = "text-align: center; font-weight: bold; margin: 18pt 0 12pt 0; text-indent: 0; font-size: 14pt;"
	styleList    = "margin: 12pt 0; text-indent: 0; text-align: justify; font-weight: normal;"
	styleIndent  = "margin: 12pt 0; text-indent: 2em; text-align: justify; line-height: 1.8; font-weight: normal;"
	styleFlush   = "margin: 12pt 0; text-indent: 0; text-align: justify; line-height: 1.8; font-weight: normal;"
	styleBlank   = "margin: 12pt 0;"
	styleFailure = "color: red;"
)

const head = `<!DOCTYPE html>
<html xmlns:o='urn:schemas-microsoft-com:office:office'
      xmlns:w='urn:schemas-microsoft-com:office:word'
      xmlns='http://www.w3.org/TR/REC-html40'>
<head>
<meta charset='utf-8'>
<title>%s</title>
<!--[if gte mso 9]>
<xml>
<w:WordDocument>
<w:View>Print</w:View>
<w:Zoom>100</w:Zoom>
<w:DoNotOptimizeForBrowser/>
</w:WordDocument>
</xml>
<![endif]-->
<style>
@page { size: A4; margin: 2.54cm; mso-page-orientation: portrait; }
body { font-family: '宋体', SimSun, serif; font-size: 12pt; line-height: 1.8; color: #000; background: white; }
h1 { font-size: 22pt; font-weight: bold; text-align: center; margin: 20pt 0; mso-pagination: none; }
h2 { font-size: 16pt; font-weight: bold; margin: 15pt 0 10pt 0; mso-pagination: none; }
.article-info { text-align: center; color: #666; font-size: 10pt; margin: 10pt 0; }
.article-content p { line-height: 1.8; margin: 12pt 0; padding: 0; }
</style>
</head>
`

// Assemble renders records as one Word-flavoured HTML document, BOM included.
// Records appear in the order given.
func Assemble(title, generatedDate string, records []Record) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, head, EscapeHTML(title))
	b.WriteString("<body>\n<div class='Section1'>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", EscapeHTML(title))
	fmt.Fprintf(&b, "<p style='text-align: center; color: #666;'>生成日期：%s</p>\n", EscapeHTML(generatedDate))
	fmt.Fprintf(&b, "<p style='text-align: center; color: #666;'>共收录 %d 篇文章%s</p>\n", len(records), pageSummary(records))

	for i, r := range records {
		if i > 0 {
			b.WriteString("<div class='article' style='page-break-before: always;'>\n")
		} else {
			b.WriteString("<div class='article'>\n")
		}
		fmt.Fprintf(&b, "<h2>%s</h2>\n", EscapeHTML(r.Title))
		b.WriteString("<div class='article-info'>\n")
		fmt.Fprintf(&b, "<p>发布时间：%s</p>\n", EscapeHTML(r.Date))
		fmt.Fprintf(&b, "<p>来源：%s</p>\n", EscapeHTML(r.URL))
		b.WriteString("</div>\n<div class='article-content'>\n")
		writeContent(&b, r.Content)
		b.WriteString("</div>\n</div>\n")
	}

	b.WriteString("</div>\n</body>\n</html>\n")
	return []byte(BOM + b.String())
}

func pageSummary(records []Record) string {
	lo, hi := 0, 0
	for _, r := range records {
		if r.Page <= 0 {
			continue
		}
		if lo == 0 || r.Page < lo {
			lo = r.Page
		}
		hi = max(hi, r.Page)
	}
	switch {
	case hi == 0:
		return ""
	case lo == hi:
		return fmt.Sprintf(" (来自第%d页)", lo)
	default:
		return fmt.Sprintf(" (来自第%d页到第%d页)", lo, hi)
	}
}

func writeContent(b *strings.Builder, c content.Content) {
	if c.Failed() {
		fmt.Fprintf(b, "<p style=\"%s\">文章内容获取失败：%s</p>\n", styleFailure, EscapeHTML(c.Failure.Message()))
		return
	}
	for _, p := range c.Paragraphs {
		lines := paragraphLines(p.Text)
		if p.Kind == content.Blank || len(lines) == 0 {
			fmt.Fprintf(b, "<p style=\"%s\">&nbsp;</p>\n", styleBlank)
			continue
		}
		fmt.Fprintf(b, "<p style=\"%s\">%s</p>\n", paragraphStyle(p), strings.Join(lines, "<br/>"))
	}
}

// paragraphLines splits on authored newlines and escapes each line.
func paragraphLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, EscapeHTML(line))
		}
	}
	return lines
}

func paragraphStyle(p content.Paragraph) string {
	switch {
	case p.Kind == content.Heading:
		return styleHeading
	case p.Kind == content.ListItem:
		return styleList
	case p.Indent:
		return styleIndent
	default:
		return styleFlush
	}
}
