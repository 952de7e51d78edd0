package document

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-saver/internal/content"
)

func TestEscapeRoundTrip(t *testing.T) {
	raw := `a & b < c > d " e ' f`
	escaped := EscapeHTML(raw)

	assert.Equal(t, "a &amp; b &lt; c &gt; d &quot; e &#039; f", escaped)
	assert.Equal(t, raw, UnescapeHTML(escaped))
	assert.NotEqual(t, escaped, EscapeHTML(escaped))
	assert.Equal(t, "&lt;", UnescapeHTML("&amp;lt;"))
}

func TestBatchFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	tests := []struct {
		name                string
		keyword             string
		start, end, actual int
		want                string
	}{
		{"range", "编制", 2, 4, 3, "SCOPSR_编制_第2页到第4页_2024-03-09_14-05-07.docx"},
		{"same page", "编制", 3, 3, 1, "SCOPSR_编制_第3页_2024-03-09_14-05-07.docx"},
		{"one page processed", "编制", 1, 5, 1, "SCOPSR_编制_第1页_2024-03-09_14-05-07.docx"},
		{"unsafe keyword", `a/b:c*d?"e<f>g|h`, 1, 1, 1, "SCOPSR_a_b_c_d__e_f_g_h_第1页_2024-03-09_14-05-07.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BatchFilename("SCOPSR", tt.keyword, tt.start, tt.end, tt.actual, now))
		})
	}
}

func TestArticleFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 8, 0, 1, 0, time.Local)
	assert.Equal(t, "SHBB_关于_通知_2024-03-01_08-00-01.docx", ArticleFilename("SHBB", " 关于/通知 ", "2024-03-01", now))
	assert.Equal(t, "SHBB_x_2024-03-01_08-00-01.md", WithExtension(ArticleFilename("SHBB", "x", "2024-03-01", now), ExtMD))
}

func TestAssemble(t *testing.T) {
	records := []Record{
		{
			Title: `标题 <一> & "引号"`,
			URL:   "https://www.shbb.gov.cn/a.jhtml?x=1&y='2'",
			Date:  "2024-01-02",
			Page:  2,
			Content: content.Content{Paragraphs: []content.Paragraph{
				{Kind: content.Heading, Text: "总则"},
				{Kind: content.Blank},
				{Kind: content.ListItem, Text: "（一）范围"},
				{Kind: content.Body, Text: "第一行\n第二行 <b>", Indent: true},
				{Kind: content.Body, Text: "平铺"},
			}},
		},
		{
			Title:   "失败的文章",
			URL:     "https://www.shbb.gov.cn/b.jhtml",
			Page:    3,
			Content: content.HTTPFailure(404),
		},
	}

	out := Assemble("shbb.gov.cn文章集", "2024/3/9", records)
	require.True(t, strings.HasPrefix(string(out), BOM))
	doc := string(out)

	assert.Contains(t, doc, "<w:WordDocument>")
	assert.Contains(t, doc, "共收录 2 篇文章 (来自第2页到第3页)")
	assert.Contains(t, doc, "<h2>标题 &lt;一&gt; &amp; &quot;引号&quot;</h2>")
	assert.Contains(t, doc, "来源：https://www.shbb.gov.cn/a.jhtml?x=1&amp;y=&#039;2&#039;")
	assert.Contains(t, doc, "第一行<br/>第二行 &lt;b&gt;")
	assert.Contains(t, doc, `<p style="`+styleHeading+`">总则</p>`)
	assert.Contains(t, doc, `<p style="`+styleList+`">（一）范围</p>`)
	assert.Contains(t, doc, `<p style="`+styleFlush+`">平铺</p>`)
	assert.Contains(t, doc, `<p style="`+styleBlank+`">&nbsp;</p>`)
	assert.Contains(t, doc, "文章内容获取失败：HTTP错误: 404")
	assert.Equal(t, 1, strings.Count(doc, "page-break-before: always;'"))
	assert.Less(t, strings.Index(doc, "总则"), strings.Index(doc, "失败的文章"))
}

func TestAssembleSingleArticleHasNoPageSummary(t *testing.T) {
	out := string(Assemble("t", "d", []Record{{Title: "x", Content: content.Content{Text: "y"}}}))
	assert.Contains(t, out, "共收录 1 篇文章</p>")
}

func TestToMarkdown(t *testing.T) {
	doc := Assemble("文章集", "2024/3/9", []Record{{
		Title: "标题",
		URL:   "https://example.com/a",
		Date:  "2024-01-02",
		Content: content.Content{Paragraphs: []content.Paragraph{
			{Kind: content.Body, Text: "正文段落"},
		}},
	}})

	out, err := ToMarkdown(doc)
	require.NoError(t, err)

	assert.Contains(t, out, "# 文章集")
	assert.Contains(t, out, "## 标题")
	assert.Contains(t, out, "正文段落")
	assert.NotContains(t, out, "@page")
	assert.NotContains(t, out, BOM)
}
