package content

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"article-saver/internal/config"
	"article-saver/internal/normalize"
	"article-saver/internal/site"
)

func newExtractor(a site.Adapter) *Extractor {
	return NewExtractor(a, normalize.NewNormalizer(config.NormalizeConfig{TrimNBSP: true, MaxPreviewChars: 20}), nil)
}

func TestExtractSHBBParagraphs(t *testing.T) {
	page := `<html><body><div id="conView"><div class="cvbody">
		<p style="text-align: center">关于印发
		通知的说明</p>
		<p><span style="font-family: 黑体">一、总体要求</span></p>
		<p>&nbsp;</p>
		<p>（一）总则</p>
		<p style="text-indent: 2em">正文第一行<br>正文第二行</p>
		<p style="text-indent:0">普通段落</p>
	</div></div></body></html>`

	c := newExtractor(site.SHBB()).ExtractHTML(page)
	require.False(t, c.Failed())
	require.Len(t, c.Paragraphs, 6)

	assert.Equal(t, Paragraph{Kind: Heading, Text: "关于印发 通知的说明"}, c.Paragraphs[0])
	assert.Equal(t, Heading, c.Paragraphs[1].Kind)
	assert.Equal(t, Blank, c.Paragraphs[2].Kind)
	assert.Equal(t, Paragraph{Kind: ListItem, Text: "（一）总则"}, c.Paragraphs[3])
	assert.Equal(t, Paragraph{Kind: Body, Text: "正文第一行 正文第二行", Indent: true}, c.Paragraphs[4])
	assert.Equal(t, Paragraph{Kind: Body, Text: "普通段落"}, c.Paragraphs[5])

	assert.Equal(t, "关于印发 通知的说明\n\n一、总体要求\n\n（一）总则\n\n正文第一行 正文第二行\n\n普通段落", c.Text)
}

func TestExtractSCOPSRNestedContainer(t *testing.T) {
	page := `<html><body><table><tr><td id="Zoom">
		<p>外层说明</p>
		<div class="TRS_Editor"><div class="Custom_UnionStyle">
			<p align="center">标题</p>
			<p>　　第一段<br>  第二行</p>
			<h3>小节</h3>
			<p><span style="font-family: 黑体">黑体不是标题</span></p>
		</div></div>
	</td></tr></table></body></html>`

	c := newExtractor(site.SCOPSR()).ExtractHTML(page)
	require.False(t, c.Failed())
	require.Len(t, c.Paragraphs, 4)

	assert.Equal(t, Heading, c.Paragraphs[0].Kind)
	assert.Equal(t, Paragraph{Kind: Body, Text: "第一段\n第二行", Indent: true}, c.Paragraphs[1])
	assert.Equal(t, Paragraph{Kind: Heading, Text: "小节"}, c.Paragraphs[2])
	assert.Equal(t, Body, c.Paragraphs[3].Kind)
	assert.NotContains(t, c.Text, "外层说明")
}

func TestExtractFallbackNeedsLongText(t *testing.T) {
	short := `<html><body><div class="TRS_Editor"><p>短</p></div></body></html>`
	c := newExtractor(site.SCOPSR()).ExtractHTML(short)
	assert.True(t, c.Failed())
	assert.Equal(t, FailureContentNotFound, c.Failure.Reason)
	assert.Equal(t, "无法获取文章内容", c.Failure.Message())

	long := `<html><body><div class="TRS_Editor"><p>` + strings.Repeat("长", 120) + `</p></div></body></html>`
	c = newExtractor(site.SCOPSR()).ExtractHTML(long)
	require.False(t, c.Failed())
	assert.Equal(t, strings.Repeat("长", 120), c.Text)
}

func TestExtractWithoutParagraphElements(t *testing.T) {
	page := `<html><body><div id="conView"><div class="cvbody">第一行
第二行<br><br>1. 第二段</div></div></body></html>`

	c := newExtractor(site.SHBB()).ExtractHTML(page)
	require.False(t, c.Failed())
	require.Len(t, c.Paragraphs, 2)
	assert.Equal(t, Paragraph{Kind: Body, Text: "第一行 第二行"}, c.Paragraphs[0])
	assert.Equal(t, Paragraph{Kind: ListItem, Text: "1. 第二段"}, c.Paragraphs[1])
}

func TestExtractKeepsBreaksAcrossBlankLines(t *testing.T) {
	page := `<html><body><div id="conView"><div class="cvbody">
		<p>第一段内容<br>&nbsp;<br>第二段内容</p>
		<p>甲<br> <br>乙</p>
	</div></div></body></html>`

	c := newExtractor(site.SHBB()).ExtractHTML(page)
	require.False(t, c.Failed())
	require.Len(t, c.Paragraphs, 2)
	assert.Equal(t, Paragraph{Kind: Body, Text: "第一段内容\n\n第二段内容"}, c.Paragraphs[0])
	assert.Equal(t, Paragraph{Kind: Body, Text: "甲\n\n乙"}, c.Paragraphs[1])
}

func TestExtractDoesNotMutateDocument(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div id="conView"><div class="cvbody"><p>甲<br>乙</p></div></div>`))
	require.NoError(t, err)

	newExtractor(site.SHBB()).Extract(doc)
	assert.Equal(t, 1, doc.Find("br").Length())
}

func TestClassifyListPatterns(t *testing.T) {
	for _, text := range []string{"1.第一条", "12 、第十二条", "（一）总则", "（3）细则", "三、保障措施", "十.附则"} {
		assert.True(t, isListItem(text), text)
	}
	for _, text := range []string{"2024年工作", "（注）说明", "第一条"} {
		assert.False(t, isListItem(text), text)
	}
}

func TestFailureMessages(t *testing.T) {
	assert.Equal(t, "HTTP错误: 404", HTTPFailure(404).Failure.Message())
	assert.Equal(t, "请求超时", Failed(FailureTimeout).Failure.Message())
	assert.Equal(t, "网络请求失败", Failed(FailureNetwork).Failure.Message())
	assert.Equal(t, "解析失败", Failed(FailureParse).Failure.Message())
	assert.False(t, Content{Text: "x"}.Failed())
}
