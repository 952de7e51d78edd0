package document

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	ExtDocx = ".docx"
	ExtMD   = ".md"

	// DocxMIME makes word processors open the HTML payload directly.
	DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MDMIME   = "text/markdown; charset=utf-8"
)

var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
	"\n", " ", "\r", " ", "\t", " ",
)

// BatchFilename names a multi-article export:
// {prefix}_{keyword}_第{start}页[到第{end}页]_{YYYY-MM-DD}_{HH-MM-SS}.docx.
func BatchFilename(prefix, keyword string, startPage, endPage, actualPages int, now time.Time) string {
	pages := fmt.Sprintf("第%d页", startPage)
	if startPage != endPage && actualPages != 1 {
		pages = fmt.Sprintf("第%d页到第%d页", startPage, endPage)
	}
	return sanitize(fmt.Sprintf("%s_%s_%s_%s_%s%s",
		prefix, keyword, pages, now.Format("2006-01-02"), now.Format("15-04-05"), ExtDocx))
}

// ArticleFilename names a single-article export: {prefix}_{title}_{date}_{HH-MM-SS}.docx.
func ArticleFilename(prefix, title, date string, now time.Time) string {
	return sanitize(fmt.Sprintf("%s_%s_%s_%s%s", prefix, strings.TrimSpace(title), date, now.Format("15-04-05"), ExtDocx))
}

// WithExtension swaps the filename's extension.
func WithExtension(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

func sanitize(name string) string {
	return unsafeChars.Replace(name)
}
