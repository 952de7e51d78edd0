package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	numericDate = regexp.MustCompile(`(\d{4})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{1,2})`)
	cjkDate     = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)

	todayWords     = []string{"今天", "今日", "刚刚"}
	yesterdayWords = []string{"昨天", "昨日"}
)

const DateLayout = "2006-01-02"

type DateParser struct {
	loc *time.Location
	now func() time.Time
}

func NewDateParser(loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.Local
	}
	return &DateParser{loc: loc, now: time.Now}
}

// Parse reads the first date in dateStr: 2024-01-02, 2024/1/2, 2024.01.02,
// 2024年1月2日, or 今天/昨天. The result is midnight in the parser's location.
func (dp *DateParser) Parse(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, re := range []*regexp.Regexp{numericDate, cjkDate} {
		if m := re.FindStringSubmatch(dateStr); m != nil {
			return dp.build(m[1], m[2], m[3])
		}
	}

	today := dp.now().In(dp.loc)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, dp.loc)
	for _, w := range todayWords {
		if strings.Contains(dateStr, w) {
			return midnight, nil
		}
	}
	for _, w := range yesterdayWords {
		if strings.Contains(dateStr, w) {
			return midnight.AddDate(0, 0, -1), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// Normalize formats the parsed date as YYYY-MM-DD, returning "" when unreadable.
func (dp *DateParser) Normalize(dateStr string) string {
	t, err := dp.Parse(dateStr)
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}

func (dp *DateParser) build(ys, ms, ds string) (time.Time, error) {
	year, err := strconv.Atoi(ys)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year: %q: %w", ys, err)
	}
	month, err := strconv.Atoi(ms)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month: %q: %w", ms, err)
	}
	day, err := strconv.Atoi(ds)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %q: %w", ds, err)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day: %d", day)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, dp.loc)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date: %04d-%02d-%02d", year, month, day)
	}
	return t, nil
}
