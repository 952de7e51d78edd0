package content

import "fmt"

// Kind is the structural role of an article paragraph.
type Kind int

const (
	Body Kind = iota
	Heading
	ListItem
	Blank
)

func (k Kind) String() string {
	switch k {
	case Heading:
		return "heading"
	case ListItem:
		return "list"
	case Blank:
		return "blank"
	default:
		return "body"
	}
}

type Paragraph struct {
	Kind   Kind
	Text   string
	Indent bool
}

// FailureReason is the closed set of ways an article can fail to produce content.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureNetwork
	FailureTimeout
	FailureHTTPStatus
	FailureParse
	FailureContentNotFound
)

// Failure marks an article whose content could not be obtained.
type Failure struct {
	Reason FailureReason
	// Status is the HTTP status for FailureHTTPStatus.
	Status int
}

// Message is the notice shown in the exported document in place of the content.
func (f Failure) Message() string {
	switch f.Reason {
	case FailureNetwork:
		return "网络请求失败"
	case FailureTimeout:
		return "请求超时"
	case FailureHTTPStatus:
		return fmt.Sprintf("HTTP错误: %d", f.Status)
	case FailureParse:
		return "解析失败"
	case FailureContentNotFound:
		return "无法获取文章内容"
	default:
		return ""
	}
}

func (f Failure) String() string {
	return f.Message()
}

// Content is what the extractor produced for one article: paragraphs and
// their joined text, or a failure.
type Content struct {
	Paragraphs []Paragraph
	Text       string
	Failure    Failure
}

func (c Content) Failed() bool {
	return c.Failure.Reason != FailureNone
}

// Failed returns content carrying only a failure marker.
func Failed(reason FailureReason) Content {
	return Content{Failure: Failure{Reason: reason}}
}

// HTTPFailure returns the failure marker for a non-200 response.
func HTTPFailure(status int) Content {
	return Content{Failure: Failure{Reason: FailureHTTPStatus, Status: status}}
}
