package utils

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Raw content is what gets persisted; this boundary applies only when
// shaping output. The strict policy strips every tag, mirroring how the
// original cleaned user text before linkifying it.
var stripPolicy = bluemonday.StrictPolicy()

var (
	urlPattern   = regexp.MustCompile(`\bhttps?://[^\s<>"]+`)
	emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)
)

// RenderContent turns stored thread/post text into a renderable HTML
// fragment: unsafe markup is stripped, bare URLs and emails become links,
// and newlines become line breaks.
func RenderContent(value string) string {
	cleaned := stripPolicy.Sanitize(value)
	linkified := linkify(cleaned)
	return strings.ReplaceAll(linkified, "\n", "<br />")
}

func linkify(s string) string {
	s = urlPattern.ReplaceAllStringFunc(s, func(match string) string {
		return `<a href="` + match + `" rel="nofollow">` + match + `</a>`
	})
	return emailPattern.ReplaceAllStringFunc(s, func(match string) string {
		return `<a href="mailto:` + match + `">` + match + `</a>`
	})
}
