package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML 去掉用户输入中的 HTML 标签，只保留文本
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script,style").Remove()
	return strings.TrimSpace(doc.Text())
}
