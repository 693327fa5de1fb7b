package gims

import (
	"bytes"
	"regexp"
	"strings"
)

const maxDetailLen = 200

var (
	titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
)

// looksLikeHTML reports whether data appears to be an HTML document.
func looksLikeHTML(data []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(data))
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<title"))
}

// sanitizeHTML reduces an HTML error page to a short plain-text description:
// the page title when present, otherwise a tag-stripped truncated snippet.
// Raw markup never reaches the caller.
func sanitizeHTML(page string) string {
	if m := titlePattern.FindStringSubmatch(page); m != nil {
		if title := compactText(m[1]); title != "" {
			return title
		}
	}
	return compactText(tagPattern.ReplaceAllString(page, " "))
}

// compactText collapses whitespace and truncates to a bounded length.
func compactText(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxDetailLen {
		return string(runes[:maxDetailLen]) + "..."
	}
	return s
}
