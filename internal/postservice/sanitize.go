package postservice

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
)

var (
	scriptTagPattern    = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)
	openTagPattern      = regexp.MustCompile(`<[a-zA-Z][a-zA-Z0-9-]*\s[^<>]*>`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
)

// sanitizeText removes script elements and the on* attributes of html tags.
// Text outside tags, including markdown, is kept as written.
func sanitizeText(s string) string {
	s = scriptTagPattern.ReplaceAllString(s, "")
	return openTagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		return eventHandlerPattern.ReplaceAllString(tag, "")
	})
}

// sanitizeList sanitizes each item of a list block's JSON content. Content
// that is not a JSON string array is treated as plain text.
func sanitizeList(content string) string {
	var items []string
	if err := json.Unmarshal([]byte(content), &items); err != nil || items == nil {
		return sanitizeText(content)
	}

	for i, item := range items {
		items[i] = sanitizeText(item)
	}

	b, err := json.Marshal(items)
	if err != nil {
		return content
	}
	return string(b)
}

// sanitizeImageSource returns src when it is an http(s) URL, a relative path
// or an image data URI, and "" otherwise.
func sanitizeImageSource(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(src), "data:") {
		if strings.HasPrefix(strings.ToLower(src), "data:image/") {
			return src
		}
		return ""
	}

	u, err := url.Parse(src)
	if err != nil {
		return ""
	}

	switch strings.ToLower(u.Scheme) {
	case "", "http", "https":
		return src
	}
	return ""
}
