package normalize

import (
	"strings"

	"golang.org/x/net/html"
)

// Clean rewrites double quotes to single quotes, removes embedded
// newlines, and trims surrounding whitespace. Every canonical field
// passes through here so staged line-delimited JSON stays one record
// per line with no quote-escaping surprises.
func Clean(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(collapseSpaces(s))
}

// StripHTML drops all markup from a fragment, keeping text content.
// Script and style bodies are discarded with their tags.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch tok.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			name, _ := tok.TagName()
			if n := string(name); n == "script" || n == "style" {
				skip++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tok.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
