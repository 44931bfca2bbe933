package parse

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags close a paragraph when their element ends. Inline markup
// (span, b, a) contributes text to the current line instead.
var blockTags = map[string]bool{
	"p": true, "div": true, "table": true, "tr": true,
	"ul": true, "ol": true, "li": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
}

// extractLines tokenizes HTML into trimmed text lines. An empty string
// marks a paragraph boundary; consumers treat runs of them as one break.
// Malformed markup is tolerated: the tokenizer recovers and EOF ends the
// walk cleanly.
func extractLines(doc string) []string {
	tok := html.NewTokenizer(strings.NewReader(doc))

	var lines []string
	skipDepth := 0

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return lines
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tok.Text()))
			if text != "" {
				lines = append(lines, text)
			}
		case html.StartTagToken:
			name, _ := tok.TagName()
			if skipTags[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if skipTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] && len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
		case html.SelfClosingTagToken:
			name, _ := tok.TagName()
			if blockTags[string(name)] && len(lines) > 0 && lines[len(lines)-1] != "" {
				lines = append(lines, "")
			}
		}
	}
}
