package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var htmlTagPattern = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// looksLikeHTML reports whether the body contains any markup tag.
func looksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// blockTags end a visual line when rendered.
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "tr": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "section": true, "header": true, "footer": true,
	"blockquote": true, "hr": true, "title": true,
}

// stripHTML renders an HTML body to plain text. Script and style contents are
// dropped, block elements become line breaks and entities are decoded by the
// tokenizer.
func stripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
			if tag == "td" || tag == "th" {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

var (
	quotePrefix     = regexp.MustCompile(`^\s*(?:>\s?)+`)
	separatorLine   = regexp.MustCompile(`^\s*-{4,}`)
	headerLine      = regexp.MustCompile(`(?i)^\s*(?:from|to|subject|sent|cc)\s*:`)
	emailDateHeader = regexp.MustCompile(`(?i)^\s*date\s*:\s*(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+.*\d{1,2}:\d{2}`)
)

// stripForwarding removes quoting and the header block of forwarded mail.
// A Date: line is only dropped when it has the shape of a mail header, so a
// journey date written as "Date: 05 January 2026" survives.
func stripForwarding(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		line = quotePrefix.ReplaceAllString(line, "")
		if separatorLine.MatchString(line) || headerLine.MatchString(line) || emailDateHeader.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\x{00A0}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// normalizeText converts markup and forwarding noise into plain lines.
func normalizeText(raw string) string {
	text := raw
	if looksLikeHTML(text) {
		text = stripHTML(text)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = stripForwarding(text)
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
