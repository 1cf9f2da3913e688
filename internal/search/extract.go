package search

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// skippedElements hold text that is not page content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ExtractText returns the visible text of an HTML document. Text nodes are
// trimmed, empty ones dropped, and the rest joined by single spaces.
// Entities are decoded.
func ExtractText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))

	var parts []string
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skippedElements[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.TrimSpace(string(z.Text())); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// IsUTF8 reports whether a page body is UTF-8. A charset declared by a BOM,
// the Content-Type header or a meta tag rules out anything but utf-8. The
// extracted text must then be valid UTF-8; when no charset is declared it
// must also carry at least one non-ASCII rune.
func IsUTF8(body []byte, contentType string) bool {
	_, name, certain := charset.DetermineEncoding(body, contentType)
	declared := certain || name != "windows-1252"
	if declared && name != "utf-8" {
		return false
	}

	text := ExtractText(body)
	if !utf8.ValidString(text) {
		return false
	}
	if declared {
		return true
	}
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of b
// by a byte cap.
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if b[i] < utf8.RuneSelf {
			return b
		}
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			return b
		}
	}
	return b
}

// RemoveWhitespace deletes every Unicode whitespace rune from s.
func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
