package sanitizer

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// UnicodeScanner normalizes text to NFKC and drops invisible format,
// private-use and control characters. Encyclopedia extracts and search
// snippets routinely carry soft hyphens, zero-width joiners and BOMs.
type UnicodeScanner struct{}

func (UnicodeScanner) Name() string { return "unicode" }

func (s UnicodeScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	normalized := norm.NFKC.String(content)

	var b strings.Builder
	b.Grow(len(normalized))

	removed := 0
	for _, r := range normalized {
		if invisible(r) {
			removed++
			continue
		}
		b.WriteRune(r)
	}

	var threats []string
	if removed > 0 {
		threats = append(threats, "invisible/control characters removed")
	}
	return rewritten(s.Name(), content, b.String(), threats...), nil
}

// invisible reports characters in Cf, Co and Cc, keeping ordinary whitespace.
func invisible(r rune) bool {
	switch r {
	case '\n', '\t', '\r', ' ':
		return false
	}
	return unicode.In(r, unicode.Cf, unicode.Co, unicode.Cc)
}
