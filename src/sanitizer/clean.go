package sanitizer

import (
	"regexp"
	"strings"
)

// csiSequence matches ANSI/VT CSI escapes: ESC '[', parameter bytes 0x30-0x3F,
// intermediate bytes 0x20-0x2F and one final byte 0x40-0x7E. OSC, DCS and
// two-byte escapes are deliberately not matched.
var csiSequence = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// boxGlyphs are the heavy box-drawing characters a console panel is framed with.
const boxGlyphs = "┏┓┗┛┃━"

var glyphRemover = strings.NewReplacer(
	"┏", "",
	"┓", "",
	"┗", "",
	"┛", "",
	"┃", "",
	"━", "",
)

// StripTerminalCodes removes every CSI escape sequence from s.
func StripTerminalCodes(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	return csiSequence.ReplaceAllString(s, "")
}

// RemoveBoxGlyphs deletes each heavy box-drawing glyph from s.
func RemoveBoxGlyphs(s string) string {
	if !strings.ContainsAny(s, boxGlyphs) {
		return s
	}
	return glyphRemover.Replace(s)
}

// Clean turns captured console output into plain text: CSI sequences are
// stripped, then panel glyphs removed. It is total and idempotent.
//
// A removal can splice a new sequence together ("\x1b┏[1m", "\x1b\x1b[m[1m"),
// so both passes repeat until the text stops changing. Every productive pass
// shortens the string.
func Clean(raw string) string {
	s := raw
	for {
		next := RemoveBoxGlyphs(StripTerminalCodes(s))
		if next == s {
			return s
		}
		s = next
	}
}
