package sanitizer

import "context"

// TerminalScanner strips CSI escape sequences.
type TerminalScanner struct{}

func (TerminalScanner) Name() string { return "terminal" }

func (s TerminalScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	return rewritten(s.Name(), content, StripTerminalCodes(content), "terminal escape sequences removed"), nil
}

// GlyphScanner removes heavy box-drawing glyphs.
type GlyphScanner struct{}

func (GlyphScanner) Name() string { return "glyph" }

func (s GlyphScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	return rewritten(s.Name(), content, RemoveBoxGlyphs(content), "box-drawing glyphs removed"), nil
}

// ConsoleScanner applies Clean as a single step, for pipelines that receive
// captured console output.
type ConsoleScanner struct{}

func (ConsoleScanner) Name() string { return "console" }

func (s ConsoleScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	return rewritten(s.Name(), content, Clean(content), "console formatting removed"), nil
}
