package sanitizer

import (
	"context"
	"fmt"
	"strings"
)

// LengthScanner caps content at MaxChars runes. The cut falls on the last
// line break inside the limit when there is one, so a search result is not
// split mid-sentence.
type LengthScanner struct {
	MaxChars int
}

// NewLengthScanner creates a LengthScanner with the given character limit.
func NewLengthScanner(maxChars int) *LengthScanner {
	return &LengthScanner{MaxChars: maxChars}
}

func (s *LengthScanner) Name() string { return "length" }

func (s *LengthScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	runes := []rune(content)
	if s.MaxChars <= 0 || len(runes) <= s.MaxChars {
		return passed(s.Name(), content), nil
	}

	kept := string(runes[:s.MaxChars])
	if i := strings.LastIndexByte(kept, '\n'); i > len(kept)/2 {
		kept = kept[:i]
	}
	omitted := len(runes) - len([]rune(kept))
	truncated := fmt.Sprintf("%s\n[truncated: %d characters omitted]", kept, omitted)

	return ScanResult{
		Verdict:     VerdictModify,
		Content:     truncated,
		Threats:     []string{"response exceeded character limit"},
		ScannerName: s.Name(),
	}, nil
}
