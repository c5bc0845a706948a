package sanitizer

import (
	"context"
	"fmt"
)

// BoundaryScanner fences tool output in XML-style delimiters so the model
// can tell retrieved reference text apart from its own instructions.
type BoundaryScanner struct {
	Source string // toolbox name, e.g. "builtin"
}

// NewBoundaryScanner creates a BoundaryScanner for the given source label.
func NewBoundaryScanner(source string) *BoundaryScanner {
	return &BoundaryScanner{Source: source}
}

func (s *BoundaryScanner) Name() string { return "boundary" }

func (s *BoundaryScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	wrapped := fmt.Sprintf("<reference_material source=%q>\n%s\n</reference_material>", s.Source, content)
	return ScanResult{
		Verdict:     VerdictModify,
		Content:     wrapped,
		ScannerName: s.Name(),
	}, nil
}
