// Package sanitizer cleans text on its way between the assistant and the
// outside world. Captured console output is reduced to plain text (Clean),
// and knowledge-tool responses pass through a pipeline of scanners that
// strip invisible characters, cap length and reject injected instructions
// before the model reads them.
package sanitizer

import "context"

// Scanner inspects and optionally transforms text content.
// Implementations must not mutate the input; return transformed
// content in the ScanResult.
type Scanner interface {
	// Name returns a human-readable identifier for logging.
	Name() string

	// Scan inspects content and returns a ScanResult.
	Scan(ctx context.Context, content string) (ScanResult, error)
}
