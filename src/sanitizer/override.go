package sanitizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// overridePatterns detect attempts to hand the assistant a new persona,
// including posing it as a licensed clinician.
var overridePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you\s+are\s+(now\s+)?acting\s+as`),
	regexp.MustCompile(`(?i)(roleplay|role-play|role\s+play)\s+as`),
	regexp.MustCompile(`(?i)your\s+(new\s+)?(role|persona|identity)\s+(is|:)`),
	regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)`),
	regexp.MustCompile(`(?i)system\s*:\s*you\s+are`),
	regexp.MustCompile(`(?i)you\s+are\s+(now\s+)?(a|the)\s+(licensed|board.certified)\s+(doctor|physician|pharmacist)`),
}

// OverrideScanner blocks content that tries to reassign the assistant's role.
type OverrideScanner struct{}

func (OverrideScanner) Name() string { return "override" }

func (s OverrideScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	for _, re := range overridePatterns {
		if match := re.FindString(content); match != "" {
			return blocked(s.Name(), content,
				fmt.Sprintf("role override detected: %q", strings.TrimSpace(match))), nil
		}
	}
	return passed(s.Name(), content), nil
}
