package sanitizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// builtInInjectionPatterns match instruction-like phrases planted in web
// pages and encyclopedia text. All are compiled case-insensitive.
var builtInInjectionPatterns = []string{
	`ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|prompts?|context)`,
	`disregard\s+(all\s+)?(previous|prior|above)`,
	`forget\s+(everything|all|your)\s+(instructions?|rules|guidelines|training)`,
	`new\s+instructions?\s*:`,
	`from\s+now\s+on,?\s+you\s+(are|will|must|should)`,
	`<\|?im_start\|?>`,
	`<\|?system\|?>`,
	`\[/?INST\]`,
	`<</?SYS>>`,
	`IMPORTANT:\s*ignore`,
	`CRITICAL:\s*override`,
	// Attempts to strip the safety framing from medical advice.
	`(do\s+not|don't|never)\s+(include|add|mention|show)\s+(a|the|any)\s+disclaimer`,
	`(do\s+not|don't|never)\s+(advise|tell|ask)\s+(the\s+)?user\s+to\s+(see|consult|visit)\s+(a\s+)?(doctor|physician|healthcare)`,
	`recommend\s+(the\s+)?(maximum|highest|double)\s+dos(e|age)`,
}

// InjectionScanner blocks content that matches a prompt-injection pattern.
type InjectionScanner struct {
	patterns []*regexp.Regexp
}

// NewInjectionScanner compiles the built-in patterns, unless disableBuiltIn
// is set, followed by customPatterns.
func NewInjectionScanner(disableBuiltIn bool, customPatterns []string) (*InjectionScanner, error) {
	var sources []string
	if !disableBuiltIn {
		sources = append(sources, builtInInjectionPatterns...)
	}
	sources = append(sources, customPatterns...)

	compiled := make([]*regexp.Regexp, 0, len(sources))
	for _, p := range sources {
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling injection pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	return &InjectionScanner{patterns: compiled}, nil
}

func (s *InjectionScanner) Name() string { return "injection" }

func (s *InjectionScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	for _, re := range s.patterns {
		if match := re.FindString(content); match != "" {
			return blocked(s.Name(), content,
				fmt.Sprintf("prompt injection detected: %q", strings.TrimSpace(match))), nil
		}
	}
	return passed(s.Name(), content), nil
}
