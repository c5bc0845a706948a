package sanitizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const redactedURL = "[link removed]"

var (
	// urlExtractor matches http/https URLs in text.
	urlExtractor = regexp.MustCompile(`https?://[^\s<>"{}|\\^\x60\[\]]+`)

	// dangerousSchemes matches javascript: and data:text/html URIs.
	dangerousSchemes = regexp.MustCompile(`(?i)(javascript\s*:|data\s*:\s*text/html)`)

	// exfilParams matches query parameters that carry credentials.
	exfilParams = regexp.MustCompile(`(?i)[?&](secret|token|key|password|api_key|credential|auth|session_id|private_key)=`)
)

// URLScanner blocks content carrying script or HTML data URIs and redacts
// links whose query string looks like it ships credentials. Search results
// are link-heavy, so a single suspicious link is removed rather than
// rejecting the whole result.
type URLScanner struct{}

func (URLScanner) Name() string { return "url" }

func (s URLScanner) Scan(_ context.Context, content string) (ScanResult, error) {
	if match := dangerousSchemes.FindString(content); match != "" {
		return blocked(s.Name(), content,
			fmt.Sprintf("dangerous URI scheme detected: %q", strings.TrimSpace(match))), nil
	}

	var threats []string
	cleaned := urlExtractor.ReplaceAllStringFunc(content, func(u string) string {
		if !exfilParams.MatchString(u) {
			return u
		}
		threats = append(threats, fmt.Sprintf("credential-bearing URL removed: %q", u))
		return redactedURL
	})
	return rewritten(s.Name(), content, cleaned, threats...), nil
}
