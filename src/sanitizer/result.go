package sanitizer

// Verdict represents the outcome of a scan.
type Verdict int

const (
	// VerdictPass means the content is clean.
	VerdictPass Verdict = iota
	// VerdictModify means the content was rewritten and the rewrite should
	// be used in place of the original.
	VerdictModify
	// VerdictBlock means the content must not be shown to the model.
	VerdictBlock
)

func (v Verdict) String() string {
	switch v {
	case VerdictPass:
		return "pass"
	case VerdictModify:
		return "modify"
	case VerdictBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ScanResult is the outcome of a single Scanner.
type ScanResult struct {
	Verdict     Verdict
	Content     string   // original or rewritten content
	Threats     []string // human-readable findings
	ScannerName string
}

// PipelineResult aggregates results from all scanners in a pipeline.
type PipelineResult struct {
	FinalVerdict Verdict
	FinalContent string
	AllThreats   []string
	ScanResults  []ScanResult
}

// Changed reports whether the pipeline rewrote or blocked the content.
func (r PipelineResult) Changed() bool {
	return r.FinalVerdict != VerdictPass
}

func passed(name, content string) ScanResult {
	return ScanResult{Verdict: VerdictPass, Content: content, ScannerName: name}
}

// rewritten reports a modification, or a pass when the rewrite is a no-op.
func rewritten(name, original, content string, threats ...string) ScanResult {
	if content == original {
		return passed(name, original)
	}
	return ScanResult{Verdict: VerdictModify, Content: content, Threats: threats, ScannerName: name}
}

func blocked(name, content string, threats ...string) ScanResult {
	return ScanResult{Verdict: VerdictBlock, Content: content, Threats: threats, ScannerName: name}
}
