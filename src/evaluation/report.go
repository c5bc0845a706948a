package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// CaseResult is the verdict for one case.
type CaseResult struct {
	Index    int           `json:"index"`
	Input    string        `json:"input"`
	Expected []string      `json:"expected_keywords"`
	Response string        `json:"response"`
	Missing  []string      `json:"missing,omitempty"`
	Passed   bool          `json:"passed"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report aggregates the results of a suite run.
type Report struct {
	Suite   string        `json:"suite"`
	Started time.Time     `json:"started"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Results []CaseResult  `json:"results"`
}

// Total is the number of cases run.
func (r Report) Total() int { return len(r.Results) }

// Passed is the number of cases whose answer contained every keyword.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// Accuracy is the percentage of passed cases, 0 for an empty report.
func (r Report) Accuracy() float64 {
	if r.Total() == 0 {
		return 0
	}
	return float64(r.Passed()) / float64(r.Total()) * 100
}

// WriteText prints one block per case and the overall accuracy. Responses
// are included when verbose is set.
func (r Report) WriteText(w io.Writer, verbose bool) error {
	var b strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&b, "Test case %d: Input: %s\n", res.Index, res.Input)
		if verbose {
			b.WriteString("Response:\n")
			b.WriteString(strings.TrimSpace(res.Response))
			b.WriteString("\n")
		}
		switch {
		case res.Passed:
			b.WriteString("=> Test passed.\n\n")
		default:
			fmt.Fprintf(&b, "=> Test failed. Missing keywords: [%s]\n", strings.Join(res.Missing, ", "))
			if res.Err != "" {
				fmt.Fprintf(&b, "   (invocation error: %s)\n", res.Err)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "Overall accuracy: %.2f%% based on %d test cases (%d passed).\n",
		r.Accuracy(), r.Total(), r.Passed())

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON encodes the report with its computed totals.
func (r Report) WriteJSON(w io.Writer) error {
	out := struct {
		Report
		Total    int     `json:"total"`
		Passed   int     `json:"passed"`
		Accuracy float64 `json:"accuracy"`
	}{r, r.Total(), r.Passed(), r.Accuracy()}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
