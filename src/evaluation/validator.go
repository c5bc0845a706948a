package evaluation

import "strings"

// Validation is the outcome of checking a response against expected keywords.
type Validation struct {
	// Missing holds the expected keywords that were not found, in the order
	// they were given and with their original spelling.
	Missing []string
}

// Passed reports whether every expected keyword was present.
func (v Validation) Passed() bool {
	return len(v.Missing) == 0
}

// Validate reports which expected keywords do not occur in text. Matching is
// case-insensitive substring containment, not whole-word matching.
func Validate(text string, expected []string) Validation {
	folded := strings.ToLower(text)

	var missing []string
	for _, keyword := range expected {
		if !strings.Contains(folded, strings.ToLower(keyword)) {
			missing = append(missing, keyword)
		}
	}
	return Validation{Missing: missing}
}
