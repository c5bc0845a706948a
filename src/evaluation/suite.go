// Package evaluation measures how well the assistant's answers cover the
// terms a symptom is expected to produce. A Suite of cases is run through
// the assistant, each answer is cleaned and keyword-validated, and the
// Report states the accuracy actually observed.
package evaluation

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed suites
var builtinSuites embed.FS

// DefaultSuiteName is the embedded suite used when no file is given.
const DefaultSuiteName = "otc"

// Case is a single symptom prompt and the keywords its answer must contain.
type Case struct {
	Input            string   `yaml:"input" json:"input"`
	ExpectedKeywords []string `yaml:"expected_keywords" json:"expected_keywords"`
}

// Suite is an ordered list of cases.
type Suite struct {
	Name    string `yaml:"name" json:"name"`
	Profile string `yaml:"profile,omitempty" json:"profile,omitempty"`
	Cases   []Case `yaml:"cases" json:"cases"`
}

// LoadSuite reads and validates a suite from a YAML file.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("reading suite %s: %w", path, err)
	}
	return ParseSuite(data)
}

// BuiltinSuite loads one of the embedded suites by name.
func BuiltinSuite(name string) (Suite, error) {
	data, err := builtinSuites.ReadFile("suites/" + name + ".yaml")
	if err != nil {
		return Suite{}, fmt.Errorf("unknown built-in suite %q", name)
	}
	return ParseSuite(data)
}

// ParseSuite decodes YAML suite data and validates it.
func ParseSuite(data []byte) (Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("parsing suite YAML: %w", err)
	}
	if err := s.validate(); err != nil {
		return Suite{}, fmt.Errorf("validating suite: %w", err)
	}
	return s, nil
}

func (s Suite) validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite %q has no cases", s.Name)
	}
	for i, c := range s.Cases {
		if strings.TrimSpace(c.Input) == "" {
			return fmt.Errorf("cases[%d]: input is required", i)
		}
		for j, k := range c.ExpectedKeywords {
			if strings.TrimSpace(k) == "" {
				return fmt.Errorf("cases[%d].expected_keywords[%d]: keyword is empty", i, j)
			}
		}
	}
	return nil
}
