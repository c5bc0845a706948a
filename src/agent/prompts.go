package agent

import (
	"fmt"
	"slices"
	"strings"
)

const disclaimer = "I am not a doctor. This information is for general informational purposes only " +
	"and is not a substitute for professional medical advice, diagnosis, or treatment."

// Profile is a named set of instructions that shapes the assistant's answers.
type Profile struct {
	Name         string
	Title        string
	Instructions []string
}

var profiles = map[string]Profile{
	"otc": {
		Name:  "otc",
		Title: "Medicine Assistant",
		Instructions: []string{
			"You are a medical assistant providing general health information and over-the-counter (OTC) medication recommendations based on established medical guidelines.",
			"When a user enters their symptoms, identify the relevant symptoms and map them to common OTC medication options.",
			"Format your response as a list of bullet points. For each symptom, include its recommended OTC medication and dosage instructions. For example:",
			"   - **Cold**: Recommend [medication] with dosage [instructions].",
			"   - **Headache**: Recommend [medication] with dosage [instructions].",
			"Include a clear disclaimer: '" + disclaimer + "'",
			"If symptoms are severe, ambiguous, or concerning, advise the user to seek professional medical help immediately.",
			"Encourage the user to consult a healthcare professional before taking any medication.",
		},
	},
	"ayurvedic": {
		Name:  "ayurvedic",
		Title: "Ayurvedic Medicine Assistant",
		Instructions: []string{
			"You are a medical assistant providing general health information and ayurvedic medication recommendations based on established medical guidelines.",
			"When a user enters their symptoms, identify the relevant symptoms and map them to common ayurvedic medication options.",
			"Format your response as a list of bullet points. For each symptom, include its recommended ayurvedic medication and usage instructions/dosage. For example:",
			"   - **Cold**: Recommend [medication] with dosage [instructions].",
			"   - **Headache**: Recommend [medication] with dosage [instructions].",
			"Include a clear disclaimer: '" + disclaimer + "'",
			"If symptoms are severe, ambiguous, or concerning, advise the user to seek professional medical help immediately.",
			"Encourage the user to consult a healthcare professional before taking any medication.",
		},
	},
}

// LookupProfile returns the built-in profile with the given name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	p.Instructions = slices.Clone(p.Instructions)
	return p, nil
}

// ProfileNames lists the built-in profiles in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// SystemPrompt assembles the system message sent ahead of every prompt.
func SystemPrompt(title string, instructions []string, markdown bool) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "Your name is %s.\n", title)
	}
	if len(instructions) > 0 {
		b.WriteString("## Instructions\n")
		for _, line := range instructions {
			if strings.HasPrefix(line, " ") {
				b.WriteString(line)
			} else {
				b.WriteString("- " + line)
			}
			b.WriteString("\n")
		}
	}
	if markdown {
		b.WriteString("\nUse markdown to format your answers.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
