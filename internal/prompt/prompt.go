// Package prompt assembles the system prompt from local context documents.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
)

// Document is one named context file that contributes a section to the
// system prompt. Heading is the markdown header the section is filed under.
type Document struct {
	Heading string
	Path    string
}

// Documents returns the fixed document set in assembly order: profile first
// (who they are), then preferences (how to behave), then current focus
// (what's relevant now). Later sections sit closer to the user turn and
// carry more weight.
func Documents(dir, profile, preferences, currentFocus string) []Document {
	return []Document{
		{Heading: "About this person", Path: filepath.Join(dir, profile)},
		{Heading: "Their preferences", Path: filepath.Join(dir, preferences)},
		{Heading: "Current focus", Path: filepath.Join(dir, currentFocus)},
	}
}

// Build concatenates the preamble and every context document that exists
// into a single system prompt. A missing document contributes nothing; the
// assistant stays usable with partial context. The only side effect is
// reading the files.
func Build(preamble string, docs []Document) string {
	var sections []string
	for _, doc := range docs {
		text := readDocument(doc.Path)
		if text == "" {
			continue
		}
		sections = append(sections, "## "+doc.Heading+"\n\n"+text)
	}

	prompt := strings.TrimSpace(preamble)
	if len(sections) > 0 {
		prompt += "\n\n" + strings.Join(sections, "\n\n---\n\n")
	}
	return prompt
}

// readDocument reads one context file, treating a missing or unreadable
// file as empty.
func readDocument(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
