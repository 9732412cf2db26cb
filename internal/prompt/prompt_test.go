package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocs(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestBuildAllSubsetsOfContextFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    []string
		notWant []string
	}{
		{
			name:    "no files",
			files:   nil,
			notWant: []string{"##", "---"},
		},
		{
			name:    "profile only",
			files:   map[string]string{"profile.md": "Name: Sam"},
			want:    []string{"## About this person", "Name: Sam"},
			notWant: []string{"## Their preferences", "## Current focus", "---"},
		},
		{
			name: "profile and focus",
			files: map[string]string{
				"profile.md":       "Name: Sam",
				"current_focus.md": "Shipping the Q3 report",
			},
			want:    []string{"## About this person", "## Current focus", "---"},
			notWant: []string{"## Their preferences"},
		},
		{
			name: "all three",
			files: map[string]string{
				"profile.md":       "Name: Sam",
				"preferences.md":   "Short answers",
				"current_focus.md": "Shipping the Q3 report",
			},
			want: []string{"## About this person", "## Their preferences", "## Current focus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDocs(t, dir, tt.files)

			docs := Documents(dir, "profile.md", "preferences.md", "current_focus.md")
			got := Build("Be helpful.", docs)

			assert.True(t, strings.HasPrefix(got, "Be helpful."), "preamble must come first")
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, got, notWant)
			}
		})
	}
}

func TestBuildSectionOrderIsFixed(t *testing.T) {
	dir := t.TempDir()
	writeDocs(t, dir, map[string]string{
		"profile.md":       "PROFILE",
		"preferences.md":   "PREFS",
		"current_focus.md": "FOCUS",
	})

	got := Build("PRE", Documents(dir, "profile.md", "preferences.md", "current_focus.md"))

	profileAt := strings.Index(got, "PROFILE")
	prefsAt := strings.Index(got, "PREFS")
	focusAt := strings.Index(got, "FOCUS")
	require.NotEqual(t, -1, profileAt)
	require.NotEqual(t, -1, prefsAt)
	require.NotEqual(t, -1, focusAt)
	assert.Less(t, profileAt, prefsAt)
	assert.Less(t, prefsAt, focusAt)
}

func TestBuildWithNoSectionsIsJustThePreamble(t *testing.T) {
	got := Build("  Be helpful.  ", Documents(t.TempDir(), "a.md", "b.md", "c.md"))
	assert.Equal(t, "Be helpful.", got)
}
