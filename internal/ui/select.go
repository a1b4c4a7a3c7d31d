package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/dipcp/dipcp/internal/model"
)

func init() {
	// Force lipgloss to initialize and detect terminal before fuzzy finder starts
	// This prevents ANSI escape sequences from leaking into the finder input
	_ = lipgloss.NewStyle().Render("")
	// Ensure color profile is detected early
	_ = lipgloss.HasDarkBackground()
}

// SelectFile presents a fuzzy finder to pick a file from the workspace.
// Returns the selected record, or nil if the user cancelled the
// selection. Returns an error only if the fuzzy finder encounters an
// unexpected error.
func SelectFile(records []*model.FileRecord) (*model.FileRecord, error) {
	// Flush stdout/stderr before starting fuzzy finder to clear any ANSI sequences
	os.Stdout.Sync()
	os.Stderr.Sync()

	idx, err := fuzzyfinder.Find(
		records,
		func(i int) string {
			return FormatFileFinderLine(records[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return FormatFilePreview(records[i])
		}),
	)

	if err != nil {
		// User cancelled (Ctrl+C or ESC)
		return nil, nil
	}

	return records[idx], nil
}
