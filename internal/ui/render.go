package ui

import (
	"fmt"
	"strings"

	"github.com/dipcp/dipcp/internal/model"
)

// RenderReviewItem renders a pending review item as a panel.
// Example output:
//
//	┌──────────────────────────────────┐
//	│ #5 README.md                     │
//	│ Author:  alice                   │
//	│ Created: 2024-01-01 10:00        │
//	│ Files:                           │
//	│   README.md                      │
//	│                                  │
//	│ fix typo                         │
//	└──────────────────────────────────┘
func RenderReviewItem(item *model.ReviewItem) string {
	var b strings.Builder

	b.WriteString(Highlight(fmt.Sprintf("#%d", item.Number)))
	b.WriteString(" ")
	b.WriteString(BoldStyle.Render(item.Title))
	b.WriteString("\n")

	b.WriteString(RenderKeyValue("Author", item.Author))
	b.WriteString("\n")
	b.WriteString(RenderKeyValue("Created", item.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString("\n")

	b.WriteString(Dim("Files:"))
	b.WriteString("\n")
	for _, f := range item.Files {
		b.WriteString("  " + Truncate(f, Display.MaxPathLength))
		b.WriteString("\n")
	}

	if strings.TrimSpace(item.Body) != "" {
		b.WriteString("\n")
		b.WriteString(renderBodyPreview(item.Body))
	}

	return RenderPanel(strings.TrimRight(b.String(), "\n"))
}

// renderBodyPreview truncates a PR body to a few lines
func renderBodyPreview(body string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) > Display.MaxBodyPreviewLines {
		lines = append(lines[:Display.MaxBodyPreviewLines], Dim("..."))
	}
	return strings.Join(lines, "\n")
}

// RenderFileStatusRow formats one row of the status table
func RenderFileStatusRow(path, state string) []string {
	status := GetStatus(state)
	return []string{status.Render(), path}
}

// RenderRepoHeader renders the "owner/repo @ branch" heading used by
// status and tree output
func RenderRepoHeader(owner, repo, branch string) string {
	return HeaderStyle.Render(owner+"/"+repo) + Dim(" @ "+branch)
}
