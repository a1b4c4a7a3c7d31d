package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status icons
const (
	IconSynced    = "○"
	IconLocal     = "●"
	IconModified  = "◐"
	IconSubmitted = "◆"
	IconDeleted   = "✗"
)

// File states as shown in status output.
const (
	StateSynced    = "synced"
	StateLocal     = "local"
	StateModified  = "modified"
	StateSubmitted = "submitted"
	StateDeleted   = "deleted"
)

// Status represents a file state with rendering capabilities
type Status struct {
	Icon  string
	Label string
	State string
	Style lipgloss.Style
}

// GetStatus returns a Status object for the given file state
func GetStatus(state string) Status {
	switch state {
	case StateLocal:
		return Status{
			Icon:  IconLocal,
			Label: "Local",
			State: state,
			Style: StatusLocalStyle,
		}
	case StateModified:
		return Status{
			Icon:  IconModified,
			Label: "Modified",
			State: state,
			Style: StatusModifiedStyle,
		}
	case StateSubmitted:
		return Status{
			Icon:  IconSubmitted,
			Label: "Submitted",
			State: state,
			Style: StatusSubmittedStyle,
		}
	case StateDeleted:
		return Status{
			Icon:  IconDeleted,
			Label: "Deleted",
			State: state,
			Style: StatusDeletedStyle,
		}
	default:
		return Status{
			Icon:  IconSynced,
			Label: "Synced",
			State: StateSynced,
			Style: StatusSyncedStyle,
		}
	}
}

// Render returns the full status with icon and label (e.g., "● Local")
func (s Status) Render() string {
	return s.Style.Render(s.Icon + " " + s.Label)
}

// RenderCompact returns just the styled icon
func (s Status) RenderCompact() string {
	return s.Style.Render(s.Icon)
}

// RenderWithCount returns status with count (e.g., "● 3 local")
func (s Status) RenderWithCount(count int) string {
	if count == 0 {
		return ""
	}
	text := fmt.Sprintf("%s %d %s", s.Icon, count, strings.ToLower(s.Label))
	return s.Style.Render(text)
}

// FormatWorkspaceSummary formats a summary of file counts by state
// e.g., "○ 12 synced  ◐ 2 modified  ● 1 local  ✗ 1 deleted"
func FormatWorkspaceSummary(synced, local, modified, submitted, deleted int) string {
	var parts []string

	if synced > 0 {
		parts = append(parts, GetStatus(StateSynced).RenderWithCount(synced))
	}
	if modified > 0 {
		parts = append(parts, GetStatus(StateModified).RenderWithCount(modified))
	}
	if local > 0 {
		parts = append(parts, GetStatus(StateLocal).RenderWithCount(local))
	}
	if submitted > 0 {
		parts = append(parts, GetStatus(StateSubmitted).RenderWithCount(submitted))
	}
	if deleted > 0 {
		parts = append(parts, GetStatus(StateDeleted).RenderWithCount(deleted))
	}

	if len(parts) == 0 {
		return Dim("no files")
	}
	return strings.Join(parts, "  ")
}
