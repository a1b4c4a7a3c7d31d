package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#6366F1") // Indigo

	// Status colors
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorInfo    = lipgloss.Color("#3B82F6") // Blue

	// File state colors
	ColorSynced    = lipgloss.Color("#6B7280") // Gray
	ColorLocal     = lipgloss.Color("#10B981") // Green
	ColorModified  = lipgloss.Color("#F59E0B") // Amber
	ColorSubmitted = lipgloss.Color("#8B5CF6") // Purple
	ColorDeleted   = lipgloss.Color("#EF4444") // Red

	// Text colors
	ColorText       = lipgloss.Color("#F3F4F6") // Light gray
	ColorTextMuted  = lipgloss.Color("#9CA3AF") // Gray
	ColorTextBright = lipgloss.Color("#FFFFFF") // White

	// Background colors
	ColorBgSubtle = lipgloss.Color("#1F2937") // Dark gray
	ColorBgMuted  = lipgloss.Color("#111827") // Darker gray

	// Border colors
	ColorBorder       = lipgloss.Color("#374151") // Medium gray
	ColorBorderBright = lipgloss.Color("#4B5563") // Lighter gray
)

// Border styles
var (
	BorderRounded = lipgloss.RoundedBorder()
	BorderNormal  = lipgloss.NormalBorder()
)

// Base styles
var (
	// Box style with rounded border
	BoxStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// Panel style for content sections
	PanelStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	// Header style
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	// Title style
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextBright).
			Background(ColorPrimary).
			Padding(0, 2).
			MarginBottom(1)

	// Subtitle style
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)
)

// Text styles
var (
	BoldStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextBright)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// Status styles for file states
var (
	StatusSyncedStyle = lipgloss.NewStyle().
				Foreground(ColorSynced)

	StatusLocalStyle = lipgloss.NewStyle().
				Foreground(ColorLocal).
				Bold(true)

	StatusModifiedStyle = lipgloss.NewStyle().
				Foreground(ColorModified).
				Bold(true)

	StatusSubmittedStyle = lipgloss.NewStyle().
				Foreground(ColorSubmitted).
				Bold(true)

	StatusDeletedStyle = lipgloss.NewStyle().
				Foreground(ColorDeleted)
)

// Message styles
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)
)

// Table styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTextBright)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TableRowAltStyle = lipgloss.NewStyle().
				Background(ColorBgMuted).
				Padding(0, 1)

	TableBorderStyle = lipgloss.NewStyle().
				Foreground(ColorBorder)
)

// Tree styles
var (
	TreeRootStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	TreeEnumeratorStyle = lipgloss.NewStyle().
				Foreground(ColorBorderBright)

	TreeItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

// GetStatusStyle returns the appropriate style for a file state
func GetStatusStyle(state string) lipgloss.Style {
	switch state {
	case "local":
		return StatusLocalStyle
	case "modified":
		return StatusModifiedStyle
	case "submitted":
		return StatusSubmittedStyle
	case "deleted":
		return StatusDeletedStyle
	default:
		return StatusSyncedStyle
	}
}
