package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dipcp/dipcp/internal/model"
)

// Truncate truncates text to maxLen with an ellipsis if needed
// Uses lipgloss for proper ANSI-aware width handling
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	width := lipgloss.Width(text)
	if width <= maxLen {
		return text
	}

	if maxLen <= 3 {
		return lipgloss.NewStyle().MaxWidth(maxLen).Render(text)
	}

	return lipgloss.NewStyle().MaxWidth(maxLen-3).Render(text) + "..."
}

func RenderBox(title string, content string) string {
	style := BoxStyle
	if title != "" {
		style = style.BorderForeground(ColorPrimary)
		titleStyled := lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Render(title)

		combined := lipgloss.JoinVertical(lipgloss.Left, titleStyled, "", content)
		return style.Render(combined)
	}
	return style.Render(content)
}

func RenderPanel(content string) string {
	return PanelStyle.Render(content)
}

func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

func RenderSeparator(width int) string {
	if width <= 0 {
		width = Display.DefaultTerminalWidth
	}
	return DimStyle.Render(strings.Repeat("─", width))
}

func RenderKeyValue(key string, value string) string {
	return Dim(key+": ") + value
}

// RenderKeyValueList renders key/value pairs in the order given by keys
func RenderKeyValueList(pairs map[string]string, keys []string) string {
	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderKeyValue(key, pairs[key]))
	}
	return b.String()
}

// FormatFileFinderLine formats a file record for a fuzzy finder row
// Example: "◐ docs/guide.md (1.2 KB)"
func FormatFileFinderLine(rec *model.FileRecord) string {
	state := StateSynced
	if rec.IsLocal {
		state = StateLocal
	}
	icon := GetStatus(state).Icon
	return fmt.Sprintf("%s %s (%s)", icon, rec.Path, FormatSize(rec.Size))
}

// FormatFilePreview renders the finder preview pane for a file record
func FormatFilePreview(rec *model.FileRecord) string {
	var b strings.Builder
	b.WriteString(rec.Path)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s, modified %s\n", FormatSize(rec.Size), rec.Modified.Format("2006-01-02 15:04")))
	b.WriteString("\n")

	content := rec.Content
	if rec.Encoding == model.EncodingBase64 {
		content = "[binary content]"
	}
	lines := strings.Split(content, "\n")
	if len(lines) > Display.MaxPreviewLines {
		lines = append(lines[:Display.MaxPreviewLines], "...")
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// FormatSize renders a byte count in human units
func FormatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
