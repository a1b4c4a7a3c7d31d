package ui

// DisplayConfig holds configuration for UI rendering
type DisplayConfig struct {
	// Truncation limits
	MaxPathLength       int
	MaxPreviewLines     int
	MaxMessageLines     int
	MaxBodyPreviewLines int

	// Display lengths
	DefaultTerminalWidth int

	// Spacing
	DefaultPadding int
	PanelPadding   int
}

// DefaultConfig returns the default display configuration
func DefaultConfig() DisplayConfig {
	return DisplayConfig{
		MaxPathLength:       60,
		MaxPreviewLines:     20,
		MaxMessageLines:     10,
		MaxBodyPreviewLines: 8,

		DefaultTerminalWidth: 120,

		DefaultPadding: 1,
		PanelPadding:   1,
	}
}

// Global display configuration (can be overridden)
var Display = DefaultConfig()
