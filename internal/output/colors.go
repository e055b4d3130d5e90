package output

import (
	"github.com/fatih/color"
)

// ColorScheme defines the colors used for different elements in the output
type ColorScheme struct {
	Title     *color.Color
	Label     *color.Color
	Value     *color.Color
	Success   *color.Color
	Warning   *color.Color
	Error     *color.Color
	Highlight *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Title:     color.New(color.FgCyan, color.Bold),
		Label:     color.New(color.FgYellow),
		Value:     color.New(color.FgWhite),
		Success:   color.New(color.FgGreen, color.Bold),
		Warning:   color.New(color.FgYellow, color.Bold),
		Error:     color.New(color.FgRed, color.Bold),
		Highlight: color.New(color.FgMagenta, color.Bold),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Title.DisableColor()
	scheme.Label.DisableColor()
	scheme.Value.DisableColor()
	scheme.Success.DisableColor()
	scheme.Warning.DisableColor()
	scheme.Error.DisableColor()
	scheme.Highlight.DisableColor()

	return scheme
}

// ForcedColorScheme returns the default scheme with colors enabled even
// when the process is not attached to a terminal.
func ForcedColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()

	scheme.Title.EnableColor()
	scheme.Label.EnableColor()
	scheme.Value.EnableColor()
	scheme.Success.EnableColor()
	scheme.Warning.EnableColor()
	scheme.Error.EnableColor()
	scheme.Highlight.EnableColor()

	return scheme
}

// Icons used in front of run lines.
const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "⚠"
)
