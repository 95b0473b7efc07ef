// Package style holds the terminal palette for operator-facing output.
package style

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#48B9C7") // Cyan
	secondaryColor = lipgloss.Color("#FFAD00") // Orange
	tertiaryColor  = lipgloss.Color("#94EBEB") // Pale cyan
	infoColor      = lipgloss.Color("#F6F6F6") // White
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray

	primaryStyle   = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	secondaryStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	tertiaryStyle  = lipgloss.NewStyle().Foreground(tertiaryColor)
	infoStyle      = lipgloss.NewStyle().Foreground(infoColor).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	errorDescStyle = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
)

var disabled atomic.Bool

// SetEnabled turns styling on or off process-wide.
func SetEnabled(enabled bool) {
	disabled.Store(!enabled)
}

// Enabled reports whether styling is on.
func Enabled() bool {
	return !disabled.Load()
}

func render(s lipgloss.Style, v any) string {
	text := fmt.Sprint(v)
	if disabled.Load() {
		return text
	}
	return s.Render(text)
}

// Primary styles labels such as "Fetching" and "Event".
func Primary(v any) string { return render(primaryStyle, v) }

// Secondary styles the subject of a progress line.
func Secondary(v any) string { return render(secondaryStyle, v) }

// Tertiary styles URLs and other identifiers.
func Tertiary(v any) string { return render(tertiaryStyle, v) }

// Info styles counters and status labels.
func Info(v any) string { return render(infoStyle, v) }

// Error styles error headlines.
func Error(v any) string { return render(errorStyle, v) }

// ErrorDesc styles the explanation that follows an error headline.
func ErrorDesc(v any) string { return render(errorDescStyle, v) }

// Muted styles hints.
func Muted(v any) string { return render(mutedStyle, v) }
