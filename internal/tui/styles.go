// Package tui provides the terminal user interface for trito.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/diogo/trito/internal/errors"
)

// Palette
var (
	colorBorder    = lipgloss.Color("#3b4261")
	colorPrimary   = lipgloss.Color("#bb9af7")
	colorSecondary = lipgloss.Color("#7dcfff")
	colorAccent    = lipgloss.Color("#e0af68")
	colorSuccess   = lipgloss.Color("#9ece6a")
	colorError     = lipgloss.Color("#f7768e")
	colorText      = lipgloss.Color("#c0caf5")
	colorTextDim   = lipgloss.Color("#a9b1d6")
	colorTextMute  = lipgloss.Color("#565f89")
)

var (
	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2).
			MarginBottom(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorTextDim)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			Italic(true)

	messagesAreaStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Padding(1)

	// Salesperson turns sit on the right, consultant turns on the left.
	humanBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorSecondary).
				Padding(0, 1).
				MarginLeft(4)

	humanLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true).
			MarginLeft(4)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginRight(4)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Italic(true).
			MarginLeft(4)

	inputPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			MarginTop(1)

	inputLabelStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginRight(1)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorTextMute).
			MarginTop(1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(colorTextDim).
			Bold(true)

	statusDescStyle = lipgloss.NewStyle().
			Foreground(colorTextMute)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	loginPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 3)

	loginTitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			MarginBottom(1)
)

// Gradient colors for the loading animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

// FormatError returns a styled error message with a hint for the failures
// an operator can act on.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %v", err)))

	if status := apperrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}

	if hint := errorHint(err); hint != "" {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("Hint: " + hint))
	}

	return sb.String()
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrBusy):
		return "Wait for the current reply before sending another message"
	case apperrors.IsRateLimitError(err):
		return "The provider is rate limiting requests. Wait a moment, then /retry"
	case apperrors.IsTimeoutError(err):
		return "The provider took too long to answer. Type /retry to ask again"
	case apperrors.IsNetworkError(err):
		return "Check your connection, then type /retry"
	case errors.Is(err, apperrors.ErrEmptyReply):
		return "The provider answered with nothing. Type /retry to ask again"
	case apperrors.IsCompleterError(err):
		return "Your message was kept. Type /retry to ask again or /reset to start over"
	}
	return ""
}

// PrintError prints a styled error message.
func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Println(FormatError(err))
}
