package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"parley/internal/styles"
)

func WrappedLineCount(value string, width int) int {
	if width <= 0 {
		return 1
	}
	lines := strings.Split(value, "\n")
	if len(lines) == 0 {
		return 1
	}
	count := 0
	for _, line := range lines {
		w := runewidth.StringWidth(line)
		if w == 0 {
			count++
			continue
		}
		count += (w-1)/width + 1
	}
	return count
}

// TruncateWidth shortens s to at most max terminal cells, ending in "…".
func TruncateWidth(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

func FormatUserMessage(content string, width int) string {
	label := styles.UserLabelStyle.Render("YOU")
	msg := styles.UserMsgStyle.Width(width - 4).Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatAIMessage(content string) string {
	label := styles.AiLabelStyle.Render("ASSISTANT")
	msg := styles.AiMsgStyle.Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

func FormatTestReply(content string, width int) string {
	label := styles.TestLabelStyle.Render("BACKEND")
	msg := styles.TestMsgStyle.Width(width - 4).Render(content)
	return fmt.Sprintf("%s\n%s", label, msg)
}

// FeedbackStyle renders success messages green and everything else amber.
func FeedbackStyle(feedback string) lipgloss.Style {
	if strings.Contains(strings.ToLower(feedback), "success") {
		return styles.SuccessStyle
	}
	return styles.WarningStyle
}

func (m *Model) renderReply() string {
	reply := m.Session.ChatReply
	if reply == m.renderedFrom && m.renderedReply != "" {
		return m.renderedReply
	}
	rendered := reply
	if m.Renderer != nil {
		if out, err := m.Renderer.Render(reply); err == nil {
			rendered = strings.TrimSpace(out)
		}
	}
	m.renderedFrom = reply
	m.renderedReply = rendered
	return rendered
}
