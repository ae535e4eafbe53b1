package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"parley/internal/session"
	"parley/internal/styles"
)

func (m *Model) RenderHeader() string {
	title := styles.TitleStyle.Render("PARLEY")
	badge := styles.BadgeStyle(m.Session.Status.Configured).Render(m.Session.Status.Badge())
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", badge)
}

func (m *Model) RenderSettingsModal() string {
	title := styles.ModalTitleStyle.Render("API Key Settings")

	parts := []string{
		title,
		styles.FieldLabelStyle.Render("OpenAI API Key"),
		m.KeyInput.View(),
	}

	if m.Session.SettingsBusy {
		parts = append(parts, "", m.Spinner.View()+" Saving...")
	}

	if fb := m.Session.SettingsFeedback; fb != "" {
		parts = append(parts, "", FeedbackStyle(fb).Width(styles.ContentWidth).Render(fb))
	}

	note := lipgloss.NewStyle().
		Foreground(styles.FgMuted).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render(settingsNote)
	parts = append(parts, note)

	hints := []string{"Enter: save", "Ctrl+R: show/hide"}
	if m.Session.Status.Clearable() {
		hints = append(hints, "Ctrl+D: clear")
	}
	hints = append(hints, "Esc: close")
	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render(strings.Join(hints, " • "))

	return lipgloss.JoinVertical(lipgloss.Left, append(parts, hint)...)
}

func (m *Model) RenderShortcutsModal() string {
	title := styles.ModalTitleStyle.Render("Keyboard Shortcuts")

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send Message"},
		{"Alt+Enter", "New Line"},
		{"Ctrl+T", "Test Backend Connection"},
		{"Ctrl+S", "API Key Settings"},
		{"Ctrl+G", "View Shortcuts (this menu)"},
		{"Ctrl+C", "Quit Application"},
	}

	var items []string
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFCC80")).
		Bold(true).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#E0E0E0"})

	for _, s := range shortcuts {
		line := fmt.Sprintf("%s %s", keyStyle.Render(s.key), descStyle.Render(s.desc))
		items = append(items, styles.ModalItemStyle.Render(line))
	}

	listContent := lipgloss.JoinVertical(lipgloss.Left, items...)
	content := lipgloss.JoinVertical(lipgloss.Left, title, listContent)

	hint := lipgloss.NewStyle().
		Foreground(styles.HintColor).
		Width(styles.ContentWidth).
		PaddingTop(1).
		Render("Esc/Enter: close")

	return lipgloss.JoinVertical(lipgloss.Left, content, hint)
}

func (m *Model) RenderBottomBar() string {
	status := m.Session.Status
	badge := styles.BadgeStyle(status.Configured).Render(status.Badge())

	url := lipgloss.NewStyle().
		Foreground(styles.FgMuted).
		Render(TruncateWidth(m.BaseURL, 30))

	model := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#B39DDB")).
		Render(TruncateWidth(string(session.ChatModel), 25))

	tokens := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render(fmt.Sprintf("In:%d Out:%d", m.Session.PromptTokens, m.Session.CompletionTokens))

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#555555")).
		Render("Help: ^G")

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, badge, "  ", url, "  ", model)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, tokens, "  ", help)

	availableWidth := m.WindowWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide) - 2
	if availableWidth < 0 {
		availableWidth = 0
	}
	spacer := strings.Repeat(" ", availableWidth)

	bar := lipgloss.JoinHorizontal(lipgloss.Center, leftSide, spacer, rightSide)

	return lipgloss.NewStyle().
		Width(m.WindowWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderColor).
		Padding(0, 1).
		Render(bar)
}

func GetWelcomeScreen(width, height int) string {
	art := `
 ╭────────────────────────────────────────────╮
 │                                            │
 │   ┏━┓┏━┓┏━┓╻  ┏━╸╻ ╻                       │
 │   ┣━┛┣━┫┣┳┛┃  ┣╸ ┗┳┛                       │
 │   ╹  ╹ ╹╹┗╸┗━╸┗━╸ ╹                        │
 │                                            │
 ╰────────────────────────────────────────────╯
`
	subtitle := "Ctrl+S to set an API key, Ctrl+T to test the backend."

	styledArt := styles.WelcomeArtStyle.Render(art)
	styledSubtitle := styles.WelcomeSubtitleStyle.Render(subtitle)

	content := lipgloss.JoinVertical(lipgloss.Center, styledArt, "", styledSubtitle)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) UpdateViewport() {
	s := m.Session
	width := m.Viewport.Width

	var sections []string
	if s.TestReply != "" {
		sections = append(sections, FormatTestReply(s.TestReply, width))
	}
	if s.LastPrompt != "" {
		sections = append(sections, FormatUserMessage(s.LastPrompt, width))
	}
	if s.Busy {
		label := m.PendingLabel
		if label == "" {
			label = "Working..."
		}
		sections = append(sections, fmt.Sprintf("%s %s", m.Spinner.View(), label))
	} else if s.ChatReply != "" {
		sections = append(sections, FormatAIMessage(m.renderReply()))
	}
	if s.ErrorText != "" {
		errLine := lipgloss.NewStyle().
			Foreground(styles.FgError).
			Bold(true).
			Width(width).
			Render("Error: " + s.ErrorText)
		sections = append(sections, errLine)
	}

	if len(sections) == 0 {
		m.Viewport.SetContent(GetWelcomeScreen(m.Viewport.Width, m.Viewport.Height))
		return
	}

	m.Viewport.SetContent(strings.Join(sections, "\n\n"))
	m.Viewport.GotoBottom()
}

func (m *Model) View() string {
	inputWidth := m.WindowWidth - 4
	boxStyle := styles.InputBoxStyle
	if m.Session.Busy {
		boxStyle = styles.InputBoxBusyStyle
	}
	inputBox := boxStyle.Width(inputWidth).Render(m.TextInput.View())

	chatContent := lipgloss.JoinVertical(lipgloss.Center,
		m.RenderHeader(),
		"",
		m.Viewport.View(),
		"",
		inputBox,
	)
	chatArea := lipgloss.PlaceHorizontal(m.WindowWidth, lipgloss.Center, chatContent)
	content := lipgloss.JoinVertical(lipgloss.Left, chatArea, m.RenderBottomBar())

	var modal string
	switch {
	case m.ShortcutsOpen:
		modal = m.RenderShortcutsModal()
	case m.Session.PanelOpen:
		modal = m.RenderSettingsModal()
	default:
		return content
	}

	modal = styles.ModalStyle.Width(ModalWidth).Render(modal)
	return lipgloss.Place(
		m.WindowWidth,
		m.WindowHeight,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceForeground(styles.CurrentTheme.Border),
	)
}
