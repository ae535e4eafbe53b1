package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/styles"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	if m.Session.Apply(msg) {
		if !m.Session.Busy {
			m.PendingLabel = ""
		}
		m.syncInputs()
		m.UpdateViewport()
		return m, nil
	}

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var spCmd tea.Cmd
		m.Spinner, spCmd = m.Spinner.Update(msg)
		if m.Session.Busy {
			m.UpdateViewport()
		}
		return m, spCmd

	case tea.KeyMsg:
		if m.ShortcutsOpen {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "ctrl+g":
				m.ShortcutsOpen = false
			}
			return m, nil
		}

		if m.Session.PanelOpen {
			return m, m.updateSettings(msg)
		}

		if isNewlineShortcut(msg) {
			m.TextInput.InsertString("\n")
			m.Session.DraftMessage = m.TextInput.Value()
			m.updateInputLayout()
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlT:
			return m, m.startTest()

		case tea.KeyCtrlS:
			return m, m.openSettings()

		case tea.KeyCtrlG:
			m.ShortcutsOpen = true
			return m, nil

		case tea.KeyEnter:
			return m, m.submitChat()
		}

	case tea.WindowSizeMsg:
		m.WindowWidth = msg.Width
		m.WindowHeight = msg.Height

		ModalWidth = msg.Width - 10
		if ModalWidth > MaxModalWidth {
			ModalWidth = MaxModalWidth
		}
		if ModalWidth < MinModalWidth {
			ModalWidth = MinModalWidth
		}
		styles.ContentWidth = ModalWidth - 6
		m.KeyInput.Width = styles.ContentWidth - 4

		chatWidth := msg.Width - 2
		m.Viewport.Width = chatWidth - 2

		m.updateInputLayout()
		glamourStyle := "dark"
		if !lipgloss.HasDarkBackground() {
			glamourStyle = "light"
		}
		m.Renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath(glamourStyle),
			glamour.WithWordWrap(chatWidth-6),
		)
		m.renderedFrom = ""
		m.UpdateViewport()
		return m, nil
	}

	m.TextInput, tiCmd = m.TextInput.Update(msg)

	// Terminal background color replies can leak into the input on start-up.
	val := m.TextInput.Value()
	if strings.Contains(val, "]11;rgb:") || strings.Contains(val, "1;rgb:") || strings.Contains(val, "[1;1R") {
		m.TextInput.Reset()
	}
	m.Session.DraftMessage = m.TextInput.Value()
	m.updateInputLayout()

	m.Viewport, vpCmd = m.Viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m *Model) updateSettings(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc", "ctrl+s":
		m.closeSettings()
		return nil
	case "enter":
		m.Session.KeyInput = m.KeyInput.Value()
		return m.Session.SaveCredential()
	case "ctrl+d":
		if !m.Session.Status.Clearable() {
			return nil
		}
		return m.Session.ClearCredential()
	case "ctrl+r":
		m.Session.ToggleKeyVisible()
		m.applyKeyEcho()
		return nil
	case "ctrl+t":
		return m.startTest()
	}

	var cmd tea.Cmd
	m.KeyInput, cmd = m.KeyInput.Update(msg)
	m.Session.KeyInput = m.KeyInput.Value()
	return cmd
}

func isNewlineShortcut(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "shift+enter", "shift+return", "ctrl+j", "alt+enter":
		return true
	default:
		return false
	}
}

func (m *Model) submitChat() tea.Cmd {
	m.Session.DraftMessage = m.TextInput.Value()
	cmd := m.Session.SendChat()
	if cmd == nil {
		return nil
	}
	m.PendingLabel = "Generating..."
	m.UpdateViewport()
	return cmd
}

func (m *Model) startTest() tea.Cmd {
	cmd := m.Session.TestBackend()
	if cmd == nil {
		return nil
	}
	m.PendingLabel = "Testing backend..."
	m.UpdateViewport()
	return cmd
}

func (m *Model) openSettings() tea.Cmd {
	m.Session.TogglePanel()
	m.TextInput.Blur()
	m.KeyInput.SetValue(m.Session.KeyInput)
	m.applyKeyEcho()
	return m.KeyInput.Focus()
}

func (m *Model) closeSettings() {
	m.Session.TogglePanel()
	m.KeyInput.Blur()
	m.TextInput.Focus()
}

func (m *Model) applyKeyEcho() {
	if m.Session.KeyVisible {
		m.KeyInput.EchoMode = textinput.EchoNormal
	} else {
		m.KeyInput.EchoMode = textinput.EchoPassword
	}
}

// syncInputs copies controller-side edits (cleared draft or key) back into
// the widgets.
func (m *Model) syncInputs() {
	if m.TextInput.Value() != m.Session.DraftMessage {
		m.TextInput.SetValue(m.Session.DraftMessage)
		m.updateInputLayout()
	}
	if m.KeyInput.Value() != m.Session.KeyInput {
		m.KeyInput.SetValue(m.Session.KeyInput)
	}
}

func (m *Model) updateInputLayout() {
	if m.WindowWidth == 0 || m.WindowHeight == 0 {
		return
	}

	inputWidth := m.WindowWidth - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	contentWidth := inputWidth - 2
	if contentWidth < 1 {
		contentWidth = 1
	}

	lineCount := WrappedLineCount(m.TextInput.Value(), contentWidth)
	if lineCount < 1 {
		lineCount = 1
	}
	if lineCount > MaxInputHeight {
		lineCount = MaxInputHeight
	}

	m.TextInput.MaxHeight = MaxInputHeight
	m.TextInput.SetWidth(inputWidth)
	m.TextInput.SetHeight(lineCount)

	inputBoxHeight := m.TextInput.Height() + 2
	reserved := inputBoxHeight + 7
	viewportHeight := m.WindowHeight - reserved
	if viewportHeight < 5 {
		viewportHeight = 5
	}
	m.Viewport.Height = viewportHeight
}
