package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/session"
	"parley/internal/styles"
)

func InitialModel(sess *session.Session, baseURL string) Model {
	ti := textarea.New()
	ti.Placeholder = "Type your message..."
	ti.Prompt = "❯ "
	ti.ShowLineNumbers = false
	ti.CharLimit = 10000
	ti.MaxHeight = MaxInputHeight
	ti.SetHeight(2)
	ti.SetWidth(80)
	ti.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#B39DDB")).Bold(true)
	ti.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(lipgloss.Color("#545454"))
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.BlurredStyle.CursorLine = lipgloss.NewStyle()
	ti.Focus()

	ki := textinput.New()
	ki.Placeholder = "sk-..."
	ki.Prompt = "🔑 "
	ki.EchoMode = textinput.EchoPassword
	ki.EchoCharacter = '•'
	ki.Width = styles.ContentWidth - 4
	ki.PromptStyle = lipgloss.NewStyle().Foreground(styles.FgPrimary)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#B39DDB"))

	return Model{
		Session:   sess,
		Viewport:  viewport.New(60, 15),
		TextInput: ti,
		KeyInput:  ki,
		Spinner:   sp,
		BaseURL:   baseURL,
	}
}

// Init starts the cursor and spinner and issues the on-start status check.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.Spinner.Tick,
		m.Session.CheckCredentialStatus(),
	)
}

func NewProgram(sess *session.Session, baseURL string) *tea.Program {
	styles.InitTheme()
	m := InitialModel(sess, baseURL)
	return tea.NewProgram(&m, tea.WithAltScreen())
}
