package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"parley/internal/session"
)

const (
	MaxInputHeight = 6
	MinModalWidth  = 30
	MaxModalWidth  = 64
)

var ModalWidth = 60

const settingsNote = "The API key is stored in server memory and will be cleared when the server restarts."

type Model struct {
	Session *session.Session

	Viewport  viewport.Model
	TextInput textarea.Model
	KeyInput  textinput.Model
	Spinner   spinner.Model
	Renderer  *glamour.TermRenderer

	BaseURL       string
	PendingLabel  string
	ShortcutsOpen bool
	WindowWidth   int
	WindowHeight  int

	// glamour output for the current ChatReply
	renderedReply string
	renderedFrom  string
}
