// Package session holds the interaction controller: all client state plus the
// four request flows (test, chat, save key, clear key) and the credential
// status check.
//
// Every operation changes state synchronously and returns a tea.Cmd that does
// the network call. The command's result message goes back through Apply,
// which settles the flow. A nil command means the call was a no-op.
package session

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/openai/openai-go/v3"

	"parley/internal/models"
)

// ChatModel is sent with every chat request.
const ChatModel = openai.ChatModelGPT4TurboPreview

// Feedback shown when the server gives no detail.
const (
	MsgKeySaved       = "API key saved successfully!"
	MsgKeyCleared     = "API key cleared"
	MsgSaveFailed     = "Failed to save API key"
	MsgClearFailed    = "Failed to clear API key"
	MsgConnectFailed  = "Failed to connect to backend"
	MsgResponseFailed = "Failed to get response"
)

// Backend is the subset of the HTTP client the controller drives.
type Backend interface {
	APIKeyStatus(ctx context.Context) (models.CredentialStatus, error)
	SetAPIKey(ctx context.Context, apiKey string) error
	ClearAPIKey(ctx context.Context) error
	Test(ctx context.Context) (string, error)
	Chat(ctx context.Context, message, model string) (models.ChatReply, error)
}

// Session is one controller instance. It is owned by a single goroutine
// (the bubbletea Update loop or a headless command); commands it returns
// only read immutable fields.
type Session struct {
	backend Backend
	logger  *slog.Logger

	// Test and chat flows
	DraftMessage     string
	LastPrompt       string
	ChatReply        string
	TestReply        string
	ErrorText        string
	Busy             bool
	PromptTokens     int64
	CompletionTokens int64

	Status models.CredentialStatus

	// Settings panel
	PanelOpen        bool
	KeyInput         string
	KeyVisible       bool
	SettingsBusy     bool
	SettingsFeedback string

	statusIssued  uint64
	statusApplied uint64
}

// New creates a controller. A nil logger discards diagnostics.
func New(backend Backend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		backend: backend,
		logger:  logger,
	}
}

// CheckCredentialStatus refreshes Status from the server. Failures are
// logged and otherwise ignored.
func (s *Session) CheckCredentialStatus() tea.Cmd {
	seq := s.nextStatusSeq()
	return func() tea.Msg {
		return s.fetchStatus(context.Background(), seq)
	}
}

// SaveCredential stores KeyInput on the server.
func (s *Session) SaveCredential() tea.Cmd {
	key := strings.TrimSpace(s.KeyInput)
	if key == "" || s.SettingsBusy {
		return nil
	}

	s.SettingsBusy = true
	s.SettingsFeedback = ""
	seq := s.nextStatusSeq()

	return func() tea.Msg {
		ctx := context.Background()
		msg := CredentialResultMsg{Op: OpSave}
		if msg.Err = s.backend.SetAPIKey(ctx, key); msg.Err == nil {
			refresh := s.fetchStatus(ctx, seq)
			msg.Refresh = &refresh
		}
		return msg
	}
}

// ClearCredential removes the server's in-memory key. The UI only offers it
// for memory-sourced keys, but the call itself is never gated.
func (s *Session) ClearCredential() tea.Cmd {
	if s.SettingsBusy {
		return nil
	}

	s.SettingsBusy = true
	s.SettingsFeedback = ""
	seq := s.nextStatusSeq()

	return func() tea.Msg {
		ctx := context.Background()
		msg := CredentialResultMsg{Op: OpClear}
		if msg.Err = s.backend.ClearAPIKey(ctx); msg.Err == nil {
			refresh := s.fetchStatus(ctx, seq)
			msg.Refresh = &refresh
		}
		return msg
	}
}

// TestBackend probes the backend's test endpoint.
func (s *Session) TestBackend() tea.Cmd {
	if s.Busy {
		return nil
	}

	s.Busy = true
	s.ErrorText = ""
	s.TestReply = ""

	return func() tea.Msg {
		message, err := s.backend.Test(context.Background())
		return TestResultMsg{Message: message, Err: err}
	}
}

// SendChat submits DraftMessage to the chat endpoint.
func (s *Session) SendChat() tea.Cmd {
	if strings.TrimSpace(s.DraftMessage) == "" || s.Busy {
		return nil
	}

	message := s.DraftMessage
	s.Busy = true
	s.ErrorText = ""
	s.ChatReply = ""
	s.LastPrompt = message

	return func() tea.Msg {
		reply, err := s.backend.Chat(context.Background(), message, string(ChatModel))
		return ChatResultMsg{Reply: reply, Err: err}
	}
}

// TogglePanel opens or closes the settings panel.
func (s *Session) TogglePanel() {
	s.PanelOpen = !s.PanelOpen
}

// ToggleKeyVisible masks or unmasks the key input.
func (s *Session) ToggleKeyVisible() {
	s.KeyVisible = !s.KeyVisible
}

func (s *Session) nextStatusSeq() uint64 {
	s.statusIssued++
	return s.statusIssued
}

func (s *Session) fetchStatus(ctx context.Context, seq uint64) StatusMsg {
	status, err := s.backend.APIKeyStatus(ctx)
	return StatusMsg{Seq: seq, Status: status, Err: err}
}
