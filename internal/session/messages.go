package session

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/backend"
	"parley/internal/models"
)

type CredentialOp int

const (
	OpSave CredentialOp = iota
	OpClear
)

func (op CredentialOp) String() string {
	if op == OpClear {
		return "clear"
	}
	return "save"
}

// StatusMsg carries a credential status fetch. Seq orders fetches so a late
// reply cannot overwrite a newer one.
type StatusMsg struct {
	Seq    uint64
	Status models.CredentialStatus
	Err    error
}

// CredentialResultMsg settles a save or clear. Refresh is set only when the
// mutation succeeded, and holds the follow-up status fetch.
type CredentialResultMsg struct {
	Op      CredentialOp
	Err     error
	Refresh *StatusMsg
}

type TestResultMsg struct {
	Message string
	Err     error
}

type ChatResultMsg struct {
	Reply models.ChatReply
	Err   error
}

// Apply settles a flow from its result message. It reports whether msg
// belonged to the controller.
func (s *Session) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case StatusMsg:
		s.applyStatus(msg)

	case CredentialResultMsg:
		s.SettingsBusy = false
		if msg.Err != nil {
			fallback := MsgSaveFailed
			if msg.Op == OpClear {
				fallback = MsgClearFailed
			}
			s.SettingsFeedback = backend.DetailOr(msg.Err, fallback)
			s.logger.Warn("api key update failed", slog.String("op", msg.Op.String()), slog.Any("error", msg.Err))
			return true
		}

		if msg.Op == OpSave {
			s.SettingsFeedback = MsgKeySaved
			s.KeyInput = ""
		} else {
			s.SettingsFeedback = MsgKeyCleared
		}
		s.logger.Info("api key updated", slog.String("op", msg.Op.String()))
		if msg.Refresh != nil {
			s.applyStatus(*msg.Refresh)
		}

	case TestResultMsg:
		s.Busy = false
		if msg.Err != nil {
			s.ErrorText = backend.DetailOr(msg.Err, MsgConnectFailed)
			s.logger.Warn("backend test failed", slog.Any("error", msg.Err))
			return true
		}
		s.TestReply = msg.Message

	case ChatResultMsg:
		s.Busy = false
		if msg.Err != nil {
			s.ErrorText = backend.DetailOr(msg.Err, MsgResponseFailed)
			s.logger.Warn("chat request failed", slog.Any("error", msg.Err))
			return true
		}
		s.ChatReply = msg.Reply.Response
		s.DraftMessage = ""
		s.PromptTokens += msg.Reply.Usage.PromptTokens
		s.CompletionTokens += msg.Reply.Usage.CompletionTokens
		s.logger.Debug("chat reply received",
			slog.String("model", msg.Reply.Model),
			slog.Int64("usage.total", msg.Reply.Usage.TotalTokens),
		)

	default:
		return false
	}
	return true
}

func (s *Session) applyStatus(msg StatusMsg) {
	if msg.Err != nil {
		s.logger.Warn("failed to check api key status", slog.Any("error", msg.Err))
		return
	}
	if msg.Seq < s.statusApplied {
		s.logger.Debug("discarding stale api key status",
			slog.Uint64("seq", msg.Seq),
			slog.Uint64("applied", s.statusApplied),
		)
		return
	}
	s.statusApplied = msg.Seq
	s.Status = msg.Status
}
