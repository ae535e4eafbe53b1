package session

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/backend"
	"parley/internal/models"
)

type fakeBackend struct {
	status    models.CredentialStatus
	statusErr error
	setErr    error
	clearErr  error
	testMsg   string
	testErr   error
	reply     models.ChatReply
	chatErr   error

	statusCalls int
	setCalls    int
	clearCalls  int
	testCalls   int
	chatCalls   int
	gotKey      string
	gotMessage  string
	gotModel    string
}

func (f *fakeBackend) APIKeyStatus(context.Context) (models.CredentialStatus, error) {
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeBackend) SetAPIKey(_ context.Context, apiKey string) error {
	f.setCalls++
	f.gotKey = apiKey
	return f.setErr
}

func (f *fakeBackend) ClearAPIKey(context.Context) error {
	f.clearCalls++
	return f.clearErr
}

func (f *fakeBackend) Test(context.Context) (string, error) {
	f.testCalls++
	return f.testMsg, f.testErr
}

func (f *fakeBackend) Chat(_ context.Context, message, model string) (models.ChatReply, error) {
	f.chatCalls++
	f.gotMessage = message
	f.gotModel = model
	return f.reply, f.chatErr
}

var errUnreachable = errors.New("dial tcp 127.0.0.1:8000: connect: connection refused")

// settle runs cmd and feeds its message back, the way the bubbletea loop would.
func settle(t *testing.T, s *Session, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	require.True(t, s.Apply(cmd()))
}

func TestCheckCredentialStatus(t *testing.T) {
	fb := &fakeBackend{status: models.CredentialStatus{Configured: true, Source: models.SourceEnvironment}}
	s := New(fb, nil)

	settle(t, s, s.CheckCredentialStatus())

	assert.Equal(t, 1, fb.statusCalls)
	assert.Equal(t, fb.status, s.Status)
}

func TestCheckCredentialStatus_FailureKeepsPriorStatus(t *testing.T) {
	fb := &fakeBackend{status: models.CredentialStatus{Configured: true, Source: models.SourceMemory}}
	s := New(fb, nil)
	settle(t, s, s.CheckCredentialStatus())

	fb.statusErr = errUnreachable
	settle(t, s, s.CheckCredentialStatus())

	assert.Equal(t, models.CredentialStatus{Configured: true, Source: models.SourceMemory}, s.Status)
	assert.Empty(t, s.ErrorText)
	assert.Empty(t, s.SettingsFeedback)
}

func TestCheckCredentialStatus_DiscardsStaleReply(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb, nil)

	older := s.CheckCredentialStatus()
	newer := s.CheckCredentialStatus()

	fb.status = models.CredentialStatus{Configured: true, Source: models.SourceMemory}
	newerMsg := newer()
	fb.status = models.CredentialStatus{}
	olderMsg := older()

	s.Apply(newerMsg)
	s.Apply(olderMsg)

	assert.Equal(t, models.CredentialStatus{Configured: true, Source: models.SourceMemory}, s.Status)
}

func TestSaveCredential_Success(t *testing.T) {
	fb := &fakeBackend{status: models.CredentialStatus{Configured: true, Source: models.SourceMemory}}
	s := New(fb, nil)
	s.KeyInput = "  sk-test\n"
	s.SettingsFeedback = "stale"

	cmd := s.SaveCredential()
	assert.True(t, s.SettingsBusy)
	assert.Empty(t, s.SettingsFeedback)

	settle(t, s, cmd)

	assert.False(t, s.SettingsBusy)
	assert.Equal(t, "sk-test", fb.gotKey)
	assert.Equal(t, MsgKeySaved, s.SettingsFeedback)
	assert.Empty(t, s.KeyInput)
	assert.Equal(t, 1, fb.statusCalls)
	assert.Equal(t, fb.status, s.Status)
}

func TestSaveCredential_ServerDetail(t *testing.T) {
	fb := &fakeBackend{setErr: &backend.APIError{Op: "set api key", StatusCode: 400, Detail: "invalid key format"}}
	s := New(fb, nil)
	s.KeyInput = "sk-test"

	settle(t, s, s.SaveCredential())

	assert.False(t, s.SettingsBusy)
	assert.Equal(t, "invalid key format", s.SettingsFeedback)
	assert.Equal(t, "sk-test", s.KeyInput)
	assert.Zero(t, fb.statusCalls)
}

func TestSaveCredential_FallbackMessage(t *testing.T) {
	fb := &fakeBackend{setErr: errUnreachable}
	s := New(fb, nil)
	s.KeyInput = "sk-test"

	settle(t, s, s.SaveCredential())

	assert.Equal(t, MsgSaveFailed, s.SettingsFeedback)
	assert.False(t, s.SettingsBusy)
	assert.Zero(t, fb.statusCalls)
}

func TestSaveCredential_BlankIsNoop(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		fb := &fakeBackend{}
		s := New(fb, nil)
		s.KeyInput = input
		s.SettingsFeedback = "previous"

		assert.Nil(t, s.SaveCredential())
		assert.False(t, s.SettingsBusy)
		assert.Equal(t, "previous", s.SettingsFeedback)
		assert.Equal(t, input, s.KeyInput)
		assert.Zero(t, fb.setCalls)
	}
}

func TestSaveCredential_IgnoredWhileSettingsBusy(t *testing.T) {
	fb := &fakeBackend{}
	s := New(fb, nil)
	s.KeyInput = "sk-test"

	first := s.SaveCredential()
	require.NotNil(t, first)
	assert.Nil(t, s.SaveCredential())
	assert.Nil(t, s.ClearCredential())

	settle(t, s, first)
	assert.Equal(t, 1, fb.setCalls)
	assert.Zero(t, fb.clearCalls)
}

func TestSaveCredential_RefreshFailureIsSilent(t *testing.T) {
	fb := &fakeBackend{statusErr: errUnreachable}
	s := New(fb, nil)
	s.Status = models.CredentialStatus{Configured: true, Source: models.SourceEnvironment}
	s.KeyInput = "sk-test"

	settle(t, s, s.SaveCredential())

	assert.Equal(t, MsgKeySaved, s.SettingsFeedback)
	assert.Equal(t, 1, fb.statusCalls)
	assert.Equal(t, models.CredentialStatus{Configured: true, Source: models.SourceEnvironment}, s.Status)
}

func TestClearCredential(t *testing.T) {
	t.Run("success refreshes status", func(t *testing.T) {
		fb := &fakeBackend{}
		s := New(fb, nil)
		s.Status = models.CredentialStatus{Configured: true, Source: models.SourceMemory}

		cmd := s.ClearCredential()
		assert.True(t, s.SettingsBusy)
		settle(t, s, cmd)

		assert.False(t, s.SettingsBusy)
		assert.Equal(t, MsgKeyCleared, s.SettingsFeedback)
		assert.Equal(t, 1, fb.statusCalls)
		assert.Equal(t, models.CredentialStatus{}, s.Status)
	})

	t.Run("failure shows detail and skips refresh", func(t *testing.T) {
		fb := &fakeBackend{clearErr: &backend.APIError{Op: "clear api key", StatusCode: 500, Detail: "boom"}}
		s := New(fb, nil)

		settle(t, s, s.ClearCredential())

		assert.False(t, s.SettingsBusy)
		assert.Equal(t, "boom", s.SettingsFeedback)
		assert.Zero(t, fb.statusCalls)
	})

	t.Run("failure without detail uses fallback", func(t *testing.T) {
		fb := &fakeBackend{clearErr: &backend.APIError{Op: "clear api key", StatusCode: 502}}
		s := New(fb, nil)

		settle(t, s, s.ClearCredential())

		assert.Equal(t, MsgClearFailed, s.SettingsFeedback)
	})

	t.Run("issued even for environment keys", func(t *testing.T) {
		fb := &fakeBackend{}
		s := New(fb, nil)
		s.Status = models.CredentialStatus{Configured: true, Source: models.SourceEnvironment}

		settle(t, s, s.ClearCredential())
		assert.Equal(t, 1, fb.clearCalls)
	})
}

func TestTestBackend(t *testing.T) {
	t.Run("pong", func(t *testing.T) {
		fb := &fakeBackend{testMsg: "pong"}
		s := New(fb, nil)
		s.ErrorText = "old error"
		s.TestReply = "old reply"

		cmd := s.TestBackend()
		assert.True(t, s.Busy)
		assert.Empty(t, s.ErrorText)
		assert.Empty(t, s.TestReply)

		settle(t, s, cmd)

		assert.False(t, s.Busy)
		assert.Equal(t, "pong", s.TestReply)
		assert.Empty(t, s.ErrorText)
	})

	t.Run("unreachable", func(t *testing.T) {
		fb := &fakeBackend{testErr: errUnreachable}
		s := New(fb, nil)

		settle(t, s, s.TestBackend())

		assert.False(t, s.Busy)
		assert.Equal(t, MsgConnectFailed, s.ErrorText)
		assert.Empty(t, s.TestReply)
	})

	t.Run("server detail", func(t *testing.T) {
		fb := &fakeBackend{testErr: &backend.APIError{Op: "test backend", StatusCode: 503, Detail: "maintenance"}}
		s := New(fb, nil)

		settle(t, s, s.TestBackend())
		assert.Equal(t, "maintenance", s.ErrorText)
	})

	t.Run("ignored while busy", func(t *testing.T) {
		fb := &fakeBackend{testMsg: "pong"}
		s := New(fb, nil)

		first := s.TestBackend()
		assert.Nil(t, s.TestBackend())
		settle(t, s, first)
		assert.Equal(t, 1, fb.testCalls)
	})
}

func TestSendChat(t *testing.T) {
	t.Run("hello", func(t *testing.T) {
		fb := &fakeBackend{reply: models.ChatReply{
			Response: "hi there",
			Usage:    models.Usage{PromptTokens: 10, CompletionTokens: 4, TotalTokens: 14},
		}}
		s := New(fb, nil)
		s.DraftMessage = "hello"
		s.ChatReply = "older reply"
		s.ErrorText = "older error"

		cmd := s.SendChat()
		assert.True(t, s.Busy)
		assert.Empty(t, s.ChatReply)
		assert.Empty(t, s.ErrorText)
		assert.Equal(t, "hello", s.LastPrompt)

		settle(t, s, cmd)

		assert.False(t, s.Busy)
		assert.Equal(t, "hi there", s.ChatReply)
		assert.Empty(t, s.DraftMessage)
		assert.Equal(t, "hello", fb.gotMessage)
		assert.Equal(t, "gpt-4-turbo-preview", fb.gotModel)
		assert.EqualValues(t, 10, s.PromptTokens)
		assert.EqualValues(t, 4, s.CompletionTokens)
	})

	t.Run("failure keeps draft", func(t *testing.T) {
		fb := &fakeBackend{chatErr: &backend.APIError{Op: "chat", StatusCode: 401, Detail: "Invalid OpenAI API key"}}
		s := New(fb, nil)
		s.DraftMessage = "hello"

		settle(t, s, s.SendChat())

		assert.False(t, s.Busy)
		assert.Equal(t, "Invalid OpenAI API key", s.ErrorText)
		assert.Equal(t, "hello", s.DraftMessage)
		assert.Empty(t, s.ChatReply)
	})

	t.Run("shape mismatch uses fallback", func(t *testing.T) {
		fb := &fakeBackend{chatErr: backend.ErrUnexpectedShape}
		s := New(fb, nil)
		s.DraftMessage = "hello"

		settle(t, s, s.SendChat())
		assert.Equal(t, MsgResponseFailed, s.ErrorText)
	})

	t.Run("blank draft is a no-op", func(t *testing.T) {
		fb := &fakeBackend{}
		s := New(fb, nil)
		s.DraftMessage = "  \n "
		s.ChatReply = "keep"
		s.ErrorText = "keep"

		assert.Nil(t, s.SendChat())
		assert.False(t, s.Busy)
		assert.Equal(t, "keep", s.ChatReply)
		assert.Equal(t, "keep", s.ErrorText)
		assert.Zero(t, fb.chatCalls)
	})

	t.Run("test and chat share the busy flag", func(t *testing.T) {
		fb := &fakeBackend{testMsg: "pong"}
		s := New(fb, nil)
		s.DraftMessage = "hello"

		pending := s.TestBackend()
		assert.Nil(t, s.SendChat())
		settle(t, s, pending)
		assert.Zero(t, fb.chatCalls)
	})
}

func TestFlowsAreIndependent(t *testing.T) {
	fb := &fakeBackend{testMsg: "pong", setErr: errUnreachable}
	s := New(fb, nil)
	s.KeyInput = "sk-test"

	save := s.SaveCredential()
	test := s.TestBackend()
	require.NotNil(t, save)
	require.NotNil(t, test)
	assert.True(t, s.Busy)
	assert.True(t, s.SettingsBusy)

	settle(t, s, save)
	assert.True(t, s.Busy)
	assert.Empty(t, s.ErrorText)

	settle(t, s, test)
	assert.Equal(t, "pong", s.TestReply)
	assert.Equal(t, MsgSaveFailed, s.SettingsFeedback)
}

func TestApply_IgnoresForeignMessages(t *testing.T) {
	s := New(&fakeBackend{}, nil)
	assert.False(t, s.Apply(tea.WindowSizeMsg{Width: 80, Height: 24}))
}

func TestPanelToggles(t *testing.T) {
	s := New(&fakeBackend{}, nil)

	s.TogglePanel()
	assert.True(t, s.PanelOpen)
	s.ToggleKeyVisible()
	assert.True(t, s.KeyVisible)
	s.TogglePanel()
	s.ToggleKeyVisible()
	assert.False(t, s.PanelOpen)
	assert.False(t, s.KeyVisible)
}
