package cmd

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	clierrors "parley/internal/errors"
	"parley/internal/models"
	"parley/internal/session"
)

// settle runs a session command to completion and applies its result.
// It returns the result message so callers can inspect the error.
func settle(sess *session.Session, cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	sess.Apply(msg)
	return msg
}

func networkError(message string, cause error) *clierrors.CLIError {
	return clierrors.Wrap(clierrors.ExitNetwork, message, cause).
		WithHint("Check the backend is running and --url points at it")
}

func newTestCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "test",
		Short:   "Check the backend is reachable",
		Example: `  parley test`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.newSession()
			msg := settle(sess, sess.TestBackend())
			if res, ok := msg.(session.TestResultMsg); ok && res.Err != nil {
				return networkError(sess.ErrorText, res.Err)
			}
			rt.out.Success("%s", sess.TestReply)
			return nil
		},
	}
}

func newChatCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message...>",
		Short: "Send one chat message and print the reply",
		Example: `  parley chat "hello"
  parley chat explain goroutines briefly`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.newSession()
			sess.DraftMessage = strings.Join(args, " ")

			send := sess.SendChat()
			if send == nil {
				return clierrors.New(clierrors.ExitUsage, "Message is empty").
					WithHint("Pass the text to send, e.g. parley chat \"hello\"")
			}
			msg := settle(sess, send)
			res, _ := msg.(session.ChatResultMsg)
			if res.Err != nil {
				return networkError(sess.ErrorText, res.Err)
			}

			rt.out.Println(renderReply(sess.ChatReply, rt.out.Colored()))
			model := res.Reply.Model
			if model == "" {
				model = string(session.ChatModel)
			}
			rt.out.Muted("%s · in %d · out %d", model, sess.PromptTokens, sess.CompletionTokens)
			return nil
		},
	}
}

// renderReply formats markdown for a terminal and leaves it raw otherwise.
func renderReply(reply string, terminal bool) string {
	if !terminal {
		return reply
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return reply
	}
	rendered, err := r.Render(reply)
	if err != nil {
		return reply
	}
	return strings.TrimRight(rendered, "\n")
}

// KeyStatus is the --json form of `key status`.
type KeyStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Clearable  bool   `json:"clearable"`
	Badge      string `json:"badge"`
}

func newKeyCmd(rt *runtime) *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key held by the backend",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	keyCmd.AddCommand(newKeyStatusCmd(rt))
	keyCmd.AddCommand(newKeySetCmd(rt))
	keyCmd.AddCommand(newKeyClearCmd(rt))

	return keyCmd
}

func newKeyStatusCmd(rt *runtime) *cobra.Command {
	var jsonOutput bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the backend has an API key",
		Example: `  parley key status
  parley key status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.newSession()
			msg := settle(sess, sess.CheckCredentialStatus())
			if res, ok := msg.(session.StatusMsg); ok && res.Err != nil {
				return networkError(session.MsgConnectFailed, res.Err)
			}

			status := sess.Status
			if jsonOutput {
				return rt.out.PrintJSON(KeyStatus{
					Configured: status.Configured,
					Source:     string(status.Source),
					Clearable:  status.Clearable(),
					Badge:      status.Badge(),
				})
			}

			printBadge(rt, status)
			return nil
		},
	}

	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return statusCmd
}

func printBadge(rt *runtime, status models.CredentialStatus) {
	if status.Configured {
		rt.out.Success("%s", status.Badge())
		return
	}
	rt.out.Warning("%s", status.Badge())
}

func newKeySetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "set <api-key>",
		Short:   "Store an API key in the backend's memory",
		Example: `  parley key set sk-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.newSession()
			sess.KeyInput = args[0]

			save := sess.SaveCredential()
			if save == nil {
				return clierrors.New(clierrors.ExitUsage, "API key is empty")
			}
			return finishCredential(rt, sess, settle(sess, save))
		},
	}
}

func newKeyClearCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Remove the API key from the backend's memory",
		Example: `  parley key clear`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := rt.newSession()
			return finishCredential(rt, sess, settle(sess, sess.ClearCredential()))
		},
	}
}

func finishCredential(rt *runtime, sess *session.Session, msg tea.Msg) error {
	res, ok := msg.(session.CredentialResultMsg)
	if !ok {
		return fmt.Errorf("unexpected result %T", msg)
	}
	if res.Err != nil {
		return networkError(sess.SettingsFeedback, res.Err)
	}

	rt.out.Success("%s", sess.SettingsFeedback)
	if res.Refresh != nil && res.Refresh.Err == nil {
		printBadge(rt, sess.Status)
	}
	return nil
}

func newHealthCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "health",
		Short:   "Call the backend's health probe",
		Example: `  parley health`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			health, err := rt.client.Health(ctx)
			if err != nil {
				return networkError("Health check failed", err)
			}
			if health.Service != "" {
				rt.out.Success("%s (%s)", health.Status, health.Service)
				return nil
			}
			rt.out.Success("%s", health.Status)
			return nil
		},
	}
}
