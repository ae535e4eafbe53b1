// Package cmd wires parley's cobra commands: the root command runs the
// terminal UI and the subcommands run one flow each without it.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"parley/internal/backend"
	"parley/internal/config"
	clierrors "parley/internal/errors"
	"parley/internal/observability"
	"parley/internal/output"
	"parley/internal/session"
	"parley/internal/ui"
)

// Version is set via ldflags during build.
var Version = "dev"

// runtime is filled in by the root PersistentPreRunE and shared by every
// subcommand.
type runtime struct {
	out     *output.Writer
	logger  *slog.Logger
	baseURL string
	client  *backend.Client
}

func (rt *runtime) newSession() *session.Session {
	return session.New(rt.client, rt.logger)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	out := output.Default()
	if err := NewRootCmd(out).Execute(); err != nil {
		return handleError(out, err)
	}
	return clierrors.ExitSuccess
}

// handleError prints err and picks the exit code for it.
func handleError(out *output.Writer, err error) int {
	var cliErr *clierrors.CLIError
	if clierrors.As(err, &cliErr) {
		out.Failure("%s", cliErr.Message)
		if cliErr.Hint != "" {
			out.Info("%s", cliErr.Hint)
		}
		return cliErr.Code
	}

	errStr := err.Error()
	if strings.HasPrefix(errStr, "unknown command") ||
		strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "accepts") ||
		strings.HasPrefix(errStr, "requires at least") {
		out.Failure("%s", errStr)
		out.Info("Run 'parley --help' for usage")
		return clierrors.ExitUsage
	}

	out.Failure("%s", errStr)
	return clierrors.ExitGeneral
}

// NewRootCmd builds the command tree writing through out.
func NewRootCmd(out *output.Writer) *cobra.Command {
	var noColor bool

	rt := &runtime{out: out}

	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Chat client and API key panel for a parley backend",
		Long: `Parley talks to a parley backend: it sends chat messages, probes the
backend and manages the API key the backend holds in memory.

With no subcommand it starts the interactive terminal UI.

Examples:
  parley                          Start the terminal UI
  parley test                     Check the backend is reachable
  parley chat "hello"             Send one message
  parley key set sk-...           Store an API key on the backend`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				out.SetColor(false)
				color.NoColor = true
			}

			cfg, err := config.Load()
			if err != nil {
				return clierrors.Wrap(clierrors.ExitConfig, "Could not load configuration", err).
					WithHint("Check ~/.config/parley/config.yaml")
			}

			flags := cmd.Root().PersistentFlags()
			bindings := map[string]string{
				config.KeyBackendURL: "url",
				config.KeyLogLevel:   "log-level",
				config.KeyLogFormat:  "log-format",
				config.KeyLogFile:    "log-file",
				config.KeyLogStderr:  "log-stderr",
			}
			for key, name := range bindings {
				if err := cfg.BindFlag(key, flags.Lookup(name)); err != nil {
					return clierrors.Wrap(clierrors.ExitConfig, "Could not bind flag --"+name, err)
				}
			}

			logCfg := observability.Config{
				Level:          cfg.LogLevel(),
				Format:         cfg.LogFormat(),
				LogFile:        cfg.LogFile(),
				StderrMode:     cfg.LogStderr(),
				InteractiveTTY: cmd == cmd.Root() && output.IsTerminal(os.Stdout),
				Command:        cmd.CommandPath(),
				Version:        Version,
			}
			logger, cleanup, err := observability.NewLogger(&logCfg)
			if err != nil {
				return &clierrors.CLIError{
					Message: fmt.Sprintf("Invalid logging configuration: %v", err),
					Hint:    "Use --log-level (error|warn|info|debug), --log-format (json|text), --log-stderr (auto|on|off), and/or --log-file",
					Code:    clierrors.ExitUsage,
				}
			}
			if cleanup != nil {
				cmd.PostRunE = wrapPostRunCleanup(cmd.PostRunE, cleanup)
			}
			slog.SetDefault(logger)

			baseURL, err := backend.ResolveBaseURL(cfg.BackendURL())
			if err != nil {
				return clierrors.Wrap(clierrors.ExitConfig, "Invalid backend URL", err).
					WithHint("Pass --url or set PARLEY_BACKEND_URL, e.g. http://localhost")
			}

			rt.logger = logger
			rt.baseURL = baseURL
			rt.client = backend.New(baseURL)
			logger.Debug("backend resolved", slog.String("base_url", baseURL))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := ui.NewProgram(rt.newSession(), rt.baseURL)
			if _, err := p.Run(); err != nil {
				return clierrors.Wrap(clierrors.ExitGeneral, "Terminal UI failed", err)
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("url", "", "Deployment URL the backend origin is derived from (default http://localhost)")
	pf.String("log-level", "", "Log level: error, warn, info, debug")
	pf.String("log-format", "", "Log format: json, text")
	pf.String("log-file", "", "Optional structured log file path")
	pf.String("log-stderr", "", "Structured logging to stderr: auto, on, off")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SuggestionsMinimumDistance = 2

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &clierrors.CLIError{
			Message: err.Error(),
			Hint:    fmt.Sprintf("Run '%s --help' for available flags", cmd.CommandPath()),
			Code:    clierrors.ExitUsage,
		}
	})

	rootCmd.AddCommand(newTestCmd(rt))
	rootCmd.AddCommand(newChatCmd(rt))
	rootCmd.AddCommand(newKeyCmd(rt))
	rootCmd.AddCommand(newHealthCmd(rt))

	return rootCmd
}

func wrapPostRunCleanup(postRun func(*cobra.Command, []string) error, cleanup func() error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if postRun != nil {
			if err := postRun(cmd, args); err != nil {
				_ = cleanup()
				return err
			}
		}
		if err := cleanup(); err != nil {
			return fmt.Errorf("cleanup logger resources: %w", err)
		}
		return nil
	}
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &clierrors.CLIError{
			Message: fmt.Sprintf("'%s' accepts no arguments", cmd.CommandPath()),
			Hint:    fmt.Sprintf("Run '%s --help' for usage", cmd.CommandPath()),
			Code:    clierrors.ExitUsage,
		}
	}
	return nil
}
