// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/config"
	"github.com/AnuGuin/legalai/internal/logging"
	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/storage"
	"github.com/AnuGuin/legalai/internal/stream"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// =============================================================================
// APP
// =============================================================================

// App holds the global flags and the dependencies shared by every command.
type App struct {
	info BuildInfo

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader

	// interactive is set when stdin and stdout are terminals.
	interactive bool

	// Global flags
	configPath string
	jsonOut    bool
	quiet      bool
	verbose    bool

	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
	store     storage.Store
	usage     *storage.UsageTracker
	client    *api.Client
}

func newApp(info BuildInfo, in io.Reader, out, errOut io.Writer, interactive bool) *App {
	return &App{
		info:        info,
		in:          in,
		out:         out,
		errOut:      errOut,
		interactive: interactive,
		logger:      logging.Nop(),
	}
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, info BuildInfo, args []string) int {
	app := newApp(info, os.Stdin, os.Stdout, os.Stderr, IsTTY() && IsStdoutTTY())
	defer app.Close()

	root := app.RootCommand()
	root.SetArgs(args)
	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		name := root.Name()
		if cmd != nil {
			name = cmd.CommandPath()
		}
		DisplayError(app.out, app.errOut, name, err, app.jsonOut)
	}
	return ExitCode(err)
}

// RootCommand builds the command tree.
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "legalai",
		Short: "Terminal client for the Legal AI assistant",
		Long: `legalai talks to the Legal AI service from the terminal.

Start an interactive session with 'legalai chat' or 'legalai tui', or script
the service with the other commands.

Examples:
  legalai login --token $LEGALAI_TOKEN
  legalai ask "Is a verbal tenancy agreement binding?"
  legalai ask --file lease.pdf "Summarise the break clause"
  legalai conversations list
  legalai translate --to fr "Notice of termination"`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", a.info.Version, a.info.GitCommit, a.info.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipSetup(cmd) {
				return nil
			}
			return a.setup()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (default ~/.legalai/config.toml)")
	flags.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "only print results and errors")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		a.newChatCommand(),
		a.newTUICommand(),
		a.newAskCommand(),
		a.newConversationsCommand(),
		a.newTranslateCommand(),
		a.newProfileCommand(),
		a.newStatsCommand(),
		a.newLoginCommand(),
		a.newLogoutCommand(),
		a.newConfigCommand(),
	)
	return root
}

// annotationNoSetup marks commands, and their children, that run without
// the API client.
const annotationNoSetup = "legalai/no-setup"

func skipSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationNoSetup] == "true" {
			return true
		}
	}
	return false
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads the configuration and builds the logger, store and client.
func (a *App) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	config.SetGlobal(cfg)

	opts := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File}
	switch {
	case a.verbose:
		opts.Level = "debug"
	case a.quiet:
		opts.Level = "error"
	}
	logger, closer, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.logger, a.logCloser = logger, closer

	store, err := storage.Open(storage.Options{Backend: cfg.Storage.Backend, Path: cfg.Storage.Path})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	a.store = store
	a.usage = storage.NewUsageTracker(store)
	a.client = a.newClient(cfg)

	a.logger.Debug().
		Str("base_url", a.client.BaseURL()).
		Str("storage", cfg.Storage.Backend).
		Msg("initialized")
	return nil
}

func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

func (a *App) newClient(cfg *config.Config) *api.Client {
	return api.New(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		UserAgent:         "legalai/" + a.info.Version,
		Usage:             a.usage,
	}, a.store, a.logger)
}

// configFile returns the file config commands read and write.
func (a *App) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	path, err := config.FindPath()
	if err != nil || path != "" {
		return path, err
	}
	return config.DefaultPath()
}

// Close releases the store and the log file.
func (a *App) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close storage")
		}
		a.store = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// newStreamer builds the playback engine from the stream section.
func (a *App) newStreamer() *stream.Streamer {
	return stream.New(stream.Options{
		Interval:     a.cfg.Stream.Interval(),
		WordsPerTick: a.cfg.Stream.WordsPerTick,
	})
}

// chatMode resolves a --mode flag, falling back to ui.mode.
func (a *App) chatMode(flag string) (model.ChatMode, error) {
	if flag == "" {
		flag = a.cfg.UI.Mode
	}
	mode, err := model.ParseChatMode(flag)
	if err != nil {
		return "", &UsageError{Err: err}
	}
	return mode, nil
}

// emit prints data as JSON in --json mode and calls human otherwise.
func (a *App) emit(cmd *cobra.Command, data interface{}, human func(w io.Writer)) error {
	if a.jsonOut {
		return NewJSONResponse(cmd.CommandPath(), data).Write(a.out)
	}
	human(a.out)
	return nil
}

// progress prints a status line unless --quiet or --json is set.
func (a *App) progress(format string, args ...interface{}) {
	if a.quiet || a.jsonOut {
		return
	}
	fmt.Fprintf(a.errOut, format+"\n", args...)
}

// success prints a success line unless --quiet or --json is set.
func (a *App) success(format string, args ...interface{}) {
	if a.quiet || a.jsonOut {
		return
	}
	fmt.Fprintln(a.out, SuccessStyle.Render("[OK]")+" "+fmt.Sprintf(format, args...))
}

// confirm asks a yes/no question on stdin. assumeYes skips the prompt; a
// non-interactive session without it is refused.
func (a *App) confirm(question string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	if !a.interactive {
		return usageErrorf("%s: confirmation required, re-run with --yes", strings.TrimSuffix(question, "?"))
	}
	fmt.Fprintf(a.errOut, "%s [y/N]: ", question)
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && line == "" {
		return ErrCancelled
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	fmt.Fprintln(a.errOut, DimStyle.Render("Cancelled."))
	return ErrCancelled
}

// readText joins args, or reads stdin when args is empty or "-".
func (a *App) readText(args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.TrimSpace(strings.Join(args, " ")), nil
	}
	if a.interactive && (len(args) == 0) {
		return "", usageErrorf("no text given")
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
