// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-based chat.
//
// The REPL drives a session.Controller. Replies are written to the terminal
// as the streamer plays them back, and notifications are printed as one-line
// toasts. Ctrl+C interrupts the current request or reply; Ctrl+D exits.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/config"
	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/notify"
	"github.com/AnuGuin/legalai/internal/session"
	"github.com/AnuGuin/legalai/internal/util"
)

func (a *App) newChatCommand() *cobra.Command {
	var conversationID, modeFlag string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a question and press Enter. Lines starting with / are commands; /help
lists them. Up and Down recall earlier input. Ctrl+C interrupts a reply and
Ctrl+D exits.

Changes to the configuration file are picked up while the session runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := RequiresTTY("chat", a.interactive); err != nil {
				return err
			}
			mode, err := a.chatMode(modeFlag)
			if err != nil {
				return err
			}
			return a.runChat(cmd.Context(), conversationID, mode)
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "open this conversation")
	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "chat mode: normal or agentic (default ui.mode)")
	return cmd
}

// =============================================================================
// INPUT
// =============================================================================

// ChatCLI provides input history and line editing.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads the saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := util.HomeDir()
	if err != nil {
		dir = os.TempDir()
	}
	c := &ChatCLI{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads one line. Non-blank input is added to the history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question. It satisfies session.Confirmer.
func (c *ChatCLI) Confirm(_ context.Context, prompt string) (bool, error) {
	answer, err := c.line.Prompt(prompt + " [y/N]: ")
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (c *ChatCLI) Close() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// SESSION
// =============================================================================

func (a *App) runChat(ctx context.Context, conversationID string, mode model.ChatMode) error {
	input := NewChatCLI()
	defer input.Close()

	backend := newLiveAPI(a.client)
	printer := newReplyPrinter(a.out, a.newMarkdown())
	repl := &chatREPL{
		app:     a,
		ctx:     ctx,
		out:     a.out,
		api:     backend,
		printer: printer,
	}
	repl.ctrl = session.New(session.Deps{
		API:       backend,
		Streamer:  printer.tee(a.newStreamer()),
		Notifier:  notify.Func(repl.printNotification),
		Navigator: session.NavigatorFunc(repl.navigate),
		Confirmer: input,
		Clipboard: systemClipboard{},
		Logger:    a.logger,
	}, session.Options{Mode: mode})
	defer repl.ctrl.Close()

	if stop := a.watchConfig(ctx, repl); stop != nil {
		defer stop()
	}

	repl.printWelcome()
	if err := repl.ctrl.Load(ctx, conversationID); err == nil && conversationID != "" {
		if conv, ok := repl.ctrl.State().Active(); ok {
			printConversation(a.out, printer.markdown(), conv)
		}
	}

	for {
		line, err := input.ReadInput(repl.prompt())
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(a.out)
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}
		if repl.handleLine(line) {
			return nil
		}
	}
}

// watchConfig reloads the client and renderer when the config file changes.
// It returns nil when there is no file to watch.
func (a *App) watchConfig(ctx context.Context, repl *chatREPL) func() {
	path, err := a.configFile()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.Watch(ctx, path, func(cfg *config.Config) {
		a.cfg = cfg
		config.SetGlobal(cfg)
		repl.api.Swap(a.newClient(cfg))
		repl.printer.setMarkdown(a.newMarkdown())
		repl.printNotification(notify.Status("Configuration reloaded", path))
	}, func(err error) {
		repl.printNotification(notify.FromError("Configuration not reloaded", err))
	})
	if err != nil {
		a.logger.Warn().Err(err).Str("path", path).Msg("config watch unavailable")
		return nil
	}
	return func() { w.Close() }
}

// chatREPL runs slash commands and messages against the controller.
type chatREPL struct {
	app     *App
	ctx     context.Context
	out     io.Writer
	ctrl    *session.Controller
	api     *liveAPI
	printer *replyPrinter
}

func (r *chatREPL) prompt() string {
	state := r.ctrl.State()
	if conv, ok := state.Active(); ok {
		return fmt.Sprintf("[%s] %s > ", state.Mode, util.TruncateWidth(util.SingleLine(conv.Title), 24))
	}
	return fmt.Sprintf("[%s] > ", state.Mode)
}

func (r *chatREPL) printWelcome() {
	fmt.Fprintln(r.out, TitleStyle.Render("Legal AI"))
	fmt.Fprintln(r.out, DimStyle.Render("Ask a legal question, or type /help for commands. Ctrl+D exits."))
	fmt.Fprintln(r.out)
}

func (r *chatREPL) printNotification(n notify.Notification) {
	fmt.Fprintln(r.app.errOut, RenderNotification(n))
}

func (r *chatREPL) navigate(path string) {
	r.app.logger.Debug().Str("path", path).Msg("navigate")
}

// interruptible runs fn with a context that Ctrl+C cancels.
func (r *chatREPL) interruptible(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	return fn(ctx)
}

// send posts content and waits for the reply to finish playing.
func (r *chatREPL) send(content string, file *api.Attachment) {
	hadActive := r.ctrl.State().ActiveID != ""
	err := r.interruptible(func(ctx context.Context) error {
		if err := r.ctrl.Send(ctx, content, file); err != nil {
			return err
		}
		if !r.printer.wait(ctx) {
			r.ctrl.StopStreaming()
			r.printer.complete()
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(r.app.errOut, DimStyle.Render("Interrupted."))
	default:
		r.app.logger.Debug().Err(err).Msg("send failed")
		if hadActive {
			if conv, ok := r.ctrl.State().Active(); ok {
				if last, ok := conv.LastAssistant(); ok && last.Content == model.FallbackText {
					fmt.Fprintln(r.out, WarningStyle.Render(last.Content))
				}
			}
		}
	}
	fmt.Fprintln(r.out)
}

// =============================================================================
// COMMANDS
// =============================================================================

// replCommand handles one slash command; it returns true to exit.
type replCommand func(r *chatREPL, args []string) bool

var replCommands = map[string]replCommand{
	"help":   (*chatREPL).cmdHelp,
	"h":      (*chatREPL).cmdHelp,
	"?":      (*chatREPL).cmdHelp,
	"quit":   (*chatREPL).cmdQuit,
	"q":      (*chatREPL).cmdQuit,
	"exit":   (*chatREPL).cmdQuit,
	"new":    (*chatREPL).cmdNew,
	"n":      (*chatREPL).cmdNew,
	"list":   (*chatREPL).cmdList,
	"ls":     (*chatREPL).cmdList,
	"open":   (*chatREPL).cmdOpen,
	"o":      (*chatREPL).cmdOpen,
	"show":   (*chatREPL).cmdShow,
	"mode":   (*chatREPL).cmdMode,
	"m":      (*chatREPL).cmdMode,
	"attach": (*chatREPL).cmdAttach,
	"a":      (*chatREPL).cmdAttach,
	"retry":  (*chatREPL).cmdRetry,
	"r":      (*chatREPL).cmdRetry,
	"share":  (*chatREPL).cmdShare,
	"delete": (*chatREPL).cmdDelete,
	"del":    (*chatREPL).cmdDelete,
}

var replHelp = [][2]string{
	{"/new", "start a new conversation"},
	{"/list", "list conversations"},
	{"/open N|ID", "open a conversation by number or id"},
	{"/show", "print the current conversation"},
	{"/mode [normal|agentic]", "set or toggle the chat mode"},
	{"/attach PATH [message]", "send a document"},
	{"/retry", "re-send the last question"},
	{"/share", "create a share link"},
	{"/delete", "delete this conversation"},
	{"/quit", "exit"},
}

// handleLine runs one line of input and reports whether to exit.
func (r *chatREPL) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		r.send(line, nil)
		return false
	}

	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false
	}
	cmd, ok := replCommands[strings.ToLower(fields[0])]
	if !ok {
		r.printNotification(notify.New(notify.KindWarning, "Unknown command",
			fmt.Sprintf("/%s is not a command. Type /help for the list.", fields[0])))
		return false
	}
	return cmd(r, fields[1:])
}

func (r *chatREPL) cmdHelp(_ []string) bool {
	for _, h := range replHelp {
		fmt.Fprintln(r.out, RenderField(util.PadRight(h[0], 24), h[1]))
	}
	return false
}

func (r *chatREPL) cmdQuit(_ []string) bool {
	return true
}

func (r *chatREPL) cmdNew(_ []string) bool {
	r.ctrl.NewConversation()
	fmt.Fprintln(r.out, DimStyle.Render("New conversation. Your next message starts it."))
	return false
}

func (r *chatREPL) cmdList(_ []string) bool {
	state := r.ctrl.State()
	if len(state.Conversations) == 0 {
		fmt.Fprintln(r.out, DimStyle.Render("No conversations yet."))
		return false
	}
	rows := make([][]string, 0, len(state.Conversations))
	for i, c := range state.Conversations {
		marker := ""
		if c.ID == state.ActiveID {
			marker = "*"
		}
		rows = append(rows, []string{marker + strconv.Itoa(i+1), c.Title, string(c.Mode), c.LastMessagePreview})
	}
	RenderTable(r.out, []Column{
		{Header: "#"}, {Header: "TITLE", Max: 36}, {Header: "MODE"}, {Header: "LAST MESSAGE", Max: 48},
	}, rows)
	return false
}

func (r *chatREPL) cmdOpen(args []string) bool {
	if len(args) != 1 {
		r.printNotification(notify.New(notify.KindWarning, "Usage", "/open N|ID"))
		return false
	}
	id := args[0]
	state := r.ctrl.State()
	if n, err := strconv.Atoi(id); err == nil {
		if n < 1 || n > len(state.Conversations) {
			r.printNotification(notify.New(notify.KindWarning, "No such conversation",
				fmt.Sprintf("Pick a number from 1 to %d.", len(state.Conversations))))
			return false
		}
		id = state.Conversations[n-1].ID
	}

	err := r.interruptible(func(ctx context.Context) error {
		return r.ctrl.Select(ctx, id)
	})
	if err != nil {
		return false
	}
	return r.cmdShow(nil)
}

func (r *chatREPL) cmdShow(_ []string) bool {
	conv, ok := r.ctrl.State().Active()
	if !ok {
		fmt.Fprintln(r.out, DimStyle.Render("No conversation is open."))
		return false
	}
	printConversation(r.out, r.printer.markdown(), conv)
	fmt.Fprintln(r.out)
	return false
}

func (r *chatREPL) cmdMode(args []string) bool {
	mode := model.ModeAgentic
	if r.ctrl.State().Mode == model.ModeAgentic {
		mode = model.ModeNormal
	}
	if len(args) > 0 {
		m, err := model.ParseChatMode(args[0])
		if err != nil {
			r.printNotification(notify.New(notify.KindWarning, "Unknown mode", err.Error()))
			return false
		}
		mode = m
	}
	r.ctrl.SetMode(mode)
	fmt.Fprintln(r.out, DimStyle.Render("Mode: "+string(mode)))
	return false
}

func (r *chatREPL) cmdAttach(args []string) bool {
	if len(args) == 0 {
		r.printNotification(notify.New(notify.KindWarning, "Usage", "/attach PATH [message]"))
		return false
	}
	file, err := api.AttachmentFromFile(args[0])
	if err != nil {
		r.printNotification(notify.FromError("Failed to attach file", err))
		return false
	}
	r.send(strings.Join(args[1:], " "), file)
	return false
}

func (r *chatREPL) cmdRetry(_ []string) bool {
	conv, ok := r.ctrl.State().Active()
	if !ok {
		r.printNotification(notify.New(notify.KindWarning, "Nothing to retry", "Open a conversation first."))
		return false
	}
	last, ok := conv.LastUser()
	if !ok {
		r.printNotification(notify.New(notify.KindWarning, "Nothing to retry", "This conversation has no question yet."))
		return false
	}
	r.send(last.Content, nil)
	return false
}

func (r *chatREPL) cmdShare(_ []string) bool {
	var res *api.ShareResult
	err := r.interruptible(func(ctx context.Context) error {
		var err error
		res, err = r.ctrl.ShareActive(ctx)
		return err
	})
	switch {
	case err != nil:
	case res == nil:
		r.printNotification(notify.New(notify.KindWarning, "Nothing to share", "Open a conversation first."))
	case res.Link != "":
		fmt.Fprintln(r.out, RenderLinkLine(res.Link))
	}
	return false
}

func (r *chatREPL) cmdDelete(_ []string) bool {
	deleted, err := r.ctrl.DeleteActive(r.ctx)
	if err == nil && !deleted && r.ctrl.State().ActiveID == "" {
		r.printNotification(notify.New(notify.KindWarning, "Nothing to delete", "Open a conversation first."))
	}
	return false
}

// RenderLinkLine renders a share link on its own line.
func RenderLinkLine(link string) string {
	return DimStyle.Render("Link: ") + link
}

// =============================================================================
// LIVE API
// =============================================================================

// liveAPI forwards to the current client, which a config reload replaces.
type liveAPI struct {
	cur atomic.Pointer[api.Client]
}

var _ session.API = (*liveAPI)(nil)

func newLiveAPI(c *api.Client) *liveAPI {
	l := &liveAPI{}
	l.cur.Store(c)
	return l
}

// Swap replaces the client used by later calls.
func (l *liveAPI) Swap(c *api.Client) { l.cur.Store(c) }

func (l *liveAPI) GetConversations(ctx context.Context) ([]api.Conversation, error) {
	return l.cur.Load().GetConversations(ctx)
}

func (l *liveAPI) GetConversation(ctx context.Context, id string) (*api.Conversation, error) {
	return l.cur.Load().GetConversation(ctx, id)
}

func (l *liveAPI) CreateConversation(ctx context.Context, req api.CreateConversationRequest) (*api.Conversation, error) {
	return l.cur.Load().CreateConversation(ctx, req)
}

func (l *liveAPI) SendMessage(ctx context.Context, id, content string, mode api.Mode, file *api.Attachment) (*api.SendMessageResult, error) {
	return l.cur.Load().SendMessage(ctx, id, content, mode, file)
}

func (l *liveAPI) DeleteConversation(ctx context.Context, id string) error {
	return l.cur.Load().DeleteConversation(ctx, id)
}

func (l *liveAPI) DeleteAllConversations(ctx context.Context) (*api.DeleteAllResult, error) {
	return l.cur.Load().DeleteAllConversations(ctx)
}

func (l *liveAPI) ShareConversation(ctx context.Context, id string, share bool) (*api.ShareResult, error) {
	return l.cur.Load().ShareConversation(ctx, id, share)
}
