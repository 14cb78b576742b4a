// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/session"
	"github.com/AnuGuin/legalai/internal/ui/styles"
)

// Controller is the session API the interface drives. *session.Controller
// satisfies it.
type Controller interface {
	State() session.State
	Subscribe(fn func(session.State)) func()
	Load(ctx context.Context, initialID string) error
	Send(ctx context.Context, content string, file *api.Attachment) error
	Select(ctx context.Context, id string) error
	NewConversation()
	DeleteActive(ctx context.Context) (bool, error)
	ShareActive(ctx context.Context) (*api.ShareResult, error)
	SetMode(mode model.ChatMode)
	Retry(ctx context.Context) error
	StopStreaming()
}

// =============================================================================
// CHAT MODEL
// =============================================================================

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// Options configure the interface.
type Options struct {
	// Theme is "auto", "dark" or "light".
	Theme string
	// Markdown renders assistant replies with glamour.
	Markdown bool
	// InitialID is opened after the list loads.
	InitialID string
	Logger    zerolog.Logger
}

// Model is the Bubble Tea model of the chat interface.
type Model struct {
	ctx    context.Context
	ctrl   Controller
	bridge *Bridge
	logger zerolog.Logger

	// Styling
	theme     *styles.Theme
	keys      KeyMap
	markdown  bool
	renderer  *glamour.TermRenderer
	wrapWidth int
	rendered  map[string]renderedBody

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Session
	state     session.State
	path      string
	initialID string

	focus    focusArea
	cursor   int
	confirm  *ConfirmRequestMsg
	showHelp bool
}

// New creates the interface model.
func New(ctx context.Context, ctrl Controller, bridge *Bridge, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Ask a legal question, or /help"
	in.Prompt = ""
	in.CharLimit = 8000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = styles.ThinkingSpinner

	theme := styles.NewTheme(opts.Theme)
	sp.Style = theme.Spinner

	return Model{
		ctx:       ctx,
		ctrl:      ctrl,
		bridge:    bridge,
		logger:    opts.Logger.With().Str("component", "tui").Logger(),
		theme:     theme,
		keys:      DefaultKeyMap(),
		markdown:  opts.Markdown,
		rendered:  make(map[string]renderedBody),
		viewport:  viewport.New(0, 0),
		input:     in,
		spinner:   sp,
		state:     ctrl.State(),
		initialID: opts.InitialID,
		path:      session.ConversationPath(opts.InitialID),
	}
}

// Init starts the cursor blink, the spinner, toast expiry and the initial
// load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		toastTick(),
		m.loadCmd(m.initialID),
	)
}

// Run runs the interface until the user quits or ctx ends. The bridge must
// be the one given to the controller as its ports.
func Run(ctx context.Context, ctrl Controller, bridge *Bridge, opts Options) error {
	m := New(ctx, ctrl, bridge, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	bridge.Attach(p)
	defer bridge.Detach()
	stop := bridge.Watch(ctrl)
	defer stop()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// =============================================================================
// CONTROLLER COMMANDS
// =============================================================================

// Every controller call runs inside a tea.Cmd: the controller publishes
// snapshots synchronously, and the bridge blocks until Update receives them.

func (m Model) loadCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "load", Err: ctrl.Load(ctx, id)}
	}
}

func (m Model) sendCmd(content string, file *api.Attachment) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "send", Err: ctrl.Send(ctx, content, file)}
	}
}

func (m Model) selectCmd(id string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "select", Err: ctrl.Select(ctx, id)}
	}
}

func (m Model) newConversationCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.NewConversation()
		return OpDoneMsg{Op: "new"}
	}
}

func (m Model) setModeCmd(mode model.ChatMode) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.SetMode(mode)
		return OpDoneMsg{Op: "mode"}
	}
}

func (m Model) deleteCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.DeleteActive(ctx)
		return OpDoneMsg{Op: "delete", Err: err}
	}
}

func (m Model) shareCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.ShareActive(ctx)
		return OpDoneMsg{Op: "share", Err: err}
	}
}

func (m Model) retryCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return OpDoneMsg{Op: "retry", Err: ctrl.Retry(ctx)}
	}
}

func (m Model) stopStreamingCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.StopStreaming()
		return OpDoneMsg{Op: "stop"}
	}
}
