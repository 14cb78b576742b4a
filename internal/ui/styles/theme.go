// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/AnuGuin/legalai/internal/notify"
)

// ThinkingSpinner is the ASCII spinner shown while a reply is pending.
var ThinkingSpinner = spinner.Spinner{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    time.Second / 10,
}

// Theme holds the styled components of the terminal front-ends.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserBubble     lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantBody  lipgloss.Style
	PendingBody    lipgloss.Style
	FallbackBody   lipgloss.Style
	Timestamp      lipgloss.Style
	Attachment     lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarItemActive   lipgloss.Style
	SidebarPreview      lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	StatusBar      lipgloss.Style
	ModeNormal     lipgloss.Style
	ModeAgentic    lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style
	ThinkingText   lipgloss.Style

	// ==========================================================================
	// NOTIFICATIONS AND DIALOGS
	// ==========================================================================

	Toast        lipgloss.Style
	ToastTitle   lipgloss.Style
	ToastBody    lipgloss.Style
	ConfirmBox   lipgloss.Style
	ConfirmTitle lipgloss.Style

	// ==========================================================================
	// PLAIN OUTPUT
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	LinkStyle    lipgloss.Style
	Muted        lipgloss.Style
	Bold         lipgloss.Style
}

// NewTheme creates a theme for the current terminal. name is "auto", "dark"
// or "light"; "auto" asks the terminal.
func NewTheme(name string) *Theme {
	t := &Theme{ColorProfile: termenv.ColorProfile()}
	switch name {
	case "dark":
		t.IsDark = true
	case "light":
		t.IsDark = false
	default:
		t.IsDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(t.IsDark)

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBorder).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.AssistantBody = lipgloss.NewStyle().
		Foreground(AssistantFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBorder).
		PaddingLeft(1)

	t.PendingBody = t.UserBubble.
		Foreground(PendingFg).
		Italic(true)

	t.FallbackBody = lipgloss.NewStyle().
		Foreground(FallbackFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(FallbackBorder).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Attachment = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarItemSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true)

	t.SidebarItemActive = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.SidebarPreview = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModeNormal = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.ModeAgentic = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Notifications and dialogs
	t.Toast = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)

	t.ToastTitle = lipgloss.NewStyle().
		Bold(true)

	t.ToastBody = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ConfirmBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.ConfirmTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	// Plain output
	t.SuccessStyle = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(Sky).Bold(true)
	t.LinkStyle = lipgloss.NewStyle().Foreground(Sky).Underline(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
	t.Bold = lipgloss.NewStyle().Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// ShowSidebar reports whether the layout is wide enough for the
// conversation list.
func (t *Theme) ShowSidebar() bool {
	return t.Width >= SidebarMinWidth
}

// SidebarMinWidth is the terminal width below which the sidebar is hidden.
const SidebarMinWidth = 90

// SidebarWidth is the sidebar's outer width.
const SidebarWidth = 32

// KindColor returns the accent color for a notification kind.
func KindColor(k notify.Kind) lipgloss.AdaptiveColor {
	switch k {
	case notify.KindError:
		return Rose
	case notify.KindWarning:
		return Amber
	case notify.KindSuccess:
		return Emerald
	default:
		return Sky
	}
}

// KindIndicator returns the ASCII marker for a notification kind.
func KindIndicator(k notify.Kind) string {
	switch k {
	case notify.KindError:
		return StatusIndicators.Error
	case notify.KindWarning:
		return StatusIndicators.Warning
	case notify.KindSuccess:
		return StatusIndicators.Success
	default:
		return StatusIndicators.Info
	}
}

// RenderNotification renders n as a bordered toast of the given width.
func (t *Theme) RenderNotification(n notify.Notification, width int) string {
	color := KindColor(n.Kind)
	title := t.ToastTitle.Foreground(color).Render(KindIndicator(n.Kind) + " " + n.Title)
	body := title
	if n.Description != "" {
		body += "\n" + t.ToastBody.Render(n.Description)
	}
	style := t.Toast.BorderForeground(color)
	if width > 0 {
		style = style.Width(width - style.GetHorizontalBorderSize())
	}
	return style.Render(body)
}

// RenderMode renders a chat mode badge.
func (t *Theme) RenderMode(mode string) string {
	if mode == "agentic" {
		return t.ModeAgentic.Render("AGENTIC")
	}
	return t.ModeNormal.Render("NORMAL")
}
