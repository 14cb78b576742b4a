// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AnuGuin/legalai/internal/api"
	"github.com/AnuGuin/legalai/internal/model"
	"github.com/AnuGuin/legalai/internal/notify"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultFreshSelectDelay is how long FreshlySelected stays set.
const DefaultFreshSelectDelay = 100 * time.Millisecond

// Notification titles.
const (
	TitleLoadConversationsFailed = "Failed to load conversations"
	TitleLoadConversationFailed  = "Failed to load conversation"
	TitleSendFailed              = "Failed to send message"
	TitleDeleteFailed            = "Failed to delete"
	TitleShareFailed             = "Failed to share conversation"
)

// =============================================================================
// CONFIG
// =============================================================================

// Deps are the controller's collaborators. API and Streamer are required.
type Deps struct {
	API      API
	Streamer Streamer
	// Notifier receives toasts. Defaults to notify.Discard.
	Notifier notify.Notifier
	// Navigator is told about location changes. Optional.
	Navigator Navigator
	// Confirmer approves deletes. Defaults to AutoConfirm.
	Confirmer Confirmer
	// Clipboard receives share links. Optional.
	Clipboard Clipboard
	Logger    zerolog.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Options tune the controller.
type Options struct {
	// Mode is the initial chat mode.
	Mode model.ChatMode
	// FreshSelectDelay defaults to DefaultFreshSelectDelay.
	FreshSelectDelay time.Duration
}

// =============================================================================
// CONTROLLER
// =============================================================================

// streaming identifies the reply being played back.
type streaming struct {
	convID string
	msgID  string
	full   string
}

// Controller runs the chat session. It is safe for concurrent use.
type Controller struct {
	api        API
	player     Streamer
	notifier   notify.Notifier
	nav        Navigator
	confirm    Confirmer
	clipboard  Clipboard
	logger     zerolog.Logger
	now        func() time.Time
	freshDelay time.Duration

	mu       sync.Mutex
	state    State
	inflight int
	playing  *streaming
	freshSeq uint64
	timer    *time.Timer
	subs     map[int]func(State)
	nextSub  int
	closed   bool

	// playMu serializes stream handoffs between sends.
	playMu sync.Mutex
}

// New creates a controller with an empty conversation list.
func New(deps Deps, opts Options) *Controller {
	c := &Controller{
		api:        deps.API,
		player:     deps.Streamer,
		notifier:   deps.Notifier,
		nav:        deps.Navigator,
		confirm:    deps.Confirmer,
		clipboard:  deps.Clipboard,
		logger:     deps.Logger.With().Str("component", "session").Logger(),
		now:        deps.Clock,
		freshDelay: opts.FreshSelectDelay,
		subs:       make(map[int]func(State)),
	}
	if c.notifier == nil {
		c.notifier = notify.Discard
	}
	if c.nav == nil {
		c.nav = nopNavigator{}
	}
	if c.confirm == nil {
		c.confirm = AutoConfirm
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.freshDelay <= 0 {
		c.freshDelay = DefaultFreshSelectDelay
	}
	mode := opts.Mode
	if mode == "" {
		mode = model.ModeNormal
	}
	c.state = State{Mode: mode, Conversations: []model.Conversation{}}
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that made the change, outside the controller's lock. The
// returned function unregisters fn.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// update applies fn to the state under the lock and publishes the result.
func (c *Controller) update(fn func(State) State) State {
	c.mu.Lock()
	next := fn(c.state)
	next.Version = c.state.Version + 1
	c.state = next
	subs := make([]func(State), 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		s(next)
	}
	return next
}

// Close stops playback and pending timers and drops subscribers.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.subs = make(map[int]func(State))
	c.mu.Unlock()

	c.player.Stop()
}

// =============================================================================
// MODE AND NAVIGATION
// =============================================================================

// SetMode sets the mode used for new conversations and messages.
func (c *Controller) SetMode(mode model.ChatMode) {
	c.update(func(s State) State {
		s.Mode = mode
		return s
	})
}

// NewConversation clears the active conversation. The next Send creates one.
func (c *Controller) NewConversation() {
	c.update(func(s State) State {
		s.ActiveID = ""
		return s
	})
	c.nav.Navigate(ConversationPath(""))
}

// =============================================================================
// LOAD AND SELECT
// =============================================================================

// Load fetches the conversation list. When initialID names a listed
// conversation it becomes active and is fetched in full; otherwise the view
// falls back to a new chat.
func (c *Controller) Load(ctx context.Context, initialID string) error {
	c.update(func(s State) State {
		s.LoadingConversations = true
		return s
	})
	defer c.update(func(s State) State {
		s.LoadingConversations = false
		return s
	})

	raw, err := c.api.GetConversations(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("list conversations failed")
		c.notifier.Notify(notify.FromError(TitleLoadConversationsFailed, err))
		return err
	}

	list := make([]model.Conversation, 0, len(raw))
	found := false
	for _, r := range raw {
		list = append(list, model.ConversationFromAPI(r))
		if initialID != "" && r.ID == initialID {
			found = true
		}
	}

	c.update(func(s State) State {
		s = s.withConversations(list)
		if found {
			s.ActiveID = initialID
			s.LoadingActive = true
		} else if s.indexOf(s.ActiveID) < 0 {
			s.ActiveID = ""
		}
		return s
	})

	if initialID == "" {
		return nil
	}
	if !found {
		c.logger.Debug().Str("conversation", initialID).Msg("deep link not in list")
		c.clearActive(initialID)
		return nil
	}

	full, err := c.api.GetConversation(ctx, initialID)
	if err != nil {
		c.notifier.Notify(notify.FromError(TitleLoadConversationFailed, err))
		c.update(func(s State) State {
			s.LoadingActive = false
			return s
		})
		c.clearActive(initialID)
		return err
	}

	conv := model.ConversationFromAPI(*full)
	c.update(func(s State) State {
		s = s.upsertFront(conv)
		s.LoadingActive = false
		return s
	})
	return nil
}

// Select makes id the active conversation and replaces its messages with the
// server's copy.
func (c *Controller) Select(ctx context.Context, id string) error {
	c.update(func(s State) State {
		s.ActiveID = id
		s.LoadingActive = true
		s.FreshlySelected = false
		return s
	})
	c.nav.Navigate(ConversationPath(id))

	full, err := c.api.GetConversation(ctx, id)
	if err != nil {
		c.logger.Warn().Err(err).Str("conversation", id).Msg("load conversation failed")
		c.notifier.Notify(notify.FromError(TitleLoadConversationFailed, err))
		c.update(func(s State) State {
			s.LoadingActive = false
			return s
		})
		c.clearActive(id)
		return err
	}

	conv := model.ConversationFromAPI(*full)
	var seq uint64
	c.update(func(s State) State {
		s = s.upsertFront(conv)
		s.LoadingActive = false
		if s.ActiveID == id {
			s.FreshlySelected = true
			c.freshSeq++
			seq = c.freshSeq
		}
		return s
	})
	if seq != 0 {
		c.scheduleFreshClear(seq)
	}
	return nil
}

// scheduleFreshClear lowers FreshlySelected after the delay unless a later
// selection raised it again.
func (c *Controller) scheduleFreshClear(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.freshDelay, func() {
		c.update(func(s State) State {
			if c.freshSeq == seq {
				s.FreshlySelected = false
			}
			return s
		})
	})
}

// clearActive drops the active reference if it still names id.
func (c *Controller) clearActive(id string) {
	cleared := false
	c.update(func(s State) State {
		if s.ActiveID == id {
			s.ActiveID = ""
			cleared = true
		}
		return s
	})
	if cleared {
		c.nav.Navigate(ConversationPath(""))
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send posts a message to the active conversation, creating one first when
// none is active. Blank content without a file is ignored. Failures are
// reported through the notifier and returned.
func (c *Controller) Send(ctx context.Context, content string, file *api.Attachment) error {
	if strings.TrimSpace(content) == "" && file == nil {
		return nil
	}

	c.update(func(s State) State {
		c.inflight++
		s.Loading = true
		return s
	})
	defer c.update(func(s State) State {
		c.inflight--
		s.Loading = c.inflight > 0
		return s
	})

	snap := c.State()
	prior := snap.ActiveID
	mode := snap.Mode

	convID, err := c.ensureConversation(ctx, prior, content, file, mode)
	if err != nil {
		return c.sendFailed(prior, err)
	}

	var attachments []string
	if file != nil {
		attachments = []string{file.Name}
	}
	pending := model.NewPendingMessage(content, attachments, c.now())
	c.update(func(s State) State {
		return s.mapConversation(convID, func(conv model.Conversation) model.Conversation {
			return conv.AppendMessage(pending)
		})
	})

	log := c.logger.With().Str("conversation", convID).Logger()
	log.Debug().Str("pending", pending.ID).Str("mode", string(mode)).Msg("sending message")

	result, err := c.api.SendMessage(ctx, convID, content, mode.Backend(), file)
	if err != nil {
		log.Warn().Err(err).Msg("send failed")
		return c.sendFailed(prior, err)
	}

	full, err := c.api.GetConversation(ctx, convID)
	if err != nil {
		log.Warn().Err(err).Msg("refetch after send failed")
		return c.sendFailed(prior, err)
	}

	incoming := model.TransformAll(full.Messages)
	reply, hasReply := model.LastOfRole(incoming, model.RoleAssistant)

	c.update(func(s State) State {
		return s.mapConversation(convID, func(conv model.Conversation) model.Conversation {
			next := conv.WithMessages(model.Merge(conv.Messages, incoming))
			if full.Title != "" {
				next.Title = full.Title
			}
			next.UpdatedAt = full.UpdatedAt.Time
			next.SessionID = firstNonEmpty(result.Conversation.SessionID, full.SessionID, conv.SessionID)
			next.DocumentID = firstNonEmpty(result.Conversation.DocumentID, full.DocumentID, conv.DocumentID)
			if full.DocumentName != "" {
				next.DocumentName = full.DocumentName
			}
			return next
		})
	})

	if hasReply {
		c.playReply(convID, reply)
	}
	return nil
}

// ensureConversation returns the active conversation's id, creating and
// activating a new conversation when there is none.
func (c *Controller) ensureConversation(ctx context.Context, active, content string, file *api.Attachment, mode model.ChatMode) (string, error) {
	if active != "" {
		return active, nil
	}

	title := model.TitleFrom(strings.TrimSpace(content))
	if title == "" && file != nil {
		title = model.TitleFrom(file.Name)
	}
	created, err := c.api.CreateConversation(ctx, api.CreateConversationRequest{
		Mode:  mode.Backend(),
		Title: title,
	})
	if err != nil {
		return "", err
	}

	conv := model.ConversationFromAPI(*created)
	if conv.Title == "" {
		conv.Title = title
	}
	conv.LastMessagePreview = content
	c.update(func(s State) State {
		s = s.without(conv.ID).upsertFront(conv)
		s.ActiveID = conv.ID
		return s
	})
	c.nav.Navigate(ConversationPath(conv.ID))
	c.logger.Info().Str("conversation", conv.ID).Msg("conversation created")
	return conv.ID, nil
}

// sendFailed reports err and, when a conversation was active before the
// attempt, appends the apology message to it.
func (c *Controller) sendFailed(prior string, err error) error {
	c.notifier.Notify(notify.FromError(TitleSendFailed, err))
	if prior != "" {
		fallback := model.NewFallbackMessage(c.now())
		c.update(func(s State) State {
			return s.mapConversation(prior, func(conv model.Conversation) model.Conversation {
				return conv.AppendMessage(fallback)
			})
		})
	}
	return err
}

// Retry re-sends the last user message of the active conversation.
func (c *Controller) Retry(ctx context.Context) error {
	conv, ok := c.State().Active()
	if !ok {
		return nil
	}
	last, ok := conv.LastUser()
	if !ok {
		return nil
	}
	return c.Send(ctx, last.Content, nil)
}

// =============================================================================
// PLAYBACK
// =============================================================================

// playReply plays reply back in place. A reply still playing from an earlier
// send is cut short and restored to its full text.
func (c *Controller) playReply(convID string, reply model.Message) {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.player.Stop()
	c.restorePlaying()

	cur := &streaming{convID: convID, msgID: reply.ID, full: reply.Content}
	c.update(func(s State) State {
		c.playing = cur
		s.StreamingMessageID = reply.ID
		return s
	})

	c.player.Start(reply.Content,
		func(chunk string) {
			c.update(func(s State) State {
				return s.mapConversation(convID, func(conv model.Conversation) model.Conversation {
					return conv.ReplaceMessageContent(reply.ID, chunk)
				})
			})
		},
		func() {
			c.update(func(s State) State {
				if c.playing != cur {
					return s
				}
				c.playing = nil
				if s.StreamingMessageID == reply.ID {
					s.StreamingMessageID = ""
				}
				return s.mapConversation(convID, func(conv model.Conversation) model.Conversation {
					return conv.ReplaceMessageContent(reply.ID, cur.full)
				})
			})
		},
	)
}

// restorePlaying puts back the full text of an interrupted reply.
func (c *Controller) restorePlaying() {
	c.update(func(s State) State {
		p := c.playing
		if p == nil {
			return s
		}
		c.playing = nil
		if s.StreamingMessageID == p.msgID {
			s.StreamingMessageID = ""
		}
		return s.mapConversation(p.convID, func(conv model.Conversation) model.Conversation {
			return conv.ReplaceMessageContent(p.msgID, p.full)
		})
	})
}

// StopStreaming ends playback and shows the full reply.
func (c *Controller) StopStreaming() {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.player.Stop()
	c.restorePlaying()
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteActive deletes the active conversation after confirmation. It
// returns false when nothing was deleted.
func (c *Controller) DeleteActive(ctx context.Context) (bool, error) {
	conv, ok := c.State().Active()
	if !ok {
		return false, nil
	}
	return c.Delete(ctx, conv.ID)
}

// Delete deletes the conversation with id after confirmation.
func (c *Controller) Delete(ctx context.Context, id string) (bool, error) {
	title := id
	if conv, ok := c.State().Conversation(id); ok && conv.Title != "" {
		title = conv.Title
	}

	ok, err := c.confirm.Confirm(ctx, fmt.Sprintf("Delete %q? This cannot be undone.", title))
	if err != nil || !ok {
		return false, err
	}

	if err := c.api.DeleteConversation(ctx, id); err != nil {
		c.logger.Warn().Err(err).Str("conversation", id).Msg("delete failed")
		c.notifier.Notify(notify.FromError(TitleDeleteFailed, err))
		return false, err
	}

	c.stopPlayingIn(id)
	wasActive := false
	c.update(func(s State) State {
		s = s.without(id)
		if s.ActiveID == id {
			s.ActiveID = ""
			wasActive = true
		}
		return s
	})
	if wasActive {
		c.nav.Navigate(ConversationPath(""))
	}
	c.notifier.Notify(notify.Success("Conversation deleted", "The conversation has been deleted successfully."))
	return true, nil
}

// DeleteAll deletes every conversation after confirmation and returns the
// number the server removed.
func (c *Controller) DeleteAll(ctx context.Context) (int, error) {
	ok, err := c.confirm.Confirm(ctx, "Delete all conversations? This cannot be undone.")
	if err != nil || !ok {
		return 0, err
	}

	res, err := c.api.DeleteAllConversations(ctx)
	if err != nil {
		c.notifier.Notify(notify.FromError(TitleDeleteFailed, err))
		return 0, err
	}

	c.playMu.Lock()
	c.player.Stop()
	c.restorePlaying()
	c.playMu.Unlock()

	c.update(func(s State) State {
		s = s.withConversations([]model.Conversation{})
		s.ActiveID = ""
		return s
	})
	c.nav.Navigate(ConversationPath(""))
	c.notifier.Notify(notify.Success("Conversations deleted",
		fmt.Sprintf("%d conversation(s) deleted.", res.DeletedCount)))
	return res.DeletedCount, nil
}

// stopPlayingIn stops playback when it belongs to conversation id.
func (c *Controller) stopPlayingIn(id string) {
	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.mu.Lock()
	p := c.playing
	c.mu.Unlock()
	if p == nil || p.convID != id {
		return
	}
	c.player.Stop()
	c.restorePlaying()
}

// =============================================================================
// SHARE
// =============================================================================

// ShareActive enables sharing for the active conversation. It returns nil
// when no conversation is active.
func (c *Controller) ShareActive(ctx context.Context) (*api.ShareResult, error) {
	conv, ok := c.State().Active()
	if !ok {
		return nil, nil
	}

	res, err := c.api.ShareConversation(ctx, conv.ID, true)
	if err != nil {
		c.logger.Warn().Err(err).Str("conversation", conv.ID).Msg("share failed")
		c.notifier.Notify(notify.FromError(TitleShareFailed, err))
		return nil, err
	}

	switch {
	case res.Link != "":
		if c.clipboard != nil && c.clipboard.WriteText(res.Link) == nil {
			c.notifier.Notify(notify.Success("Share link copied",
				"A shareable link has been created and copied to your clipboard."))
		} else {
			c.notifier.Notify(notify.Status("Share link created", res.Link))
		}
	case res.Message != "":
		c.notifier.Notify(notify.Status("Share status", res.Message))
	default:
		c.notifier.Notify(notify.Success("Sharing updated", "Sharing status updated successfully."))
	}
	return res, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
