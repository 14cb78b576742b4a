// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/AnuGuin/legalai/internal/storage"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTimeout bounds a single request. Agentic replies can take a while.
	DefaultTimeout = 120 * time.Second

	// DefaultUserAgent identifies the client to the backend.
	DefaultUserAgent = "legalai-cli"
)

// Fixed operation texts reported when an envelope is unsuccessful.
const (
	OpFetchConversations    = "Failed to fetch conversations"
	OpCreateConversation    = "Failed to create conversation"
	OpFetchMessages         = "Failed to fetch conversation messages"
	OpFetchInfo             = "Failed to fetch conversation info"
	OpSendMessage           = "Failed to send message"
	OpDeleteConversation    = "Failed to delete conversation"
	OpDeleteConversations   = "Failed to delete conversations"
	OpShare                 = "Failed to update sharing status"
	OpFetchShared           = "Failed to fetch shared conversation"
	OpFetchProfile          = "Failed to fetch user profile"
	OpUpdateProfile         = "Failed to update profile"
	OpDeleteAccount         = "Failed to delete account"
	OpTranslate             = "Failed to translate text"
	OpDetectLanguage        = "Failed to detect language"
	OpFetchHistory          = "Failed to fetch translation history"
	OpFetchStats            = "Failed to fetch user stats"
)

// =============================================================================
// CLIENT
// =============================================================================

// Config configures a Client.
type Config struct {
	// BaseURL is the service root; a trailing "/api" is stripped.
	BaseURL string
	// Timeout bounds each request (0 = DefaultTimeout).
	Timeout time.Duration
	// RequestsPerSecond paces requests (<= 0 = unlimited).
	RequestsPerSecond float64
	// Burst is the limiter bucket size (minimum 1).
	Burst int
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// Usage is the local usage counter. Clients built over the same store
	// should share one tracker; nil creates a tracker over the store.
	Usage *storage.UsageTracker
}

// Client talks to the Legal AI backend. It is safe for concurrent use.
type Client struct {
	http    *resty.Client
	baseURL string
	store   storage.Store
	usage   *storage.UsageTracker
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Client. The bearer token and usage counter are read from
// store; a nil store means an in-memory one.
func New(cfg Config, store storage.Store, logger zerolog.Logger) *Client {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	usage := cfg.Usage
	if usage == nil {
		usage = storage.NewUsageTracker(store)
	}

	base := NormalizeBaseURL(cfg.BaseURL)
	return &Client{
		http: resty.New().
			SetBaseURL(base).
			SetHeader("Accept", "application/json").
			SetHeader("User-Agent", cfg.UserAgent).
			SetTimeout(cfg.Timeout).
			SetRetryCount(0).
			SetLogger(restyLogger{logger}),
		baseURL: base,
		store:   store,
		usage:   usage,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// restyLogger routes resty's own diagnostics through zerolog.
type restyLogger struct {
	zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.Error().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.Warn().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.Debug().Msgf(format, v...) }

// NormalizeBaseURL trims whitespace, trailing slashes and a trailing "/api".
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	base = strings.TrimSuffix(base, "/api")
	return strings.TrimRight(base, "/")
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Usage returns the local usage counter.
func (c *Client) Usage() *storage.UsageTracker {
	return c.usage
}

// =============================================================================
// TRANSPORT
// =============================================================================

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    *T     `json:"data"`
	Message string `json:"message"`
}

// call performs one request and decodes the envelope. When needData is true a
// missing data field is treated like success == false.
func call[T any](ctx context.Context, c *Client, op, method, path string, setup func(*resty.Request), needData bool) (*T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := c.http.R().SetContext(ctx)
	token, err := storage.AuthToken(c.store)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read auth token")
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	if setup != nil {
		setup(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Dur("duration", time.Since(start)).Err(err).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("api response")

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		apiErr := newError(resp.StatusCode(), resp.Body())
		c.logger.Warn().Str("path", path).Int("status", apiErr.Status).Msg("api error")
		return nil, apiErr
	}

	var env envelope[T]
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if !env.Success || (needData && env.Data == nil) {
		return nil, &EnvelopeError{Op: op, ServerMessage: env.Message}
	}
	if env.Data == nil {
		env.Data = new(T)
	}
	return env.Data, nil
}

func jsonBody(body any) func(*resty.Request) {
	return func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}
}

func conversationPath(id string, suffix ...string) string {
	p := "/api/chat/conversations/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// GetConversations lists the user's conversations. Message bodies may be
// absent.
func (c *Client) GetConversations(ctx context.Context) ([]Conversation, error) {
	data, err := call[[]Conversation](ctx, c, OpFetchConversations, http.MethodGet, "/api/chat/conversations", nil, true)
	if err != nil {
		return nil, err
	}
	return *data, nil
}

// GetConversation fetches a conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	return call[Conversation](ctx, c, OpFetchMessages, http.MethodGet, conversationPath(id), nil, true)
}

// GetConversationInfo fetches a conversation's metadata.
func (c *Client) GetConversationInfo(ctx context.Context, id string) (*Conversation, error) {
	return call[Conversation](ctx, c, OpFetchInfo, http.MethodGet, conversationPath(id, "info"), nil, true)
}

// CreateConversation creates a conversation; the server assigns the id.
func (c *Client) CreateConversation(ctx context.Context, req CreateConversationRequest) (*Conversation, error) {
	if req.Mode == "" {
		req.Mode = ModeNormal
	}
	return call[Conversation](ctx, c, OpCreateConversation, http.MethodPost, "/api/chat/conversations", jsonBody(req), true)
}

// SendMessage posts a message. With an attachment the request is multipart
// with fields message, mode and file; otherwise JSON. A successful send that
// carried a file or used agentic mode is added to the local usage counter.
func (c *Client) SendMessage(ctx context.Context, conversationID, content string, mode Mode, file *Attachment) (*SendMessageResult, error) {
	if mode == "" {
		mode = ModeNormal
	}

	var setup func(*resty.Request)
	if file != nil {
		setup = func(r *resty.Request) {
			r.SetMultipartFormData(map[string]string{
				"message": content,
				"mode":    string(mode),
			}).SetFileReader("file", file.Name, bytes.NewReader(file.Data))
		}
	} else {
		setup = jsonBody(map[string]string{"message": content, "mode": string(mode)})
	}

	result, err := call[SendMessageResult](ctx, c, OpSendMessage, http.MethodPost, conversationPath(conversationID, "messages"), setup, true)
	if err != nil {
		return nil, err
	}

	if file != nil || mode == ModeAgentic {
		if _, err := c.usage.Increment(storage.UsageDocument); err != nil {
			c.logger.Warn().Err(err).Msg("failed to record document usage")
		}
	}
	return result, nil
}

// DeleteConversation removes one conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, OpDeleteConversation, http.MethodDelete, conversationPath(id), nil, false)
	return err
}

// DeleteAllConversations removes every conversation of the user.
func (c *Client) DeleteAllConversations(ctx context.Context) (*DeleteAllResult, error) {
	return call[DeleteAllResult](ctx, c, OpDeleteConversations, http.MethodDelete, "/api/chat/conversations", nil, true)
}

// ShareConversation enables or disables the public link.
func (c *Client) ShareConversation(ctx context.Context, id string, share bool) (*ShareResult, error) {
	return call[ShareResult](ctx, c, OpShare, http.MethodPost, conversationPath(id, "share"), jsonBody(map[string]bool{"share": share}), true)
}

// GetSharedConversation opens a conversation by its share link.
func (c *Client) GetSharedConversation(ctx context.Context, link string) (*SharedConversation, error) {
	return call[SharedConversation](ctx, c, OpFetchShared, http.MethodGet, "/api/chat/shared/"+url.PathEscape(link), nil, true)
}

// =============================================================================
// USER
// =============================================================================

// GetUserProfile returns the signed-in user.
func (c *Client) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	return call[UserProfile](ctx, c, OpFetchProfile, http.MethodGet, "/api/user/profile", nil, true)
}

// UpdateUserProfile applies a partial update.
func (c *Client) UpdateUserProfile(ctx context.Context, update ProfileUpdate) (*UserProfile, error) {
	return call[UserProfile](ctx, c, OpUpdateProfile, http.MethodPut, "/api/user/profile", jsonBody(update), true)
}

// DeleteAccount deletes the user and their data.
func (c *Client) DeleteAccount(ctx context.Context) error {
	_, err := call[json.RawMessage](ctx, c, OpDeleteAccount, http.MethodDelete, "/api/user/profile", nil, false)
	return err
}

// GetUserStats adds the local usage counter to the server's numbers. If the
// server cannot be reached the local counter alone is returned.
func (c *Client) GetUserStats(ctx context.Context) (*UserStats, error) {
	local := c.usage.Load()

	server, err := call[UserStats](ctx, c, OpFetchStats, http.MethodGet, "/api/user/stats", nil, false)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to fetch server stats, using local stats")
		return &UserStats{
			DocumentAnalysisCount: local.DocumentAnalysisCount,
			TranslationCount:      local.TranslationCount,
		}, nil
	}

	return &UserStats{
		DocumentAnalysisCount: server.DocumentAnalysisCount + local.DocumentAnalysisCount,
		TranslationCount:      server.TranslationCount + local.TranslationCount,
	}, nil
}

// =============================================================================
// TRANSLATION
// =============================================================================

// CanonicalLanguage validates a BCP 47 code and returns its canonical form.
// "auto" is accepted when allowAuto is set.
func CanonicalLanguage(code string, allowAuto bool) (string, error) {
	code = strings.TrimSpace(code)
	if allowAuto && strings.EqualFold(code, "auto") {
		return "auto", nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidLanguage, code, err)
	}
	return tag.String(), nil
}

// TranslateText translates text and records the translation in the local
// usage counter.
func (c *Client) TranslateText(ctx context.Context, req TranslateRequest) (*Translation, error) {
	var err error
	if req.SourceLang, err = CanonicalLanguage(req.SourceLang, true); err != nil {
		return nil, err
	}
	if req.TargetLang, err = CanonicalLanguage(req.TargetLang, false); err != nil {
		return nil, err
	}

	result, err := call[Translation](ctx, c, OpTranslate, http.MethodPost, "/api/translation/translate", jsonBody(req), false)
	if err != nil {
		return nil, err
	}

	if _, err := c.usage.Increment(storage.UsageTranslation); err != nil {
		c.logger.Warn().Err(err).Msg("failed to record translation usage")
	}
	return result, nil
}

// DetectLanguage identifies the language of text.
func (c *Client) DetectLanguage(ctx context.Context, text string) (*DetectedLanguage, error) {
	return call[DetectedLanguage](ctx, c, OpDetectLanguage, http.MethodPost, "/api/translation/detect-language", jsonBody(map[string]string{"text": text}), true)
}

// GetTranslationHistory lists past translations, newest first.
func (c *Client) GetTranslationHistory(ctx context.Context) ([]Translation, error) {
	data, err := call[[]Translation](ctx, c, OpFetchHistory, http.MethodGet, "/api/translation/history", nil, false)
	if err != nil {
		return nil, err
	}
	return *data, nil
}
