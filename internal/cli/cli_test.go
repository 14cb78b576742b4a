// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuGuin/legalai/internal/api"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

// fakeBackend serves the chat, user and translation endpoints from memory
// using the {"success": true, "data": ...} envelope.
type fakeBackend struct {
	mu        sync.Mutex
	convs     map[string]*api.Conversation
	order     []string
	nextID    int
	reply     string
	auth      []string
	deletes   []string
	translate []api.TranslateRequest
	sent      []map[string]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		convs: make(map[string]*api.Conversation),
		reply: "A verbal lease can be binding for terms under three years.",
	}
}

func (b *fakeBackend) seed(id, title string, msgs ...api.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.convs[id] = &api.Conversation{ID: id, Title: title, Mode: api.ModeNormal, Messages: msgs}
	b.order = append([]string{id}, b.order...)
}

func (b *fakeBackend) authHeaders() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.auth...)
}

func (b *fakeBackend) deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletes...)
}

func writeData(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": message})
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := make([]api.Conversation, 0, len(b.order))
		for _, id := range b.order {
			c := *b.convs[id]
			c.Messages = nil
			list = append(list, c)
		}
		writeData(w, list)
	})

	mux.HandleFunc("POST /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.nextID++
		conv := &api.Conversation{
			ID:           fmt.Sprintf("conv-%d", b.nextID),
			Title:        req.Title,
			Mode:         req.Mode,
			DocumentName: req.DocumentName,
		}
		b.convs[conv.ID] = conv
		b.order = append([]string{conv.ID}, b.order...)
		writeData(w, conv)
	})

	mux.HandleFunc("DELETE /api/chat/conversations", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		n := len(b.order)
		b.deletes = append(b.deletes, b.order...)
		b.convs = make(map[string]*api.Conversation)
		b.order = nil
		writeData(w, api.DeleteAllResult{DeletedCount: n})
	})

	mux.HandleFunc("GET /api/chat/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		conv, ok := b.convs[r.PathValue("id")]
		if !ok {
			writeFailure(w, http.StatusNotFound, "Conversation not found")
			return
		}
		writeData(w, conv)
	})

	mux.HandleFunc("GET /api/chat/conversations/{id}/info", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		conv, ok := b.convs[r.PathValue("id")]
		if !ok {
			writeFailure(w, http.StatusNotFound, "Conversation not found")
			return
		}
		writeData(w, conv)
	})

	mux.HandleFunc("DELETE /api/chat/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.convs[id]; !ok {
			writeFailure(w, http.StatusNotFound, "Conversation not found")
			return
		}
		delete(b.convs, id)
		for i, o := range b.order {
			if o == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
		b.deletes = append(b.deletes, id)
		writeData(w, nil)
	})

	mux.HandleFunc("POST /api/chat/conversations/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		conv, ok := b.convs[r.PathValue("id")]
		if !ok {
			writeFailure(w, http.StatusNotFound, "Conversation not found")
			return
		}
		b.sent = append(b.sent, body)
		n := len(conv.Messages)
		user := api.Message{ID: fmt.Sprintf("%s-m%d", conv.ID, n+1), Role: api.RoleUser, Content: body["message"]}
		reply := api.Message{ID: fmt.Sprintf("%s-m%d", conv.ID, n+2), Role: api.RoleAssistant, Content: b.reply}
		conv.Messages = append(conv.Messages, user, reply)
		writeData(w, api.SendMessageResult{
			Message:      reply,
			Conversation: api.ConversationRef{ID: conv.ID, SessionID: "sess-1"},
		})
	})

	mux.HandleFunc("POST /api/chat/conversations/{id}/share", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, api.ShareResult{Link: "share-" + r.PathValue("id")})
	})

	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			writeFailure(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeData(w, api.UserProfile{ID: "u1", Name: "Ada Counsel", Email: "ada@example.com"})
	})

	mux.HandleFunc("POST /api/translation/translate", func(w http.ResponseWriter, r *http.Request) {
		var req api.TranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		b.mu.Lock()
		b.translate = append(b.translate, req)
		b.mu.Unlock()
		writeData(w, api.Translation{
			SourceText:     req.Text,
			TranslatedText: "Avis de résiliation",
			SourceLang:     "en",
			TargetLang:     req.TargetLang,
		})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	backend *fakeBackend
	server  *httptest.Server
	home    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := newFakeBackend()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("LEGALAI_HOME", home)
	t.Setenv("LEGALAI_API_URL", srv.URL)
	return &harness{backend: b, server: srv, home: home}
}

// run executes one command line and returns stdout and stderr.
func (h *harness) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(BuildInfo{Version: "test"}, strings.NewReader(stdin), &out, &errOut, false)
	defer app.Close()

	root := app.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodeJSON(t *testing.T, raw string, data interface{}) JSONResponse {
	t.Helper()
	resp := JSONResponse{Data: data}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	return resp
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestConversationsList(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit",
		api.Message{ID: "m1", Role: api.RoleUser, Content: "Can my landlord keep the deposit?"})
	h.backend.seed("c2", "Employment contract")

	out, _, err := h.run(t, "", "conversations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Tenancy deposit")
	assert.Contains(t, out, "Employment contract")
	assert.Less(t, strings.Index(out, "Employment contract"), strings.Index(out, "Tenancy deposit"))
}

func TestConversationsListEmpty(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "conv", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations yet")
}

func TestConversationsListJSON(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit")

	out, _, err := h.run(t, "", "--json", "conversations", "list")
	require.NoError(t, err)

	var rows []conversationSummary
	resp := decodeJSON(t, out, &rows)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "c1", rows[0].ID)
	assert.Equal(t, "Tenancy deposit", rows[0].Title)
	assert.EqualValues(t, "normal", rows[0].Mode)
}

func TestConversationsShow(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit",
		api.Message{ID: "m1", Role: api.RoleUser, Content: "Can my landlord keep the deposit?"},
		api.Message{ID: "m2", Role: api.RoleAssistant, Content: "Only for documented damage."})

	out, _, err := h.run(t, "", "conversations", "show", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Tenancy deposit")
	assert.Contains(t, out, "Can my landlord keep the deposit?")
	assert.Contains(t, out, "Only for documented damage.")
}

func TestConversationsShowNotFound(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "conversations", "show", "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))
	assert.Equal(t, ExitNotFoundError, ExitCode(err))
}

func TestConversationsDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit")

	_, _, err := h.run(t, "", "conversations", "delete", "c1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
	assert.Contains(t, err.Error(), "--yes")
	assert.Empty(t, h.backend.deleted())
}

func TestConversationsDelete(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit")

	out, _, err := h.run(t, "", "conversations", "delete", "--yes", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation c1 deleted")
	assert.Equal(t, []string{"c1"}, h.backend.deleted())
}

func TestConversationsDeleteAll(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "One")
	h.backend.seed("c2", "Two")

	out, _, err := h.run(t, "", "conversations", "delete-all", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "2 conversation(s) deleted")
	assert.ElementsMatch(t, []string{"c1", "c2"}, h.backend.deleted())
}

func TestConversationsShare(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Tenancy deposit")

	out, _, err := h.run(t, "", "conversations", "share", "c1")
	require.NoError(t, err)
	assert.Equal(t, "share-c1\n", out)
}

// =============================================================================
// ASK AND TRANSLATE
// =============================================================================

func TestAskCreatesConversation(t *testing.T) {
	h := newHarness(t)

	out, errOut, err := h.run(t, "", "ask", "Is a verbal tenancy agreement binding?")
	require.NoError(t, err)
	assert.Contains(t, out, h.backend.reply)
	assert.Contains(t, errOut, "Conversation: conv-1")

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.Contains(t, h.backend.convs, "conv-1")
	assert.Equal(t, "Is a verbal tenancy agreement binding?", h.backend.convs["conv-1"].Title)
	require.Len(t, h.backend.sent, 1)
	assert.Equal(t, "NORMAL", h.backend.sent[0]["mode"])
}

func TestAskReadsStdinAndMode(t *testing.T) {
	h := newHarness(t)
	h.backend.seed("c1", "Existing")

	out, _, err := h.run(t, "Define estoppel\n", "--json", "ask", "--conversation", "c1", "--mode", "agentic")
	require.NoError(t, err)

	var result askResult
	resp := decodeJSON(t, out, &result)
	assert.True(t, resp.Success)
	assert.Equal(t, "c1", result.ConversationID)
	assert.Equal(t, h.backend.reply, result.Message.Content)

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.Len(t, h.backend.sent, 1)
	assert.Equal(t, "Define estoppel", h.backend.sent[0]["message"])
	assert.Equal(t, "AGENTIC", h.backend.sent[0]["mode"])
	assert.Len(t, h.backend.convs, 1)
}

func TestAskRejectsUnknownMode(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "ask", "--mode", "turbo", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestTranslate(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "translate", "--to", "fr", "Notice", "of", "termination")
	require.NoError(t, err)
	assert.Equal(t, "Avis de résiliation\n", out)

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	require.Len(t, h.backend.translate, 1)
	assert.Equal(t, "Notice of termination", h.backend.translate[0].Text)
	assert.Equal(t, "auto", h.backend.translate[0].SourceLang)
	assert.Equal(t, "fr", h.backend.translate[0].TargetLang)
}

func TestTranslateRequiresTarget(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "translate", "hello")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

// =============================================================================
// AUTH
// =============================================================================

func TestLoginStoresToken(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "login", "--token", "good-token")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ada Counsel <ada@example.com>")

	_, _, err = h.run(t, "", "conversations", "list")
	require.NoError(t, err)
	auth := h.backend.authHeaders()
	assert.Equal(t, "Bearer good-token", auth[len(auth)-1])

	_, _, err = h.run(t, "", "logout")
	require.NoError(t, err)
	_, _, err = h.run(t, "", "conversations", "list")
	require.NoError(t, err)
	auth = h.backend.authHeaders()
	assert.Empty(t, auth[len(auth)-1])
}

func TestLoginReadsTokenFromStdin(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "good-token\n", "login")
	require.NoError(t, err)
	auth := h.backend.authHeaders()
	assert.Equal(t, "Bearer good-token", auth[len(auth)-1])
}

func TestLoginRejectedTokenIsCleared(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "login", "--token", "bad-token")
	require.Error(t, err)
	assert.Equal(t, ExitAuthError, ExitCode(err))

	_, _, err = h.run(t, "", "conversations", "list")
	require.NoError(t, err)
	auth := h.backend.authHeaders()
	assert.Empty(t, auth[len(auth)-1])
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigSetGetPath(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run(t, "", "config", "path")
	require.NoError(t, err)
	path := strings.TrimSpace(out)
	assert.Equal(t, filepath.Join(h.home, "config.toml"), path)

	_, _, err = h.run(t, "", "config", "set", "ui.mode", "agentic")
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, _, err = h.run(t, "", "config", "get", "ui.mode")
	require.NoError(t, err)
	assert.Equal(t, "agentic\n", out)

	// The environment override is not written to the file.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), h.server.URL)
}

func TestConfigSetUnknownKey(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "config", "set", "ui.nope", "1")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestConfigSetInvalidValue(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "config", "set", "ui.mode", "turbo")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run(t, "", "conversations", "list", "--bogus")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}
