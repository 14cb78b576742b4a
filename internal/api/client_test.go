// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuGuin/legalai/internal/storage"
)

// newTestClient starts server with handler and returns a client pointed at it.
// The base URL carries a trailing /api to exercise normalization.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, storage.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := storage.NewMemoryStore()
	client := New(Config{BaseURL: server.URL + "/api/"}, store, zerolog.Nop())
	return client, store
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://host", "http://host"},
		{"http://host/", "http://host"},
		{"http://host/api", "http://host"},
		{"http://host/api/", "http://host"},
		{"  http://host:10000/api  ", "http://host:10000"},
		{"http://host/apis", "http://host/apis"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBaseURL(tt.in), tt.in)
	}
}

func TestAuthHeader(t *testing.T) {
	var gotAuth atomic.Value
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		writeJSON(w, 200, `{"success":true,"data":[]}`)
	})
	ctx := context.Background()

	_, err := client.GetConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotAuth.Load(), "no token means no header")

	require.NoError(t, storage.SetAuthToken(store, "secret"))
	_, err = client.GetConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth.Load())
}

func TestGetConversations(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/chat/conversations", r.URL.Path)
		writeJSON(w, 200, `{"success":true,"data":[
			{"id":"c2","title":"Lease","mode":"AGENTIC","createdAt":"2025-01-02T10:00:00.000Z","updatedAt":""},
			{"id":"c1","title":"NDA","mode":"NORMAL","createdAt":"2025-01-01T10:00:00Z"}
		]}`)
	})

	convs, err := client.GetConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "c2", convs[0].ID)
	assert.Equal(t, ModeAgentic, convs[0].Mode)
	assert.Equal(t, 2025, convs[0].CreatedAt.Year())
	assert.True(t, convs[0].UpdatedAt.IsZero())
}

func TestEnvelopeFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"success false", `{"success":false,"message":"nope"}`},
		{"missing data", `{"success":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, 200, tt.body)
			})

			_, err := client.GetConversations(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsuccessful))
			assert.Equal(t, "Failed to fetch conversations", err.Error())
			assert.Zero(t, StatusCode(err))
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantMessage string
	}{
		{"message field", "application/json", `{"message":"Conversation not found"}`, "Conversation not found"},
		{"error field", "application/json", `{"error":"Unauthorized"}`, "Unauthorized"},
		{"message preferred", "application/json", `{"message":"m","error":"e"}`, "m"},
		{"raw text", "text/plain", "bad gateway", "bad gateway"},
		{"empty body", "text/plain", "", "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(500)
				io.WriteString(w, tt.body)
			})

			_, err := client.GetConversation(context.Background(), "c1")
			require.Error(t, err)

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, 500, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, "HTTP 500: "+tt.wantMessage, err.Error())
			assert.Equal(t, 500, StatusCode(err))
		})
	}
}

func TestHTTPErrorKeepsDecodedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"message":"missing","code":"E404"}`)
	})

	_, err := client.GetConversation(context.Background(), "nope")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	body, ok := apiErr.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "E404", body["code"])
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := New(Config{BaseURL: url}, nil, zerolog.Nop())
	_, err := client.GetConversations(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
	assert.False(t, errors.Is(err, ErrUnsuccessful))
}

func TestCreateConversation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/conversations", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AGENTIC", body["mode"])
		assert.Equal(t, "Hello", body["title"])
		_, hasDoc := body["documentId"]
		assert.False(t, hasDoc, "empty optional fields are omitted")

		writeJSON(w, 201, `{"success":true,"data":{"id":"c9","title":"Hello","mode":"AGENTIC"}}`)
	})

	conv, err := client.CreateConversation(context.Background(), CreateConversationRequest{Mode: ModeAgentic, Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "c9", conv.ID)
}

func TestSendMessage_JSON(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations/c1/messages", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"message": "Is this clause valid?", "mode": "NORMAL"}, body)

		writeJSON(w, 200, `{"success":true,"data":{
			"message":{"id":"m2","content":"Yes.","role":"ASSISTANT","createdAt":"2025-01-01T00:00:01Z","metadata":{"cached":true}},
			"conversation":{"id":"c1","sessionId":"s1"}
		}}`)
	})

	res, err := client.SendMessage(context.Background(), "c1", "Is this clause valid?", ModeNormal, nil)
	require.NoError(t, err)
	assert.Equal(t, "m2", res.Message.ID)
	assert.Equal(t, RoleAssistant, res.Message.Role)
	require.NotNil(t, res.Message.Metadata)
	assert.True(t, res.Message.Metadata.Cached)
	assert.Equal(t, "s1", res.Conversation.SessionID)

	usage := storage.NewUsageTracker(store).Load()
	assert.Zero(t, usage.DocumentAnalysisCount, "normal text sends are not counted")
}

func TestSendMessage_Multipart(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Summarize", r.FormValue("message"))
		assert.Equal(t, "NORMAL", r.FormValue("mode"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "lease.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4", string(data))

		writeJSON(w, 200, `{"success":true,"data":{"message":{"id":"m1","content":"Summarize","role":"USER"},"conversation":{"id":"c1","documentId":"d1"}}}`)
	})

	res, err := client.SendMessage(context.Background(), "c1", "Summarize", ModeNormal, &Attachment{Name: "lease.pdf", Data: []byte("%PDF-1.4")})
	require.NoError(t, err)
	assert.Equal(t, "d1", res.Conversation.DocumentID)
	assert.Equal(t, 1, storage.NewUsageTracker(store).Load().DocumentAnalysisCount)
}

func TestSendMessage_AgenticCountsUsage(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"data":{"message":{"id":"m1","content":"x","role":"USER"},"conversation":{"id":"c1"}}}`)
	})

	_, err := client.SendMessage(context.Background(), "c1", "x", ModeAgentic, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, storage.NewUsageTracker(store).Load().DocumentAnalysisCount)
}

func TestSendMessage_SharedTrackerAcrossClients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"data":{"message":{"id":"m1","content":"x","role":"ASSISTANT"},"conversation":{"id":"c1"}}}`)
	}))
	t.Cleanup(server.Close)

	store := storage.NewMemoryStore()
	usage := storage.NewUsageTracker(store)
	old := New(Config{BaseURL: server.URL, Usage: usage}, store, zerolog.Nop())
	reloaded := New(Config{BaseURL: server.URL, Usage: usage}, store, zerolog.Nop())
	require.Same(t, old.Usage(), reloaded.Usage())

	const perClient = 20
	var wg sync.WaitGroup
	for _, c := range []*Client{old, reloaded} {
		for i := 0; i < perClient; i++ {
			wg.Add(1)
			go func(c *Client) {
				defer wg.Done()
				_, err := c.SendMessage(context.Background(), "c1", "x", ModeAgentic, nil)
				assert.NoError(t, err)
			}(c)
		}
	}
	wg.Wait()

	assert.Equal(t, 2*perClient, usage.Load().DocumentAnalysisCount)
}

func TestSendMessage_FailureDoesNotCount(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, `{"message":"model offline"}`)
	})

	_, err := client.SendMessage(context.Background(), "c1", "x", ModeAgentic, nil)
	require.Error(t, err)
	assert.Zero(t, storage.NewUsageTracker(store).Load().DocumentAnalysisCount)
}

func TestDeleteConversation(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/chat/conversations/c1", r.URL.Path)
		writeJSON(w, 200, `{"success":true,"message":"deleted"}`)
	})

	require.NoError(t, client.DeleteConversation(context.Background(), "c1"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDeleteAllConversations(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/chat/conversations", r.URL.Path)
		writeJSON(w, 200, `{"success":true,"data":{"deletedCount":4}}`)
	})

	res, err := client.DeleteAllConversations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.DeletedCount)
}

func TestShareConversation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/conversations/c1/share", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["share"])
		writeJSON(w, 200, `{"success":true,"data":{"link":"https://legal.example/s/abc"}}`)
	})

	res, err := client.ShareConversation(context.Background(), "c1", true)
	require.NoError(t, err)
	assert.Equal(t, "https://legal.example/s/abc", res.Link)
}

func TestGetSharedConversation_EscapesLink(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/shared/a%2Fb", r.URL.EscapedPath())
		writeJSON(w, 200, `{"success":true,"data":{"userName":"Ada","conversation":{"id":"c1","title":"T","messages":[{"id":"m1","content":"hi","role":"USER"}]}}}`)
	})

	res, err := client.GetSharedConversation(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.UserName)
	assert.Len(t, res.Conversation.Messages, 1)
}

func TestProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/profile", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, 200, `{"success":true,"data":{"id":"u1","email":"a@b.c","name":"Ada","provider":"google"}}`)
		case http.MethodPut:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"name": "Grace"}, body)
			writeJSON(w, 200, `{"success":true,"data":{"id":"u1","email":"a@b.c","name":"Grace","provider":"google"}}`)
		case http.MethodDelete:
			writeJSON(w, 200, `{"success":false}`)
		}
	})
	ctx := context.Background()

	p, err := client.GetUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)

	name := "Grace"
	p, err = client.UpdateUserProfile(ctx, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.Name)

	err = client.DeleteAccount(ctx)
	assert.ErrorIs(t, err, ErrUnsuccessful)
	assert.Equal(t, "Failed to delete account", err.Error())
}

func TestGetUserStats_MergesLocal(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":true,"data":{"documentAnalysisCount":3,"translationCount":1}}`)
	})
	tracker := storage.NewUsageTracker(store)
	_, _ = tracker.Increment(storage.UsageDocument)
	_, _ = tracker.Increment(storage.UsageTranslation)

	stats, err := client.GetUserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &UserStats{DocumentAnalysisCount: 4, TranslationCount: 2}, stats)
}

func TestGetUserStats_FallsBackToLocal(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, `{"error":"down"}`)
	})
	_, _ = storage.NewUsageTracker(store).Increment(storage.UsageTranslation)

	stats, err := client.GetUserStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &UserStats{TranslationCount: 1}, stats)
}

func TestTranslateText(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/translation/translate", r.URL.Path)
		var body TranslateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "auto", body.SourceLang)
		assert.Equal(t, "pt-BR", body.TargetLang)
		writeJSON(w, 200, `{"success":true,"data":{"id":"t1","sourceText":"contract","translatedText":"contrato","sourceLang":"en","targetLang":"pt-BR"}}`)
	})

	tr, err := client.TranslateText(context.Background(), TranslateRequest{Text: "contract", SourceLang: "AUTO", TargetLang: "pt-br"})
	require.NoError(t, err)
	assert.Equal(t, "contrato", tr.TranslatedText)
	assert.Equal(t, 1, storage.NewUsageTracker(store).Load().TranslationCount)
}

func TestTranslateText_InvalidLanguage(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.TranslateText(context.Background(), TranslateRequest{Text: "x", SourceLang: "en", TargetLang: "not a language"})
	assert.ErrorIs(t, err, ErrInvalidLanguage)
	assert.Zero(t, calls.Load(), "invalid codes never reach the server")
}

func TestTranslateText_UnsuccessfulDoesNotCount(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"success":false,"message":"quota"}`)
	})

	_, err := client.TranslateText(context.Background(), TranslateRequest{Text: "x", SourceLang: "en", TargetLang: "fr"})
	var envErr *EnvelopeError
	require.True(t, errors.As(err, &envErr))
	assert.Equal(t, "quota", envErr.ServerMessage)
	assert.Zero(t, storage.NewUsageTracker(store).Load().TranslationCount)
}

func TestDetectLanguageAndHistory(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/translation/detect-language":
			writeJSON(w, 200, `{"success":true,"data":{"language":"fr","display_name":"French"}}`)
		case "/api/translation/history":
			writeJSON(w, 200, `{"success":true,"data":[{"id":"t1","sourceText":"a","translatedText":"b"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	det, err := client.DetectLanguage(ctx, "bonjour")
	require.NoError(t, err)
	assert.Equal(t, "French", det.DisplayName)

	hist, err := client.GetTranslationHistory(ctx)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "b", hist[0].TranslatedText)
}

func TestCanonicalLanguage(t *testing.T) {
	got, err := CanonicalLanguage("EN-us", false)
	require.NoError(t, err)
	assert.Equal(t, "en-US", got)

	got, err = CanonicalLanguage("Auto", true)
	require.NoError(t, err)
	assert.Equal(t, "auto", got)
}
