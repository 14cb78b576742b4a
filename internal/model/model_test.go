// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuGuin/legalai/internal/api"
)

func msg(id string, role Role, content string) Message {
	return Message{ID: id, DisplayKey: id, Role: role, Content: content}
}

func ids(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func keys(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.DisplayKey
	}
	return out
}

// =============================================================================
// TRANSFORM TESTS
// =============================================================================

func TestTransform_Roles(t *testing.T) {
	tests := []struct {
		in   api.Role
		want Role
	}{
		{api.RoleUser, RoleUser},
		{api.RoleAssistant, RoleAssistant},
		{"SYSTEM", RoleSystem},
		{"", RoleSystem},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, Transform(api.Message{ID: "m", Role: tt.in}).Role)
		})
	}
}

func TestTransform_PassesThrough(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	meta := &api.MessageMetadata{Cached: true, TotalChunks: 4}
	in := api.Message{
		ID:          "m1",
		Content:     "The clause is void.",
		Role:        api.RoleAssistant,
		CreatedAt:   api.Timestamp{Time: created},
		Attachments: []string{"lease.pdf"},
		Metadata:    meta,
	}

	got := Transform(in)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "m1", got.DisplayKey)
	assert.Equal(t, in.Content, got.Content)
	assert.Equal(t, []string{"lease.pdf"}, got.Attachments)
	assert.Same(t, meta, got.Metadata)
	assert.Equal(t, created, got.CreatedAt)

	got.Attachments[0] = "changed"
	assert.Equal(t, "lease.pdf", in.Attachments[0], "attachments are copied")
}

func TestTransformAll_Nil(t *testing.T) {
	got := TransformAll(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

// =============================================================================
// MERGE TESTS
// =============================================================================

func TestMerge_IDMatchInheritsDisplayKey(t *testing.T) {
	current := []Message{{ID: "m1", DisplayKey: "k-original", Role: RoleAssistant, Content: "old"}}
	incoming := []Message{msg("m1", RoleAssistant, "new")}

	got := Merge(current, incoming)
	require.Len(t, got, 1)
	assert.Equal(t, "k-original", got[0].DisplayKey)
	assert.Equal(t, "new", got[0].Content, "incoming data wins")
}

func TestMerge_PendingUserMessageReconciled(t *testing.T) {
	pending := NewPendingMessage("Hello", nil, time.Now())
	current := []Message{msg("m0", RoleUser, "earlier"), pending}
	incoming := []Message{
		msg("m0", RoleUser, "earlier"),
		msg("m1", RoleUser, "Hello"),
		msg("m2", RoleAssistant, "Hi, how can I help?"),
	}

	got := Merge(current, incoming)
	assert.Equal(t, []string{"m0", "m1", "m2"}, ids(got))
	assert.Equal(t, []string{"m0", pending.DisplayKey, "m2"}, keys(got))
}

func TestMerge_DuplicatePendingConsumedInOrder(t *testing.T) {
	current := []Message{
		{ID: "temp-1", DisplayKey: "k1", Role: RoleUser, Content: "same"},
		{ID: "temp-2", DisplayKey: "k2", Role: RoleUser, Content: "same"},
	}
	incoming := []Message{
		msg("a", RoleUser, "same"),
		msg("b", RoleUser, "same"),
		msg("c", RoleUser, "same"),
	}

	got := Merge(current, incoming)
	assert.Equal(t, []string{"k1", "k2", "c"}, keys(got))
}

func TestMerge_OnlyPendingUserMessagesMatch(t *testing.T) {
	current := []Message{
		{ID: "confirmed", DisplayKey: "kc", Role: RoleUser, Content: "text"},
		{ID: "temp-1", DisplayKey: "ka", Role: RoleAssistant, Content: "text"},
	}
	incoming := []Message{msg("new", RoleUser, "text"), msg("new2", RoleAssistant, "text")}

	got := Merge(current, incoming)
	assert.Equal(t, []string{"new", "new2"}, keys(got))
}

func TestMerge_DropsLocalOnlyMessages(t *testing.T) {
	current := []Message{
		NewPendingMessage("failed send", nil, time.Now()),
		NewFallbackMessage(time.Now()),
	}
	incoming := []Message{msg("m1", RoleUser, "other")}

	got := Merge(current, incoming)
	assert.Equal(t, []string{"m1"}, ids(got))
}

func TestMerge_EmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Equal(t, []string{"x"}, keys(Merge(nil, []Message{msg("x", RoleUser, "")})))
	assert.Empty(t, Merge([]Message{msg("x", RoleUser, "")}, nil))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	current := []Message{{ID: "temp-1", DisplayKey: "k1", Role: RoleUser, Content: "q", Attachments: []string{"a.pdf"}}}
	incoming := []Message{{ID: "m1", DisplayKey: "m1", Role: RoleUser, Content: "q", Attachments: []string{"a.pdf"}}}

	got := Merge(current, incoming)
	got[0].Attachments[0] = "changed"
	got[0].Content = "changed"

	assert.Equal(t, "k1", current[0].DisplayKey)
	assert.Equal(t, "m1", incoming[0].DisplayKey)
	assert.Equal(t, "a.pdf", incoming[0].Attachments[0])
	assert.Equal(t, "q", incoming[0].Content)
}

// TestMerge_Properties checks the merge invariants over random lists.
func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	contents := []string{"a", "b", "c"}
	roles := []Role{RoleUser, RoleAssistant}

	for iter := 0; iter < 500; iter++ {
		var current, incoming []Message
		for i := 0; i < rng.Intn(8); i++ {
			id := fmt.Sprintf("m%d", rng.Intn(10))
			if rng.Intn(3) == 0 {
				id = fmt.Sprintf("temp-%d", i)
			}
			current = append(current, Message{
				ID: id, DisplayKey: "key-" + id + fmt.Sprint(i),
				Role: roles[rng.Intn(2)], Content: contents[rng.Intn(3)],
			})
		}
		for i := 0; i < rng.Intn(8); i++ {
			id := fmt.Sprintf("m%d", rng.Intn(10))
			incoming = append(incoming, msg(id, roles[rng.Intn(2)], contents[rng.Intn(3)]))
		}

		got := Merge(current, incoming)

		// Same length and id sequence as incoming.
		require.Equal(t, ids(incoming), ids(got))

		firstKey := map[string]string{}
		for _, m := range current {
			if _, ok := firstKey[m.ID]; !ok {
				firstKey[m.ID] = m.Key()
			}
		}
		usedPending := map[string]bool{}
		for i, m := range got {
			if key, ok := firstKey[m.ID]; ok {
				// Shared ids keep the current display key.
				require.Equal(t, key, m.DisplayKey)
				continue
			}
			if strings.HasPrefix(m.DisplayKey, "key-temp-") {
				// A pending key is handed out at most once, to equal content.
				require.False(t, usedPending[m.DisplayKey], "pending key reused")
				usedPending[m.DisplayKey] = true
				require.Equal(t, RoleUser, m.Role)
				continue
			}
			require.Equal(t, incoming[i].ID, m.DisplayKey)
		}
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewPendingMessage(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := NewPendingMessage("Hello", []string{"nda.pdf"}, now)
	b := NewPendingMessage("Hello", nil, now)

	assert.True(t, a.IsPending())
	assert.True(t, strings.HasPrefix(a.ID, "temp-1700000000123-"))
	assert.Equal(t, a.ID, a.DisplayKey)
	assert.Equal(t, RoleUser, a.Role)
	assert.Equal(t, []string{"nda.pdf"}, a.Attachments)
	assert.NotEqual(t, a.ID, b.ID, "same millisecond still yields distinct ids")
}

func TestNewFallbackMessage(t *testing.T) {
	m := NewFallbackMessage(time.Now())
	assert.False(t, m.IsPending())
	assert.Equal(t, RoleAssistant, m.Role)
	assert.Equal(t, FallbackText, m.Content)
}

func TestRole_DisplayName(t *testing.T) {
	assert.Equal(t, "You", RoleUser.DisplayName())
	assert.Equal(t, "Legal AI", RoleAssistant.DisplayName())
	assert.Equal(t, "System", RoleSystem.DisplayName())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestTitleFrom(t *testing.T) {
	assert.Equal(t, "Hello", TitleFrom("Hello"))

	exact := strings.Repeat("x", 50)
	assert.Equal(t, exact, TitleFrom(exact))

	long := strings.Repeat("y", 51)
	assert.Equal(t, strings.Repeat("y", 50)+"...", TitleFrom(long))

	accented := strings.Repeat("é", 60)
	assert.Equal(t, strings.Repeat("é", 50)+"...", TitleFrom(accented))
}

func TestChatMode(t *testing.T) {
	m, err := ParseChatMode("Agentic")
	require.NoError(t, err)
	assert.Equal(t, ModeAgentic, m)
	assert.Equal(t, api.ModeAgentic, m.Backend())

	m, err = ParseChatMode("chat")
	require.NoError(t, err)
	assert.Equal(t, ModeNormal, m)
	assert.Equal(t, api.ModeNormal, m.Backend())

	_, err = ParseChatMode("turbo")
	assert.Error(t, err)

	assert.Equal(t, ModeAgentic, ModeFromBackend(api.ModeAgentic))
	assert.Equal(t, ModeNormal, ModeFromBackend(api.ModeNormal))
	assert.Equal(t, ModeNormal, ModeFromBackend(""))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "", Preview(nil))
	assert.Equal(t, "q", Preview([]Message{msg("1", RoleUser, "q")}))
	assert.Equal(t, "answer", Preview([]Message{
		msg("1", RoleUser, "q"),
		msg("2", RoleAssistant, "answer"),
		msg("3", RoleUser, "follow-up"),
	}))
}

func TestConversationFromAPI(t *testing.T) {
	c := ConversationFromAPI(api.Conversation{
		ID:        "c1",
		Title:     "Lease review",
		Mode:      api.ModeAgentic,
		SessionID: "s1",
		Messages: []api.Message{
			{ID: "m1", Role: api.RoleUser, Content: "Review this"},
			{ID: "m2", Role: api.RoleAssistant, Content: "Done"},
		},
	})

	assert.Equal(t, ModeAgentic, c.Mode)
	assert.Equal(t, "s1", c.SessionID)
	assert.Len(t, c.Messages, 2)
	assert.Equal(t, "Done", c.LastMessagePreview)
}

func TestConversation_ValueSemantics(t *testing.T) {
	base := Conversation{ID: "c1"}.WithMessages([]Message{msg("m1", RoleUser, "q")})

	appended := base.AppendMessage(msg("m2", RoleAssistant, ""))
	assert.Len(t, base.Messages, 1, "original untouched")
	assert.Len(t, appended.Messages, 2)

	streamed := appended.ReplaceMessageContent("m2", "partial answer")
	got, ok := streamed.Message("m2")
	require.True(t, ok)
	assert.Equal(t, "partial answer", got.Content)
	assert.Equal(t, "partial answer", streamed.LastMessagePreview)

	orig, _ := appended.Message("m2")
	assert.Equal(t, "", orig.Content, "replace returns a copy")

	same := appended.ReplaceMessageContent("missing", "x")
	assert.Equal(t, appended, same)
}

func TestConversation_LastOfRole(t *testing.T) {
	c := Conversation{}.WithMessages([]Message{
		msg("1", RoleUser, "a"),
		msg("2", RoleAssistant, "b"),
		msg("3", RoleUser, "c"),
	})

	a, ok := c.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "2", a.ID)

	u, ok := c.LastUser()
	require.True(t, ok)
	assert.Equal(t, "3", u.ID)

	_, ok = Conversation{}.LastAssistant()
	assert.False(t, ok)
}

func TestConversation_Clone(t *testing.T) {
	c := Conversation{ID: "c1"}.WithMessages([]Message{{ID: "1", Attachments: []string{"a"}}})
	clone := c.Clone()
	clone.Messages[0].Attachments[0] = "b"
	clone.Messages[0].Content = "changed"
	assert.Equal(t, "a", c.Messages[0].Attachments[0])
	assert.Equal(t, "", c.Messages[0].Content)
}

func TestMessageDetails(t *testing.T) {
	assert.Empty(t, Message{}.Details())

	m := Message{Metadata: &api.MessageMetadata{
		Cached:         true,
		ToolsUsed:      []api.ToolUse{{Tool: "case_search"}, {Tool: "statute_lookup"}},
		TotalChunks:    4,
		TotalQueryTime: 1.26,
	}}
	assert.Equal(t, "cached | tools: case_search, statute_lookup | 4 sources | 1.3s", m.Details())
}
