// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// Mode is the backend's conversation mode.
type Mode string

const (
	ModeNormal  Mode = "NORMAL"
	ModeAgentic Mode = "AGENTIC"
)

// Role is the backend's message author.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// =============================================================================
// TIMESTAMP
// =============================================================================

// Timestamp decodes the server's ISO-8601 strings. Empty strings and null
// decode to the zero time rather than failing the whole response.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || string(data) == `""` {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ToolUse records one retrieval tool invocation behind an agentic reply.
type ToolUse struct {
	Tool        string  `json:"tool"`
	QueryTime   float64 `json:"query_time,omitempty"`
	ChunksUsed  int     `json:"chunks_used,omitempty"`
	TotalChunks int     `json:"total_chunks,omitempty"`
}

// MessageMetadata is attached to assistant replies.
type MessageMetadata struct {
	Cached         bool      `json:"cached,omitempty"`
	ToolsUsed      []ToolUse `json:"tools_used,omitempty"`
	DocumentID     string    `json:"document_id,omitempty"`
	TotalQueryTime float64   `json:"total_query_time,omitempty"`
	TotalChunks    int       `json:"total_chunks,omitempty"`
}

// Message is a message record as the backend returns it.
type Message struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	Role        Role             `json:"role"`
	CreatedAt   Timestamp        `json:"createdAt"`
	Attachments []string         `json:"attachments,omitempty"`
	Metadata    *MessageMetadata `json:"metadata,omitempty"`
}

// Conversation is a conversation record. Messages is only populated by the
// single-conversation endpoints.
type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId,omitempty"`
	Title        string    `json:"title"`
	Mode         Mode      `json:"mode"`
	DocumentID   string    `json:"documentId,omitempty"`
	DocumentName string    `json:"documentName,omitempty"`
	SessionID    string    `json:"sessionId,omitempty"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	Messages     []Message `json:"messages,omitempty"`
}

// CreateConversationRequest is the body of POST /api/chat/conversations.
type CreateConversationRequest struct {
	Mode         Mode   `json:"mode"`
	Title        string `json:"title,omitempty"`
	DocumentID   string `json:"documentId,omitempty"`
	DocumentName string `json:"documentName,omitempty"`
	SessionID    string `json:"sessionId,omitempty"`
}

// Attachment is a file uploaded with a message.
type Attachment struct {
	Name string
	Data []byte
}

// AttachmentFromFile reads path into an Attachment named after its base name.
func AttachmentFromFile(path string) (*Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return &Attachment{Name: filepath.Base(path), Data: data}, nil
}

// ConversationRef carries the ids the backend assigns or updates on send.
type ConversationRef struct {
	ID         string `json:"id"`
	SessionID  string `json:"sessionId,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

// SendMessageResult is the data of a successful message send.
type SendMessageResult struct {
	Message      Message         `json:"message"`
	Conversation ConversationRef `json:"conversation"`
}

// DeleteAllResult reports how many conversations were removed.
type DeleteAllResult struct {
	DeletedCount int `json:"deletedCount"`
}

// ShareResult is the outcome of a share toggle. Either field may be empty.
type ShareResult struct {
	Link    string `json:"link,omitempty"`
	Message string `json:"message,omitempty"`
}

// SharedConversation is a conversation opened through a share link.
type SharedConversation struct {
	UserName     string       `json:"userName"`
	Conversation Conversation `json:"conversation"`
}

// =============================================================================
// USER
// =============================================================================

// UserProfile is the signed-in user.
type UserProfile struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Avatar      string          `json:"avatar,omitempty"`
	Provider    string          `json:"provider"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
	LastLoginAt Timestamp       `json:"lastLoginAt"`
}

// ProfileUpdate is a partial profile; nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Avatar      *string         `json:"avatar,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

// UserStats is the usage summary shown in settings.
type UserStats struct {
	DocumentAnalysisCount int `json:"documentAnalysisCount"`
	TranslationCount      int `json:"translationCount"`
}

// =============================================================================
// TRANSLATION
// =============================================================================

// TranslateRequest is the body of POST /api/translation/translate.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// Translation is a stored translation.
type Translation struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId,omitempty"`
	SourceText     string    `json:"sourceText"`
	TranslatedText string    `json:"translatedText"`
	SourceLang     string    `json:"sourceLang"`
	TargetLang     string    `json:"targetLang"`
	CreatedAt      Timestamp `json:"createdAt"`
}

// DetectedLanguage is the result of language detection.
type DetectedLanguage struct {
	Language    string `json:"language"`
	DisplayName string `json:"display_name"`
}
