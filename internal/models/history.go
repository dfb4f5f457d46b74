package models

import (
	"errors"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// HistoryEntry is one committed utterance of a conversation.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

var (
	ErrUnknownRole  = errors.New("unknown history role")
	ErrEmptyContent = errors.New("empty history content")
)

func NewHistoryEntry(role, content string) (HistoryEntry, error) {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return HistoryEntry{}, ErrUnknownRole
	}
	if strings.TrimSpace(content) == "" {
		return HistoryEntry{}, ErrEmptyContent
	}
	return HistoryEntry{Role: r, Content: content}, nil
}

// HistoryFromRaw ingests history as sent by chat widgets, where each entry is
// an object with "role" and "content" plus arbitrary extra keys (metadata,
// options, ids). Entries that cannot be turned into a HistoryEntry are
// dropped; the rest keep their order.
func HistoryFromRaw(raw []map[string]any) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(raw))
	for _, m := range raw {
		role, ok := m["role"].(string)
		if !ok {
			continue
		}
		content, ok := m["content"].(string)
		if !ok {
			continue
		}
		e, err := NewHistoryEntry(role, content)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// CloneHistory returns a copy that callers may append to freely.
func CloneHistory(h []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(h), len(h)+2)
	copy(out, h)
	return out
}
