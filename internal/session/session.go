// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session keeps per-conversation history in a bounded LRU cache.
// Eviction is silent: a conversation that falls out of the cache simply
// starts over, which is acceptable because history only shapes the
// synthesis prompt and is never the source of record.
package session

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Cache stores conversation turns keyed by session ID. Safe for
// concurrent use.
type Cache struct {
	entries  *lru.Cache[string, []types.Message]
	maxTurns int
}

// NewCache returns a Cache per cfg. Zero or negative settings fall back
// to the defaults (capacity 100, 20 turns).
func NewCache(cfg types.SessionConfig) (*Cache, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 100
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 20
	}
	entries, err := lru.New[string, []types.Message](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, maxTurns: maxTurns}, nil
}

// History returns the stored turns for the session, oldest first. An
// unknown or evicted session returns nil.
func (c *Cache) History(sessionID string) []types.Message {
	history, _ := c.entries.Get(sessionID)
	return history
}

// Append records one exchange. When the history exceeds the turn bound
// the oldest turns are dropped so the synthesis prompt stays bounded.
func (c *Cache) Append(sessionID, query, answer string) {
	history, _ := c.entries.Get(sessionID)
	history = append(history,
		types.Message{Role: types.RoleUser, Content: query},
		types.Message{Role: types.RoleAssistant, Content: answer},
	)
	if len(history) > c.maxTurns {
		history = history[len(history)-c.maxTurns:]
	}
	c.entries.Add(sessionID, history)
}

// Clear forgets one session.
func (c *Cache) Clear(sessionID string) {
	c.entries.Remove(sessionID)
}

// Len reports the number of live sessions.
func (c *Cache) Len() int {
	return c.entries.Len()
}
