// Package history keeps per-conversation message history in SQLite so the
// model can be given recent context on every request.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/muratoffalex/telechat/internal/ai"
	"github.com/muratoffalex/telechat/internal/database"
	"github.com/muratoffalex/telechat/internal/logger"
)

const lockStripes = 64

// Stats summarizes the stored history for one conversation context.
type Stats struct {
	Messages   int
	UserTurns  int
	Characters int
}

// Store persists conversation turns keyed by context ID. A context is the
// user ID in private chats and the chat ID in groups. Writes to the same
// context are serialized so a trim never races with an append.
type Store struct {
	db      database.Database
	maxSize int
	logger  logger.Logger
	locks   [lockStripes]sync.Mutex
}

func NewStore(db database.Database, maxSize int, log logger.Logger) *Store {
	if maxSize <= 0 {
		maxSize = 10
	}
	return &Store{db: db, maxSize: maxSize, logger: log}
}

func (s *Store) lock(contextID int64) *sync.Mutex {
	idx := uint64(contextID) % lockStripes
	return &s.locks[idx]
}

// Append stores one message and trims the context to the retention window
// of maxSize exchanges (two messages per exchange).
func (s *Store) Append(ctx context.Context, contextID int64, role ai.Role, content string) error {
	mu := s.lock(contextID)
	mu.Lock()
	defer mu.Unlock()

	_, err := s.db.ExecWithRetry(ctx,
		"INSERT INTO conversation_messages (context_id, role, content) VALUES (?, ?, ?)",
		contextID, string(role), content,
	)
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	_, err = s.db.ExecWithRetry(ctx,
		`DELETE FROM conversation_messages
		 WHERE context_id = ?
		 AND id NOT IN (
		     SELECT id FROM conversation_messages
		     WHERE context_id = ?
		     ORDER BY id DESC
		     LIMIT ?
		 )`,
		contextID, contextID, s.maxSize*2,
	)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// History returns the retained messages for a context in chronological order.
func (s *Store) History(ctx context.Context, contextID int64) ([]ai.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM conversation_messages
		 WHERE context_id = ?
		 ORDER BY id ASC`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	var messages []ai.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}
		messages = append(messages, ai.Message{Role: ai.Role(role), Content: content})
	}
	return messages, rows.Err()
}

// Clear removes all stored messages for a context.
func (s *Store) Clear(ctx context.Context, contextID int64) error {
	mu := s.lock(contextID)
	mu.Lock()
	defer mu.Unlock()

	_, err := s.db.ExecWithRetry(ctx,
		"DELETE FROM conversation_messages WHERE context_id = ?",
		contextID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ContextStats reports how much history a context currently holds.
func (s *Store) ContextStats(ctx context.Context, contextID int64) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(LENGTH(content)), 0)
		 FROM conversation_messages
		 WHERE context_id = ?`,
		contextID,
	)
	if err := row.Scan(&st.Messages, &st.UserTurns, &st.Characters); err != nil {
		return Stats{}, fmt.Errorf("failed to read history stats: %w", err)
	}
	return st, nil
}
