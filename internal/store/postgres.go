package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

const conversationSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	user_id         TEXT NOT NULL,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_conversation_created_idx
	ON messages (conversation_id, created_at);
`

// PostgresConversationStore keeps chat conversations in Postgres.
type PostgresConversationStore struct {
	pool *pgxpool.Pool
}

// NewPostgresConversationStore connects to databaseURL and ensures the
// conversation tables exist.
func NewPostgresConversationStore(ctx context.Context, databaseURL string) (*PostgresConversationStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, conversationSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create conversation schema: %w", err)
	}
	return &PostgresConversationStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresConversationStore) Close() {
	s.pool.Close()
}

func (s *PostgresConversationStore) GetOrCreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	now := time.Now().UTC()
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO conversations (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at;
	`
	var conv model.Conversation
	err := s.pool.QueryRow(ctx, query, uuid.New().String(), userID, now).
		Scan(&conv.ID, &conv.UserID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresConversationStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("conversation ID is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ConversationID, msg.UserID, string(msg.Role), msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, msg.ConversationID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s: %w", msg.ConversationID, ErrNotFound)
	}
	return tx.Commit(ctx)
}

// ListMessages returns the last limit messages, oldest first.
func (s *PostgresConversationStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, user_id, role, content, created_at FROM (
			SELECT * FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC;
	`
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx, query, conversationID, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*model.Message
	for rows.Next() {
		var m model.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = model.MessageRole(role)
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return msgs, nil
}

var _ ConversationStore = (*PostgresConversationStore)(nil)
