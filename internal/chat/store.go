package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hazemkhaled/raggate/internal/db"
)

// Store persists conversation turns in the shared database. Turns are
// append-only: nothing here mutates or deletes them.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// SaveTurn appends a turn to its conversation. If t.ID is empty a UUID is
// generated. The created_at timestamp comes from the database.
func (s *Store) SaveTurn(ctx context.Context, t Turn) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	var rolesJSON, sourcesJSON sql.NullString
	if len(t.Roles) > 0 {
		data, err := json.Marshal(t.Roles)
		if err != nil {
			return fmt.Errorf("marshalling roles: %w", err)
		}
		rolesJSON = sql.NullString{String: string(data), Valid: true}
	}
	if len(t.Sources) > 0 {
		data, err := json.Marshal(t.Sources)
		if err != nil {
			return fmt.Errorf("marshalling sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}

	var userID sql.NullString
	if t.UserID != "" {
		userID = sql.NullString{String: t.UserID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, chat_id, role, content, user_id, roles, sources)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ChatID, string(t.Role), t.Content, userID, rolesJSON, sourcesJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting chat turn: %w", err)
	}
	return nil
}

// ListTurns returns all turns of a conversation in insertion order.
func (s *Store) ListTurns(ctx context.Context, chatID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, user_id, roles, sources, created_at
		FROM chat_turns WHERE chat_id = ? ORDER BY created_at, rowid`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying chat turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t                           Turn
			role, ts                    string
			userID, rolesJSON, srcsJSON sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.ChatID, &role, &t.Content, &userID, &rolesJSON, &srcsJSON, &ts); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}

		t.Role = Role(role)
		if userID.Valid {
			t.UserID = userID.String
		}
		if rolesJSON.Valid {
			if err := json.Unmarshal([]byte(rolesJSON.String), &t.Roles); err != nil {
				t.Roles = nil
			}
		}
		if srcsJSON.Valid {
			if err := json.Unmarshal([]byte(srcsJSON.String), &t.Sources); err != nil {
				t.Sources = nil
			}
		}
		if parsed, err := time.Parse(time.DateTime, ts); err == nil {
			t.CreatedAt = parsed
		}

		turns = append(turns, t)
	}
	return turns, rows.Err()
}
