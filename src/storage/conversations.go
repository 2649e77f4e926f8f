package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const conversationColumns = `id, title, title_source, used_for_prompt_suggestions, created_at, last_message_at`

// GetConversationByID retrieves a conversation by its ID
func GetConversationByID(ctx context.Context, db sqlscan.Querier, conversationID string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = ?`
	var conv Conversation
	err := sqlscan.Get(ctx, db, &conv, query, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns conversations with the most recent activity first
func ListConversations(ctx context.Context, db sqlscan.Querier, limit int) ([]Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations ORDER BY last_message_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	var convs []Conversation
	if err := sqlscan.Select(ctx, db, &convs, query, args...); err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateConversation creates a new conversation in the database
func CreateConversation(ctx context.Context, db Execer, conversation *Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.TitleSource == "" {
		conversation.TitleSource = TitleSourceDefault
	}
	if conversation.CreatedAt.IsZero() {
		conversation.CreatedAt = time.Now()
	}
	if conversation.LastMessageAt.IsZero() {
		conversation.LastMessageAt = conversation.CreatedAt
	}

	query := `INSERT INTO conversations (id, title, title_source, used_for_prompt_suggestions, created_at, last_message_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		conversation.ID,
		conversation.Title,
		conversation.TitleSource,
		conversation.UsedForPromptSuggestions,
		conversation.CreatedAt,
		conversation.LastMessageAt,
	)
	return err
}

// UpdateConversationTitle sets a user-chosen title
func UpdateConversationTitle(ctx context.Context, db Execer, conversationID, title string) error {
	query := `UPDATE conversations SET title = ?, title_source = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, title, TitleSourceUser, conversationID)
	return err
}

// SetAutoTitle stores a generated title while the conversation still has its
// default one. It reports whether the row changed.
func SetAutoTitle(ctx context.Context, db Execer, conversationID, title string) (bool, error) {
	query := `UPDATE conversations SET title = ?, title_source = ? WHERE id = ? AND title_source = ?`
	res, err := db.ExecContext(ctx, query, title, TitleSourceAuto, conversationID, TitleSourceDefault)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TouchConversation bumps last_message_at
func TouchConversation(ctx context.Context, db Execer, conversationID string, at time.Time) error {
	query := `UPDATE conversations SET last_message_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, at, conversationID)
	return err
}

// ListConversationIDsForPromptSuggestions returns conversations whose
// history has not yet fed a prompt suggestion pass
func ListConversationIDsForPromptSuggestions(ctx context.Context, db sqlscan.Querier) ([]string, error) {
	query := `SELECT id FROM conversations WHERE used_for_prompt_suggestions = 0 ORDER BY last_message_at DESC`
	var ids []string
	if err := sqlscan.Select(ctx, db, &ids, query); err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkUsedForPromptSuggestions flags the given conversations as consumed and
// returns how many were not consumed before.
func MarkUsedForPromptSuggestions(ctx context.Context, db Execer, conversationIDs []string) (int64, error) {
	if len(conversationIDs) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(conversationIDs)), ",")
	args := make([]any, 0, len(conversationIDs))
	for _, id := range conversationIDs {
		args = append(args, id)
	}
	query := `UPDATE conversations SET used_for_prompt_suggestions = 1 WHERE used_for_prompt_suggestions = 0 AND id IN (` + placeholders + `)`
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteConversation removes a conversation and, through the foreign key, its messages
func DeleteConversation(ctx context.Context, db Execer, conversationID string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, conversationID)
	return err
}
