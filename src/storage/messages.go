package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

const messageColumns = `id, conversation_id, participant, status, content, created_at`

// GetMessageByID retrieves a message by its ID
func GetMessageByID(ctx context.Context, db sqlscan.Querier, messageID string) (*Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	var m Message
	err := sqlscan.Get(ctx, db, &m, query, messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// GetMessagesByConversationID retrieves all messages for a conversation ordered by creation time
func GetMessagesByConversationID(ctx context.Context, db sqlscan.Querier, conversationID string) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? ORDER BY created_at, rowid`
	var messages []Message
	err := sqlscan.Select(ctx, db, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetParticipantMessages retrieves one participant's messages for a conversation
func GetParticipantMessages(ctx context.Context, db sqlscan.Querier, conversationID string, participant Participant) ([]Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = ? AND participant = ? ORDER BY created_at, rowid`
	var messages []Message
	err := sqlscan.Select(ctx, db, &messages, query, conversationID, participant)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CountMessages returns the number of messages stored for a conversation
func CountMessages(ctx context.Context, db sqlscan.Querier, conversationID string) (int, error) {
	var n int
	err := sqlscan.Get(ctx, db, &n, `SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountParticipantMessages returns the number of messages one participant stored in a conversation
func CountParticipantMessages(ctx context.Context, db sqlscan.Querier, conversationID string, participant Participant) (int, error) {
	var n int
	err := sqlscan.Get(ctx, db, &n, `SELECT COUNT(*) FROM messages WHERE conversation_id = ? AND participant = ?`, conversationID, participant)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CreateMessage creates a new message in the database
func CreateMessage(ctx context.Context, db Execer, message *Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (id, conversation_id, participant, status, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.Participant,
		message.Status,
		message.Content,
		message.CreatedAt,
	)
	return err
}

// AddMessageToConversation inserts the message and bumps the conversation's
// last_message_at in one transaction
func AddMessageToConversation(ctx context.Context, db TxBeginner, message *Message) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = CreateMessage(ctx, tx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	if err = TouchConversation(ctx, tx, message.ConversationID, message.CreatedAt); err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// UpdateMessageStatus sets the delivery status of a message
func UpdateMessageStatus(ctx context.Context, db Execer, messageID string, status MessageStatus) error {
	_, err := db.ExecContext(ctx, `UPDATE messages SET status = ? WHERE id = ?`, status, messageID)
	return err
}

// AppendMessageContent concatenates text onto a message's content
func AppendMessageContent(ctx context.Context, db Execer, messageID, text string) error {
	_, err := db.ExecContext(ctx, `UPDATE messages SET content = content || ? WHERE id = ?`, text, messageID)
	return err
}
