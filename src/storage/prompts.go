package storage

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"
)

// DefaultPrompts are offered before any suggestions have been generated
var DefaultPrompts = []Prompt{
	{Text: "Translate text to Spanish", Icon: "TRANSLATION"},
	{Text: "Write a short poem about nature", Icon: "LITERATURE"},
	{Text: "Create a Python function for sorting a list", Icon: "CODE"},
	{Text: "Generate a script for a short play", Icon: "LITERATURE"},
}

// CreatePrompt stores a starter prompt
func CreatePrompt(ctx context.Context, db Execer, prompt *Prompt) error {
	if prompt.ID == "" {
		prompt.ID = uuid.New().String()
	}
	if prompt.Icon == "" {
		prompt.Icon = "QUESTION_MARK"
	}
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now()
	}

	query := `INSERT INTO prompts (id, text, icon, created_at) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, prompt.ID, prompt.Text, prompt.Icon, prompt.CreatedAt)
	return err
}

// ListLatestPrompts returns up to limit prompts, newest first
func ListLatestPrompts(ctx context.Context, db sqlscan.Querier, limit int) ([]Prompt, error) {
	query := `SELECT id, text, icon, created_at FROM prompts ORDER BY created_at DESC, rowid DESC LIMIT ?`
	var prompts []Prompt
	if err := sqlscan.Select(ctx, db, &prompts, query, limit); err != nil {
		return nil, err
	}
	return prompts, nil
}

// CountPrompts returns the number of stored prompts
func CountPrompts(ctx context.Context, db sqlscan.Querier) (int, error) {
	var n int
	if err := sqlscan.Get(ctx, db, &n, `SELECT COUNT(*) FROM prompts`); err != nil {
		return 0, err
	}
	return n, nil
}

// SeedDefaultPrompts inserts DefaultPrompts when the table is empty
func SeedDefaultPrompts(ctx context.Context, db ExecQuerier) error {
	n, err := CountPrompts(ctx, db)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// one timestamp for the batch; rowid keeps the insert order
	now := time.Now()
	for _, p := range DefaultPrompts {
		p.CreatedAt = now
		if err := CreatePrompt(ctx, db, &p); err != nil {
			return err
		}
	}
	return nil
}
