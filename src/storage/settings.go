package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// GetSetting retrieves a setting by key
func GetSetting(ctx context.Context, db sqlscan.Querier, key string) (*Setting, error) {
	var s Setting
	err := sqlscan.Get(ctx, db, &s, `SELECT key, value, updated_at FROM settings WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// PutSetting inserts or replaces a setting
func PutSetting(ctx context.Context, db Execer, key, value string) error {
	query := `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	_, err := db.ExecContext(ctx, query, key, value, time.Now())
	return err
}
