package scratchpad

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/weavesync/weavesync/internal/dbx"
	"github.com/weavesync/weavesync/internal/models"
)

// SQLiteScratchpad stores cursors in a key/value table, one row per
// collection.
type SQLiteScratchpad struct {
	db dbx.DBTX
}

func NewSQLiteScratchpad(db dbx.DBTX) *SQLiteScratchpad {
	return &SQLiteScratchpad{db: db}
}

func cursorKey(collection string) string {
	return "cursor/" + collection
}

func (r *SQLiteScratchpad) Cursor(ctx context.Context, collection string) (models.Timestamp, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM scratchpad WHERE key = ?`, cursorKey(collection)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cursor for %s: %w", collection, err)
	}
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cursor for %s: %w", collection, err)
	}
	return models.Timestamp(ts), nil
}

func (r *SQLiteScratchpad) SetCursor(ctx context.Context, collection string, ts models.Timestamp) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scratchpad (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, cursorKey(collection), strconv.FormatInt(int64(ts), 10))
	if err != nil {
		return fmt.Errorf("failed to set cursor for %s: %w", collection, err)
	}
	return nil
}
