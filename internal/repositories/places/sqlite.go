package places

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/weavesync/weavesync/internal/common"
	"github.com/weavesync/weavesync/internal/dbx"
	"github.com/weavesync/weavesync/internal/models"
)

// SQLiteStorage implements Storage on a DBTX (either *sql.DB or *sql.Tx).
// Passing a transactional handle lets a caller apply a whole fetched page
// inside one transaction; by default every call commits on its own.
type SQLiteStorage struct {
	db dbx.DBTX
}

// NewSQLiteStorage returns a SQLiteStorage bound to the given DBTX.
func NewSQLiteStorage(db dbx.DBTX) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (r *SQLiteStorage) DeleteByGUID(ctx context.Context, guid string, deletedAt models.Timestamp) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE place_guid = ?`, guid); err != nil {
		return fmt.Errorf("failed to delete visits for %s: %w", guid, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE guid = ?`, guid); err != nil {
		return fmt.Errorf("failed to delete place %s: %w", guid, err)
	}
	return nil
}

// InsertOrUpdatePlace upserts a place by guid. On conflict the attribute
// columns are overwritten and any local tombstone is cleared; the dirty flag
// is left untouched so local-only visits still get uploaded.
func (r *SQLiteStorage) InsertOrUpdatePlace(ctx context.Context, place models.Place, modifiedAt models.Timestamp) error {
	query := `INSERT INTO places (guid, url, title, server_modified, is_deleted, should_upload)
			VALUES (?, ?, ?, ?, 0, 0)
			ON CONFLICT(guid) DO UPDATE SET url = excluded.url,
				title = excluded.title,
				server_modified = excluded.server_modified,
				is_deleted = 0
	`
	_, err := r.db.ExecContext(ctx, query, place.GUID, place.URL, place.Title, int64(modifiedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert place %s: %w", place.GUID, err)
	}
	return nil
}

func (r *SQLiteStorage) MergeVisits(ctx context.Context, guid string, visits []models.Visit) error {
	for _, v := range visits {
		_, err := r.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO visits (place_guid, date, type) VALUES (?, ?, ?)`,
			guid, int64(v.Date), int(v.Type))
		if err != nil {
			return fmt.Errorf("failed to merge visit for %s: %w", guid, err)
		}
	}
	return nil
}

func (r *SQLiteStorage) LocallyDeletedGUIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guid FROM places WHERE is_deleted = 1 AND should_upload = 1 ORDER BY guid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select deleted places: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, err
		}
		result = append(result, guid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteStorage) LocallyModifiedPlaces(ctx context.Context) ([]models.PlaceWithVisits, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guid, url, title FROM places WHERE is_deleted = 0 AND should_upload = 1 ORDER BY guid`)
	if err != nil {
		return nil, fmt.Errorf("failed to select modified places: %w", err)
	}
	defer rows.Close()

	var result []models.PlaceWithVisits
	for rows.Next() {
		var p models.Place
		if err := rows.Scan(&p.GUID, &p.URL, &p.Title); err != nil {
			return nil, err
		}
		result = append(result, models.PlaceWithVisits{Place: p})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		visits, err := r.visitsFor(ctx, result[i].Place.GUID)
		if err != nil {
			return nil, err
		}
		result[i].Visits = visits
	}
	return result, nil
}

func (r *SQLiteStorage) visitsFor(ctx context.Context, guid string) ([]models.Visit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, type FROM visits WHERE place_guid = ? ORDER BY date`, guid)
	if err != nil {
		return nil, fmt.Errorf("failed to select visits for %s: %w", guid, err)
	}
	defer rows.Close()

	var visits []models.Visit
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.Date, &v.Type); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *SQLiteStorage) MarkSynchronized(ctx context.Context, guids []string, uploadedAt models.Timestamp) (models.Timestamp, error) {
	if len(guids) == 0 {
		return uploadedAt, nil
	}
	query := fmt.Sprintf(
		`UPDATE places SET should_upload = 0, server_modified = ? WHERE guid IN (%s)`,
		placeholders(len(guids)))
	args := make([]any, 0, len(guids)+1)
	args = append(args, int64(uploadedAt))
	for _, g := range guids {
		args = append(args, g)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("failed to mark places synchronized: %w", err)
	}
	return uploadedAt, nil
}

func (r *SQLiteStorage) MarkDeletedSynchronized(ctx context.Context, guids []string) error {
	if len(guids) == 0 {
		return nil
	}
	args := make([]any, 0, len(guids))
	for _, g := range guids {
		args = append(args, g)
	}
	query := fmt.Sprintf(
		`DELETE FROM places WHERE is_deleted = 1 AND guid IN (%s)`,
		placeholders(len(guids)))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to forget uploaded tombstones: %w", err)
	}
	return nil
}

// RecordVisit is the app-facing write path: it upserts the place for url,
// appends the visit, and flags the place for upload. Returns the place guid.
func (r *SQLiteStorage) RecordVisit(ctx context.Context, url, title string, visit models.Visit) (string, error) {
	var guid string
	err := r.db.QueryRowContext(ctx,
		`SELECT guid FROM places WHERE url = ? AND is_deleted = 0`, url).Scan(&guid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		guid = models.NewGUID()
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO places (guid, url, title, server_modified, is_deleted, should_upload)
			 VALUES (?, ?, ?, 0, 0, 1)`, guid, url, title)
		if err != nil {
			return "", fmt.Errorf("failed to insert place for %s: %w", url, err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to look up place for %s: %w", url, err)
	default:
		_, err = r.db.ExecContext(ctx,
			`UPDATE places SET title = ?, should_upload = 1 WHERE guid = ?`, title, guid)
		if err != nil {
			return "", fmt.Errorf("failed to update place %s: %w", guid, err)
		}
	}

	if err := r.MergeVisits(ctx, guid, []models.Visit{visit}); err != nil {
		return "", err
	}
	return guid, nil
}

// DeleteLocally tombstones a place: visits go away immediately, the row
// stays flagged for upload until the tombstone is acknowledged.
func (r *SQLiteStorage) DeleteLocally(ctx context.Context, guid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE place_guid = ?`, guid); err != nil {
		return fmt.Errorf("failed to delete visits for %s: %w", guid, err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE places SET is_deleted = 1, should_upload = 1, title = '' WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to tombstone place %s: %w", guid, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// GetByGUID returns a place and its visits, or common.ErrorNotFound.
func (r *SQLiteStorage) GetByGUID(ctx context.Context, guid string) (*models.PlaceWithVisits, error) {
	var p models.Place
	err := r.db.QueryRowContext(ctx,
		`SELECT guid, url, title FROM places WHERE guid = ? AND is_deleted = 0`, guid).
		Scan(&p.GUID, &p.URL, &p.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get place %s: %w", guid, err)
	}
	visits, err := r.visitsFor(ctx, guid)
	if err != nil {
		return nil, err
	}
	return &models.PlaceWithVisits{Place: p, Visits: visits}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
