package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/ZanzyTHEbar/kratu/internal/resilience"
)

// ErrNotFound is returned when a snapshot does not exist
var ErrNotFound = errors.New("snapshot not found")

// Repository handles snapshot persistence
type Repository struct {
	db      *DB
	timeout time.Duration
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db, timeout: 5 * time.Second}
}

// InsertSnapshot stores the snapshot and its rows in one transaction,
// retrying while SQLite reports the database as busy or locked.
func (r *Repository) InsertSnapshot(ctx context.Context, s *Snapshot, rows []SnapshotRow) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = 5
	cfg.Retryable = isBusy
	return resilience.RetryWithConfig(ctx, cfg, func() error {
		return r.insertSnapshot(ctx, s, rows)
	})
}

func (r *Repository) insertSnapshot(ctx context.Context, s *Snapshot, rows []SnapshotRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO ranking_snapshots (id, widget_id, dataset, entities, top_entity, top_score, columns, created_at)
		VALUES (:id, :widget_id, :dataset, :entities, :top_entity, :top_score, :columns, :created_at)
	`, s)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for i := range rows {
		rows[i].SnapshotID = s.ID
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO ranking_rows (snapshot_id, rank, entity, score, weights)
			VALUES (:snapshot_id, :rank, :entity, :score, :weights)
		`, rows[i])
		if err != nil {
			return fmt.Errorf("failed to insert snapshot row %d: %w", rows[i].Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// isBusy reports whether err is SQLite lock contention
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// GetSnapshot loads a snapshot header by ID
func (r *Repository) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var s Snapshot
	err := r.db.GetContext(ctx, &s, `
		SELECT id, widget_id, dataset, entities, top_entity, top_score, columns, created_at
		FROM ranking_snapshots
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

// GetSnapshotRows loads the rows of a snapshot ordered by rank
func (r *Repository) GetSnapshotRows(ctx context.Context, id string) ([]SnapshotRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []SnapshotRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT snapshot_id, rank, entity, score, weights
		FROM ranking_rows
		WHERE snapshot_id = ?
		ORDER BY rank ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot rows: %w", err)
	}
	return rows, nil
}

// ListSnapshots returns the newest snapshots, optionally for one dataset
func (r *Repository) ListSnapshots(ctx context.Context, dataset string, limit int) ([]Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, widget_id, dataset, entities, top_entity, top_score, columns, created_at
		FROM ranking_snapshots`
	args := []interface{}{}
	if dataset != "" {
		query += ` WHERE dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	var snapshots []Snapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// DeleteSnapshot removes a snapshot and its rows
func (r *Repository) DeleteSnapshot(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM ranking_snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountSnapshots returns the number of stored snapshots
func (r *Repository) CountSnapshots(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM ranking_snapshots`); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
