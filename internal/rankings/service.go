// Package rankings stores ranking snapshots of widgets and serves them back
// through a cache.
package rankings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/kratu/internal/database"
	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
	"github.com/ZanzyTHEbar/kratu/internal/widget"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Snapshot is a stored ranking with its rows
type Snapshot struct {
	ID        string          `json:"id"`
	WidgetID  string          `json:"widget_id"`
	Dataset   string          `json:"dataset"`
	Entities  int             `json:"entities"`
	TopEntity *string         `json:"top_entity,omitempty"`
	TopScore  *float64        `json:"top_score,omitempty"`
	Columns   []widget.Column `json:"columns,omitempty"`
	Rows      []widget.Row    `json:"rows,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListResponse is a page of snapshot headers
type ListResponse struct {
	Snapshots []Snapshot `json:"snapshots"`
	Total     int        `json:"total"`
	Dataset   string     `json:"dataset,omitempty"`
	Limit     int        `json:"limit"`
}

// Service handles snapshot operations
type Service struct {
	repo  *database.Repository
	cache *SnapshotCache
}

// NewService creates a new snapshot service
func NewService(repo *database.Repository, cache *SnapshotCache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// Save ranks w and stores the result
func (s *Service) Save(ctx context.Context, w *widget.Widget) (*Snapshot, error) {
	ranking, err := w.Rank()
	if err != nil {
		return nil, err
	}

	columnsJSON, err := json.Marshal(ranking.Columns)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to marshal columns", err)
	}

	header := database.NewSnapshot(w.ID, w.Dataset, len(ranking.Rows), string(columnsJSON))
	rows := make([]database.SnapshotRow, 0, len(ranking.Rows))
	for _, r := range ranking.Rows {
		weightsJSON, err := json.Marshal(r.Weights)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to marshal weights", err)
		}
		rows = append(rows, database.SnapshotRow{
			Rank:    r.Rank,
			Entity:  r.Entity,
			Score:   r.Score,
			Weights: string(weightsJSON),
		})
	}
	if len(ranking.Rows) > 0 {
		top := ranking.Rows[0]
		header.TopEntity = &top.Entity
		header.TopScore = &top.Score
	}

	if err := s.repo.InsertSnapshot(ctx, header, rows); err != nil {
		return nil, apperrors.NewInternalError("failed to save snapshot", err)
	}

	snapshot := &Snapshot{
		ID:        header.ID,
		WidgetID:  header.WidgetID,
		Dataset:   header.Dataset,
		Entities:  header.Entities,
		TopEntity: header.TopEntity,
		TopScore:  header.TopScore,
		Columns:   ranking.Columns,
		Rows:      ranking.Rows,
		CreatedAt: header.CreatedAt,
	}

	s.cache.InvalidateLists(ctx)
	s.cache.SetSnapshot(ctx, snapshot)

	slog.Info("Ranking snapshot saved",
		"snapshot_id", snapshot.ID,
		"widget_id", snapshot.WidgetID,
		"dataset", snapshot.Dataset,
		"entities", snapshot.Entities)

	return snapshot, nil
}

// Get returns the snapshot with id including its rows
func (s *Service) Get(ctx context.Context, id string) (*Snapshot, error) {
	if cached, ok := s.cache.GetSnapshot(ctx, id); ok {
		return cached, nil
	}

	header, err := s.repo.GetSnapshot(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("snapshot", id, "")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load snapshot", err)
	}
	rows, err := s.repo.GetSnapshotRows(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load snapshot rows", err)
	}

	snapshot, err := fromRecord(*header)
	if err != nil {
		return nil, err
	}
	snapshot.Rows = make([]widget.Row, 0, len(rows))
	for _, r := range rows {
		var weights map[string]float64
		if err := json.Unmarshal([]byte(r.Weights), &weights); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("corrupt weights in snapshot %s", id), err)
		}
		snapshot.Rows = append(snapshot.Rows, widget.Row{
			Entity:  r.Entity,
			Rank:    r.Rank,
			Score:   r.Score,
			Weights: weights,
		})
	}

	s.cache.SetSnapshot(ctx, snapshot)
	return snapshot, nil
}

// List returns the newest snapshot headers. An empty dataset lists all.
func (s *Service) List(ctx context.Context, dataset string, limit int) (*ListResponse, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxListLimit), limit)
	}

	if cached, ok := s.cache.GetList(ctx, dataset, limit); ok {
		return cached, nil
	}

	records, err := s.repo.ListSnapshots(ctx, dataset, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list snapshots", err)
	}

	resp := &ListResponse{
		Snapshots: make([]Snapshot, 0, len(records)),
		Dataset:   dataset,
		Limit:     limit,
	}
	for _, rec := range records {
		snapshot, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		snapshot.Columns = nil
		resp.Snapshots = append(resp.Snapshots, *snapshot)
	}
	resp.Total = len(resp.Snapshots)

	s.cache.SetList(ctx, dataset, limit, resp)
	return resp, nil
}

// Delete removes a snapshot and evicts it from the cache
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteSnapshot(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return apperrors.NewNotFoundError("snapshot", id, "")
	}
	if err != nil {
		return apperrors.NewInternalError("failed to delete snapshot", err)
	}

	s.cache.InvalidateSnapshot(ctx, id)
	s.cache.InvalidateLists(ctx)
	slog.Info("Ranking snapshot deleted", "snapshot_id", id)
	return nil
}

// Count returns the number of stored snapshots
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.CountSnapshots(ctx)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to count snapshots", err)
	}
	return n, nil
}

// CacheStats reports the snapshot cache backend statistics
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.GetStats()
}

func fromRecord(rec database.Snapshot) (*Snapshot, error) {
	var columns []widget.Column
	if err := json.Unmarshal([]byte(rec.Columns), &columns); err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("corrupt columns in snapshot %s", rec.ID), err)
	}
	return &Snapshot{
		ID:        rec.ID,
		WidgetID:  rec.WidgetID,
		Dataset:   rec.Dataset,
		Entities:  rec.Entities,
		TopEntity: rec.TopEntity,
		TopScore:  rec.TopScore,
		Columns:   columns,
		CreatedAt: rec.CreatedAt,
	}, nil
}
