package database

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a stored ranking
type Snapshot struct {
	ID        string    `json:"id" db:"id"`
	WidgetID  string    `json:"widget_id" db:"widget_id"`
	Dataset   string    `json:"dataset" db:"dataset"`
	Entities  int       `json:"entities" db:"entities"`
	TopEntity *string   `json:"top_entity,omitempty" db:"top_entity"`
	TopScore  *float64  `json:"top_score,omitempty" db:"top_score"`
	Columns   string    `json:"-" db:"columns"` // JSON
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SnapshotRow is one ranked entity of a snapshot
type SnapshotRow struct {
	SnapshotID string  `json:"-" db:"snapshot_id"`
	Rank       int     `json:"rank" db:"rank"`
	Entity     string  `json:"entity" db:"entity"`
	Score      float64 `json:"score" db:"score"`
	Weights    string  `json:"-" db:"weights"` // JSON
}

// NewSnapshot creates a snapshot header with a generated ID
func NewSnapshot(widgetID, dataset string, entities int, columns string) *Snapshot {
	return &Snapshot{
		ID:        uuid.New().String(),
		WidgetID:  widgetID,
		Dataset:   dataset,
		Entities:  entities,
		Columns:   columns,
		CreatedAt: time.Now().UTC(),
	}
}
