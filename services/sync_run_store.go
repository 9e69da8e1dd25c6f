package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SyncRunStatus 同步执行状态
const (
	SyncRunStatusCompleted = "completed"
	SyncRunStatusFailed    = "failed"
)

// SyncRun 一次同步执行的审计记录
type SyncRun struct {
	ID            int64      `json:"id"`
	MatchID       int64      `json:"match_id"`
	Status        string     `json:"status"`
	LineupApplied int        `json:"lineup_applied"`
	EventsApplied int        `json:"events_applied"`
	RowsSkipped   int        `json:"rows_skipped"`
	Error         *string    `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// SyncRunStore 同步执行审计
type SyncRunStore struct {
	db *sql.DB
}

// NewSyncRunStore 创建同步审计存储
func NewSyncRunStore(db *sql.DB) *SyncRunStore {
	return &SyncRunStore{db: db}
}

// Record 落一条审计记录
func (s *SyncRunStore) Record(ctx context.Context, run *SyncRun) error {
	query := `
		INSERT INTO sync_runs (match_id, status, lineup_applied, events_applied, rows_skipped, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.MatchID, run.Status, run.LineupApplied, run.EventsApplied,
		run.RowsSkipped, run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// List 按比赛查最近的同步执行记录
func (s *SyncRunStore) List(ctx context.Context, matchID int64, limit int) ([]*SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, match_id, status, lineup_applied, events_applied, rows_skipped, error, started_at, finished_at
		FROM sync_runs
		WHERE match_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*SyncRun
	for rows.Next() {
		var run SyncRun
		err := rows.Scan(&run.ID, &run.MatchID, &run.Status, &run.LineupApplied,
			&run.EventsApplied, &run.RowsSkipped, &run.Error, &run.StartedAt, &run.FinishedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
