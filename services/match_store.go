package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"matchops-service/database"
	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// MatchStore 比赛存取与生命周期操作
// 比赛由赛程管理方创建(Create 是边界入口),本服务不删除比赛
type MatchStore struct {
	db    *sql.DB
	locks *MatchLocks
}

// NewMatchStore 创建比赛存储
func NewMatchStore(db *sql.DB, locks *MatchLocks) *MatchStore {
	return &MatchStore{db: db, locks: locks}
}

// CreateMatchParams 创建比赛参数
type CreateMatchParams struct {
	ExternalRef *string   `json:"external_ref,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	HomeTeamID  int64     `json:"home_team_id"`
	AwayTeamID  int64     `json:"away_team_id"`
	SyncEnabled bool      `json:"sync_enabled"`
}

// MatchPatch 比赛部分更新
// Version 非零时做乐观并发检查,过期则返回 CONFLICT
type MatchPatch struct {
	Status           *models.MatchStatus `json:"status,omitempty"`
	HomeScore        *int                `json:"home_score,omitempty"`
	AwayScore        *int                `json:"away_score,omitempty"`
	HomePenaltyScore *int                `json:"home_penalty_score,omitempty"`
	AwayPenaltyScore *int                `json:"away_penalty_score,omitempty"`
	SyncEnabled      *bool               `json:"sync_enabled,omitempty"`
	Version          int                 `json:"version,omitempty"`
}

// Create 创建比赛(赛程协作方的边界调用)
func (s *MatchStore) Create(ctx context.Context, params CreateMatchParams) (*models.Match, error) {
	if params.HomeTeamID == 0 || params.AwayTeamID == 0 {
		return nil, common.NewValidationError("home_team_id and away_team_id are required")
	}
	if params.HomeTeamID == params.AwayTeamID {
		return nil, common.NewValidationError("home and away team must differ")
	}
	if params.ScheduledAt.IsZero() {
		return nil, common.NewValidationError("scheduled_at is required")
	}

	query := `
		INSERT INTO matches (external_ref, scheduled_at, home_team_id, away_team_id, status, sync_enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + database.MatchColumns

	row := s.db.QueryRowContext(ctx, query,
		params.ExternalRef, params.ScheduledAt, params.HomeTeamID, params.AwayTeamID,
		models.MatchStatusCreated, params.SyncEnabled,
	)
	match, err := database.ScanMatch(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	logger.Printf("[Match] Created match %d (%d vs %d)", match.ID, match.HomeTeamID, match.AwayTeamID)
	return match, nil
}

// Get 获取比赛
func (s *MatchStore) Get(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT ` + database.MatchColumns + ` FROM matches WHERE id = $1`
	match, err := database.ScanMatch(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, common.NewNotFoundError("match")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// GetForUpdate 在事务内加行锁读取比赛
// 账本/阵容服务在各自的事务里调用,保证比分写回前比赛行不被并发修改
func (s *MatchStore) GetForUpdate(tx *sql.Tx, id int64) (*models.Match, error) {
	query := `SELECT ` + database.MatchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	match, err := database.ScanMatch(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, common.NewNotFoundError("match")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// MatchFilter 比赛列表过滤器
type MatchFilter struct {
	Status      models.MatchStatus
	SyncEnabled *bool
	Limit       int
}

// List 获取比赛列表
func (s *MatchStore) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT ` + database.MatchColumns + `
		FROM matches
		WHERE ($1 = '' OR status = $1)
		  AND ($2::boolean IS NULL OR sync_enabled = $2)
		ORDER BY scheduled_at DESC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, string(filter.Status), filter.SyncEnabled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		match, err := database.ScanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// Patch 部分更新比赛
// 状态变化走状态机转移表;比分人工编辑只在账本无计分事件
// 且未开启数据源同步时接受(否则比分归对账引擎所有)
func (s *MatchStore) Patch(ctx context.Context, id int64, patch MatchPatch) (*models.Match, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := s.GetForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Version != 0 && patch.Version != match.Version {
		return nil, common.NewConflictError(
			fmt.Sprintf("match version %d is stale (current %d): reload and retry", patch.Version, match.Version))
	}

	if patch.Status != nil {
		if !models.ValidMatchStatus(*patch.Status) {
			return nil, common.NewValidationError(fmt.Sprintf("unknown status %q", *patch.Status))
		}
		if *patch.Status != match.Status && !models.CanTransition(match.Status, *patch.Status) {
			return nil, common.NewValidationError(
				fmt.Sprintf("illegal status transition %s → %s", match.Status, *patch.Status))
		}
		match.Status = *patch.Status
	}

	if patch.HomeScore != nil || patch.AwayScore != nil {
		if err := s.checkManualScoreAllowed(tx, match); err != nil {
			return nil, err
		}
		if patch.HomeScore != nil {
			if *patch.HomeScore < 0 {
				return nil, common.NewValidationError("home_score must be >= 0")
			}
			match.HomeScore = *patch.HomeScore
		}
		if patch.AwayScore != nil {
			if *patch.AwayScore < 0 {
				return nil, common.NewValidationError("away_score must be >= 0")
			}
			match.AwayScore = *patch.AwayScore
		}
	}

	// 点球大战比分不由账本派生,始终允许人工维护
	if patch.HomePenaltyScore != nil {
		match.HomePenaltyScore = patch.HomePenaltyScore
	}
	if patch.AwayPenaltyScore != nil {
		match.AwayPenaltyScore = patch.AwayPenaltyScore
	}

	if patch.SyncEnabled != nil {
		match.SyncEnabled = *patch.SyncEnabled
	}

	if err := s.writeBack(tx, match); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	match.Version++
	return match, nil
}

// ResetStatus 重置比赛状态回 created
// 任何状态均允许;是否与进行中的外部同步会话冲突由调用方决定
func (s *MatchStore) ResetStatus(ctx context.Context, id int64) (*models.Match, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := s.GetForUpdate(tx, id)
	if err != nil {
		return nil, err
	}

	match.Status = models.MatchStatusCreated
	if err := s.writeBack(tx, match); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	match.Version++
	logger.Printf("[Match] Match %d status reset to created", id)
	return match, nil
}

// checkManualScoreAllowed 人工比分编辑闸门
// 账本存在计分事件时比分是派生值,人工编辑会与账本脱节,拒绝;
// 开启数据源同步时比分归数据源回放所有,同样拒绝
func (s *MatchStore) checkManualScoreAllowed(tx *sql.Tx, match *models.Match) error {
	if match.SyncEnabled {
		return common.NewValidationError("manual score editing is disabled while feed sync is enabled")
	}
	n, err := countScoreAffectingEvents(tx, match.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return common.NewValidationError(fmt.Sprintf(
			"scoreboard is derived from %d score-affecting event(s): edit the event ledger instead", n))
	}
	return nil
}

// writeBack 写回比赛行并递增版本号
func (s *MatchStore) writeBack(tx *sql.Tx, match *models.Match) error {
	query := `
		UPDATE matches SET
			status = $1,
			home_score = $2,
			away_score = $3,
			home_penalty_score = $4,
			away_penalty_score = $5,
			sync_enabled = $6,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $7 AND version = $8
	`
	result, err := tx.Exec(query,
		match.Status, match.HomeScore, match.AwayScore,
		match.HomePenaltyScore, match.AwayPenaltyScore,
		match.SyncEnabled, match.ID, match.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return common.NewConflictError("match was modified concurrently: reload and retry")
	}
	return nil
}

// countScoreAffectingEvents 统计账本中影响比分的事件数
// 类型集合取自规则表,不在 SQL 里重复维护
func countScoreAffectingEvents(tx *sql.Tx, matchID int64) (int, error) {
	types := make([]string, 0, 3)
	for _, t := range models.ScoreAffectingTypes() {
		types = append(types, string(t))
	}

	var n int
	query := `SELECT COUNT(*) FROM match_events WHERE match_id = $1 AND event_type = ANY($2)`
	if err := tx.QueryRow(query, matchID, pq.Array(types)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count score events: %w", err)
	}
	return n, nil
}
