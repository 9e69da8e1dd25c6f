package services

import (
	"context"
	"database/sql"
	"fmt"

	"matchops-service/database"
	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// LineupRegistry 阵容登记表
// 维护每场比赛每队的合格参与者名单,阵容条目是事件引用的锚点:
// 被事件引用的条目不能删除(先删事件,再删条目),杜绝悬挂引用
type LineupRegistry struct {
	db        *sql.DB
	locks     *MatchLocks
	matches   *MatchStore
	directory ParticipantDirectory // 可为 nil,此时跳过资格校验
}

// NewLineupRegistry 创建阵容登记表
func NewLineupRegistry(db *sql.DB, locks *MatchLocks, matches *MatchStore, directory ParticipantDirectory) *LineupRegistry {
	return &LineupRegistry{
		db:        db,
		locks:     locks,
		matches:   matches,
		directory: directory,
	}
}

// AddLineupParams 新增阵容条目参数
type AddLineupParams struct {
	MatchID       int64             `json:"match_id"`
	TeamID        int64             `json:"team_id"`
	ParticipantID int64             `json:"participant_id"`
	Role          models.LineupRole `json:"role"`
	ShirtNumber   *int              `json:"shirt_number,omitempty"`
	Position      *string           `json:"position,omitempty"`
	IsCaptain     bool              `json:"is_captain"`
}

// AddEntry 新增阵容条目
// 校验顺序:比赛状态 → 球队归属 → 角色 → 资格名单 →
// 参与者重复 → 第二队长
func (r *LineupRegistry) AddEntry(ctx context.Context, params AddLineupParams) (*models.LineupEntry, error) {
	unlock := r.locks.Lock(params.MatchID)
	defer unlock()
	return r.addEntryLocked(ctx, params)
}

// addEntryLocked 持锁新增,调用方已持有该场比赛的锁
func (r *LineupRegistry) addEntryLocked(ctx context.Context, params AddLineupParams) (*models.LineupEntry, error) {
	if !models.ValidLineupRole(params.Role) {
		return nil, common.NewValidationError(fmt.Sprintf("invalid lineup role %q", params.Role))
	}
	if params.ShirtNumber != nil && *params.ShirtNumber <= 0 {
		return nil, common.NewValidationError("shirt_number must be positive")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := r.matches.GetForUpdate(tx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if !models.AllowsMutation(match.Status) {
		return nil, common.NewMatchClosedError(string(match.Status))
	}
	if !match.HasTeam(params.TeamID) {
		return nil, common.NewValidationError(
			fmt.Sprintf("team %d does not play in match %d", params.TeamID, params.MatchID))
	}

	if r.directory != nil {
		eligible, err := r.directory.IsEligible(ctx, params.TeamID, params.ParticipantID)
		if err != nil {
			return nil, fmt.Errorf("eligibility check failed: %w", err)
		}
		if !eligible {
			return nil, common.NewValidationError(fmt.Sprintf(
				"participant %d is not in the eligible pool of team %d", params.ParticipantID, params.TeamID))
		}
	}

	var exists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM lineup_entries WHERE match_id = $1 AND participant_id = $2)`,
		params.MatchID, params.ParticipantID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	if exists {
		return nil, common.NewValidationError(fmt.Sprintf(
			"participant %d is already rostered for match %d", params.ParticipantID, params.MatchID))
	}

	if params.IsCaptain {
		err = tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM lineup_entries WHERE match_id = $1 AND team_id = $2 AND is_captain)`,
			params.MatchID, params.TeamID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check captain: %w", err)
		}
		if exists {
			return nil, common.NewValidationError(fmt.Sprintf(
				"team %d already has a captain for match %d", params.TeamID, params.MatchID))
		}
	}

	query := `
		INSERT INTO lineup_entries (match_id, team_id, participant_id, role, shirt_number, position, is_captain)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + database.LineupEntryColumns

	row := tx.QueryRow(query,
		params.MatchID, params.TeamID, params.ParticipantID, params.Role,
		params.ShirtNumber, params.Position, params.IsCaptain,
	)
	entry, err := database.ScanLineupEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lineup entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Printf("[Lineup] Added participant %d to match %d team %d (%s)",
		params.ParticipantID, params.MatchID, params.TeamID, params.Role)
	return entry, nil
}

// RemoveEntry 删除阵容条目
// 仍被事件引用时返回 REFERENCED_BY_EVENT,不做级联删除:
// 级联会悄悄抹掉计分相关历史
func (r *LineupRegistry) RemoveEntry(ctx context.Context, entryID int64) error {
	matchID, err := r.entryMatchID(ctx, entryID)
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(matchID)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := r.matches.GetForUpdate(tx, matchID)
	if err != nil {
		return err
	}
	if !models.AllowsMutation(match.Status) {
		return common.NewMatchClosedError(string(match.Status))
	}

	var refs int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM match_events
		WHERE primary_entry_id = $1 OR secondary_entry_id = $1 OR assist_entry_id = $1
	`, entryID).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count references: %w", err)
	}
	if refs > 0 {
		return common.NewReferencedByEventError(fmt.Sprintf(
			"lineup entry %d is referenced by %d event(s): delete those events first", entryID, refs))
	}

	result, err := tx.Exec(`DELETE FROM lineup_entries WHERE id = $1`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete lineup entry: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return common.NewNotFoundError("lineup entry")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Printf("[Lineup] Removed entry %d from match %d", entryID, matchID)
	return nil
}

// List 获取阵容,入账顺序稳定排序,可按球队过滤
func (r *LineupRegistry) List(ctx context.Context, matchID int64, teamID *int64) ([]*models.LineupEntry, error) {
	query := `
		SELECT ` + database.LineupEntryColumns + `
		FROM lineup_entries
		WHERE match_id = $1 AND ($2::bigint IS NULL OR team_id = $2)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lineup: %w", err)
	}
	defer rows.Close()

	var entries []*models.LineupEntry
	for rows.Next() {
		entry, err := database.ScanLineupEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// entryMatchID 查条目所属比赛,用于在开事务前确定加锁范围
func (r *LineupRegistry) entryMatchID(ctx context.Context, entryID int64) (int64, error) {
	var matchID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT match_id FROM lineup_entries WHERE id = $1`, entryID,
	).Scan(&matchID)
	if err == sql.ErrNoRows {
		return 0, common.NewNotFoundError("lineup entry")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve lineup entry: %w", err)
	}
	return matchID, nil
}
