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

// RefereeStore 裁判委派
// 与事件账本同样的纪律:状态闸门 + 显式删除,不计分
type RefereeStore struct {
	db      *sql.DB
	locks   *MatchLocks
	matches *MatchStore
}

// NewRefereeStore 创建裁判委派存储
func NewRefereeStore(db *sql.DB, locks *MatchLocks, matches *MatchStore) *RefereeStore {
	return &RefereeStore{db: db, locks: locks, matches: matches}
}

// AssignRefereeParams 委派参数
type AssignRefereeParams struct {
	MatchID   int64              `json:"match_id"`
	RefereeID int64              `json:"referee_id"`
	Role      models.RefereeRole `json:"role"`
}

// Assign 委派裁判
// 同一裁判同一职务同一场最多一次,重复委派返回 CONFLICT
func (s *RefereeStore) Assign(ctx context.Context, params AssignRefereeParams) (*models.RefereeAssignment, error) {
	if !models.ValidRefereeRole(params.Role) {
		return nil, common.NewValidationError(fmt.Sprintf("unknown referee role %q", params.Role))
	}

	unlock := s.locks.Lock(params.MatchID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matches.GetForUpdate(tx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if !models.AllowsMutation(match.Status) {
		return nil, common.NewMatchClosedError(string(match.Status))
	}

	var exists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM referee_assignments WHERE match_id = $1 AND referee_id = $2 AND role = $3)`,
		params.MatchID, params.RefereeID, params.Role,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment: %w", err)
	}
	if exists {
		return nil, common.NewConflictError(fmt.Sprintf(
			"referee %d already assigned as %s for match %d", params.RefereeID, params.Role, params.MatchID))
	}

	query := `
		INSERT INTO referee_assignments (match_id, referee_id, role)
		VALUES ($1, $2, $3)
		RETURNING ` + database.RefereeAssignmentColumns

	assignment, err := database.ScanRefereeAssignment(
		tx.QueryRow(query, params.MatchID, params.RefereeID, params.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Printf("[Referee] Referee %d assigned as %s for match %d",
		params.RefereeID, params.Role, params.MatchID)
	return assignment, nil
}

// Remove 撤销委派
func (s *RefereeStore) Remove(ctx context.Context, assignmentID int64) error {
	var matchID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT match_id FROM referee_assignments WHERE id = $1`, assignmentID,
	).Scan(&matchID)
	if err == sql.ErrNoRows {
		return common.NewNotFoundError("referee assignment")
	}
	if err != nil {
		return fmt.Errorf("failed to resolve assignment: %w", err)
	}

	unlock := s.locks.Lock(matchID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matches.GetForUpdate(tx, matchID)
	if err != nil {
		return err
	}
	if !models.AllowsMutation(match.Status) {
		return common.NewMatchClosedError(string(match.Status))
	}

	result, err := tx.Exec(`DELETE FROM referee_assignments WHERE id = $1`, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return common.NewNotFoundError("referee assignment")
	}

	return tx.Commit()
}

// List 获取一场比赛的委派列表,入账顺序
func (s *RefereeStore) List(ctx context.Context, matchID int64) ([]*models.RefereeAssignment, error) {
	query := `
		SELECT ` + database.RefereeAssignmentColumns + `
		FROM referee_assignments
		WHERE match_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.RefereeAssignment
	for rows.Next() {
		a, err := database.ScanRefereeAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}
