package services

import (
	"database/sql"
	"fmt"

	"matchops-service/database"
	"matchops-service/pkg/models"
)

// ScoreReconciler 比分对账引擎
// 账本每次变化后在同一事务内重算比分并写回比赛行,
// 只读账本、只写比分字段,不碰账本和阵容本身。
// 重算是幂等的纯折叠:失败时整个触发它的事务一起回滚,
// 比分永远不会与账本脱节。
type ScoreReconciler struct{}

// NewScoreReconciler 创建对账引擎
func NewScoreReconciler() *ScoreReconciler {
	return &ScoreReconciler{}
}

// Reconcile 在给定事务内重算并写回比分
// 返回重算后的 (home, away),写回会递增比赛版本号
func (r *ScoreReconciler) Reconcile(tx *sql.Tx, match *models.Match) (home, away int, err error) {
	events, err := loadEvents(tx, match.ID)
	if err != nil {
		return 0, 0, err
	}

	home, away = models.ComputeScore(events, match.HomeTeamID, match.AwayTeamID)

	// 整体替换存量比分,不与人工值合并
	query := `
		UPDATE matches SET
			home_score = $1,
			away_score = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $3
	`
	if _, err := tx.Exec(query, home, away, match.ID); err != nil {
		return 0, 0, fmt.Errorf("failed to write back score: %w", err)
	}

	return home, away, nil
}

// loadEvents 读取一场比赛的全部事件
// 折叠与顺序无关,这里不排序
func loadEvents(tx *sql.Tx, matchID int64) ([]models.Event, error) {
	query := `SELECT ` + database.EventColumns + ` FROM match_events WHERE match_id = $1`
	rows, err := tx.Query(query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := database.ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
