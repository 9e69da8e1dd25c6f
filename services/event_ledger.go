package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"matchops-service/database"
	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// EventLedger 比赛事件账本
// 账本是比分的唯一事实来源:每次 append/delete 在同一事务内
// 触发对账引擎重算比分,事务要么整体成功要么整体回滚。
// 事件 UUID 唯一,重复入账(同步回放重试)静默去重。
type EventLedger struct {
	db          *sql.DB
	locks       *MatchLocks
	matches     *MatchStore
	reconciler  *ScoreReconciler
	broadcaster ScoreBroadcaster // 可为 nil
}

// NewEventLedger 创建事件账本
func NewEventLedger(db *sql.DB, locks *MatchLocks, matches *MatchStore, reconciler *ScoreReconciler) *EventLedger {
	return &EventLedger{
		db:         db,
		locks:      locks,
		matches:    matches,
		reconciler: reconciler,
	}
}

// SetBroadcaster 设置比分广播器
func (l *EventLedger) SetBroadcaster(b ScoreBroadcaster) {
	l.broadcaster = b
}

// AppendEventParams 入账参数
// 参与者以内部参与者 ID 给出,入账时解析为阵容条目;
// UUID 为空则自动生成(操作员手工录入),数据源回放带自己的 UUID
type AppendEventParams struct {
	MatchID                int64            `json:"match_id"`
	UUID                   string           `json:"uuid,omitempty"`
	Half                   models.Half      `json:"half"`
	Minute                 int              `json:"minute"`
	Type                   models.EventType `json:"event_type"`
	TeamID                 *int64           `json:"team_id,omitempty"`
	PrimaryParticipantID   *int64           `json:"primary_participant_id,omitempty"`
	SecondaryParticipantID *int64           `json:"secondary_participant_id,omitempty"`
	AssistParticipantID    *int64           `json:"assist_participant_id,omitempty"`
}

// Append 入账一条事件
// 校验顺序:比赛状态 → 阶段/分钟 → 球队归属 →
// 参与者解析(必须落在该场阵容内)→ 类型角色规则表。
// 全部通过后落库并同步重算比分。
func (l *EventLedger) Append(ctx context.Context, params AppendEventParams) (*models.Event, error) {
	unlock := l.locks.Lock(params.MatchID)
	defer unlock()
	return l.appendLocked(ctx, params)
}

// appendLocked 持锁入账,调用方已持有该场比赛的锁
// (同步回放整个过程持锁,逐条调用这里)
func (l *EventLedger) appendLocked(ctx context.Context, params AppendEventParams) (*models.Event, error) {
	eventUUID := params.UUID
	if eventUUID == "" {
		eventUUID = uuid.New().String()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := l.matches.GetForUpdate(tx, params.MatchID)
	if err != nil {
		return nil, err
	}
	if !models.AllowsMutation(match.Status) {
		return nil, common.NewMatchClosedError(string(match.Status))
	}

	// 阶段/分钟先于参与者解析检查,坏分钟不报成员资格错误
	if !models.ValidHalf(params.Half) {
		return nil, common.NewValidationError(
			fmt.Sprintf("invalid half %q (must be 1, 2 or extra)", params.Half))
	}
	if params.Minute < 0 {
		return nil, common.NewValidationError(
			fmt.Sprintf("invalid minute %d (must be >= 0)", params.Minute))
	}

	if params.TeamID != nil && !match.HasTeam(*params.TeamID) {
		return nil, common.NewValidationError(
			fmt.Sprintf("team %d does not play in match %d", *params.TeamID, params.MatchID))
	}

	refs, entryIDs, err := l.resolveRefs(tx, params)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateEvent(params.Type, params.Half, params.Minute, params.TeamID, refs); err != nil {
		return nil, common.WrapValidation(err)
	}

	query := `
		INSERT INTO match_events (uuid, match_id, half, minute, event_type, team_id,
			primary_entry_id, secondary_entry_id, assist_entry_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (uuid) DO NOTHING
		RETURNING ` + database.EventColumns

	row := tx.QueryRow(query,
		eventUUID, params.MatchID, params.Half, params.Minute, params.Type, params.TeamID,
		entryIDs.primary, entryIDs.secondary, entryIDs.assist,
	)
	event, err := database.ScanEvent(row)
	if err == sql.ErrNoRows {
		// 同一 UUID 已入账:幂等回放,返回存量事件,比分无需重算。
		// UUID 属于另一场比赛时不是回放而是键冲突,拒绝。
		existing, err := l.getByUUID(tx, eventUUID)
		if err != nil {
			return nil, err
		}
		if existing.MatchID != params.MatchID {
			return nil, common.NewConflictError(fmt.Sprintf(
				"event uuid %s already belongs to match %d", eventUUID, existing.MatchID))
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	home, away, err := l.reconciler.Reconcile(tx, match)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	logger.Printf("[Ledger] Event %s appended to match %d (%s, score %d-%d)",
		event.Type, params.MatchID, eventUUID, home, away)
	l.broadcast(match, home, away)
	return event, nil
}

// Delete 删除一条事件并重算比分
func (l *EventLedger) Delete(ctx context.Context, eventID int64) error {
	matchID, err := l.eventMatchID(ctx, eventID)
	if err != nil {
		return err
	}

	unlock := l.locks.Lock(matchID)
	defer unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	match, err := l.matches.GetForUpdate(tx, matchID)
	if err != nil {
		return err
	}
	if !models.AllowsMutation(match.Status) {
		return common.NewMatchClosedError(string(match.Status))
	}

	result, err := tx.Exec(`DELETE FROM match_events WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return common.NewNotFoundError("event")
	}

	home, away, err := l.reconciler.Reconcile(tx, match)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	logger.Printf("[Ledger] Event %d deleted from match %d (score %d-%d)", eventID, matchID, home, away)
	l.broadcast(match, home, away)
	return nil
}

// List 获取一场比赛的账本,按 (阶段, 分钟, 入账顺序) 排序
func (l *EventLedger) List(ctx context.Context, matchID int64) ([]*models.Event, error) {
	query := `
		SELECT ` + database.EventColumns + `
		FROM match_events
		WHERE match_id = $1
		ORDER BY CASE half WHEN '1' THEN 1 WHEN '2' THEN 2 ELSE 3 END, minute, id
	`
	rows, err := l.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := database.ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// resolvedEntryIDs 解析后的阵容条目 ID,落库用
type resolvedEntryIDs struct {
	primary   *int64
	secondary *int64
	assist    *int64
}

// resolveRefs 把参与者 ID 解析为该场比赛的阵容条目
// 解析不到即阵容成员资格校验失败
func (l *EventLedger) resolveRefs(tx *sql.Tx, params AppendEventParams) (models.EventRefs, resolvedEntryIDs, error) {
	var refs models.EventRefs
	var ids resolvedEntryIDs

	resolve := func(participantID *int64, name string) (*models.LineupEntry, *int64, error) {
		if participantID == nil {
			return nil, nil, nil
		}
		query := `
			SELECT ` + database.LineupEntryColumns + `
			FROM lineup_entries
			WHERE match_id = $1 AND participant_id = $2
		`
		entry, err := database.ScanLineupEntry(tx.QueryRow(query, params.MatchID, *participantID))
		if err == sql.ErrNoRows {
			return nil, nil, common.NewValidationError(fmt.Sprintf(
				"%s participant %d is not in the lineup of match %d", name, *participantID, params.MatchID))
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %s participant: %w", name, err)
		}
		return entry, &entry.ID, nil
	}

	var err error
	if refs.Primary, ids.primary, err = resolve(params.PrimaryParticipantID, "primary"); err != nil {
		return refs, ids, err
	}
	if refs.Secondary, ids.secondary, err = resolve(params.SecondaryParticipantID, "secondary"); err != nil {
		return refs, ids, err
	}
	if refs.Assist, ids.assist, err = resolve(params.AssistParticipantID, "assist"); err != nil {
		return refs, ids, err
	}
	return refs, ids, nil
}

// getByUUID 按 UUID 取事件
func (l *EventLedger) getByUUID(tx *sql.Tx, eventUUID string) (*models.Event, error) {
	query := `SELECT ` + database.EventColumns + ` FROM match_events WHERE uuid = $1`
	event, err := database.ScanEvent(tx.QueryRow(query, eventUUID))
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", eventUUID, err)
	}
	return event, nil
}

// eventMatchID 查事件所属比赛,用于在开事务前确定加锁范围
func (l *EventLedger) eventMatchID(ctx context.Context, eventID int64) (int64, error) {
	var matchID int64
	err := l.db.QueryRowContext(ctx,
		`SELECT match_id FROM match_events WHERE id = $1`, eventID,
	).Scan(&matchID)
	if err == sql.ErrNoRows {
		return 0, common.NewNotFoundError("event")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve event: %w", err)
	}
	return matchID, nil
}

// broadcast 推送比分变化
func (l *EventLedger) broadcast(match *models.Match, home, away int) {
	if l.broadcaster == nil {
		return
	}
	l.broadcaster.BroadcastScore(ScoreUpdate{
		MatchID:   match.ID,
		HomeScore: home,
		AwayScore: away,
		Status:    match.Status,
	})
}
