package services

import (
	"context"
	"fmt"
	"time"

	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// SyncAdapter 外部数据源同步适配器
// 拉取数据源快照后,先回放阵容再回放事件,全部走与操作员
// 相同的登记表/账本入口,不存在绕过校验的特权通道。
// 事件按 UUID 幂等:一次中断的回放重跑即可补齐,不会产生
// 半套账本(先阵容后事件也保证不会出现悬挂引用)。
// 整个回放持有该场比赛的锁,操作员编辑与回放串行,
// 不会插进同一次回放的两行之间。
type SyncAdapter struct {
	provider FeedProvider
	lineup   LineupWriter
	events   EventWriter
	locks    *MatchLocks
	runs     *SyncRunStore
}

// NewSyncAdapter 创建同步适配器
func NewSyncAdapter(provider FeedProvider, lineup LineupWriter, events EventWriter, locks *MatchLocks, runs *SyncRunStore) *SyncAdapter {
	return &SyncAdapter{
		provider: provider,
		lineup:   lineup,
		events:   events,
		locks:    locks,
		runs:     runs,
	}
}

// SyncResult 一次同步回放的结果
type SyncResult struct {
	MatchID       int64 `json:"match_id"`
	LineupApplied int   `json:"lineup_applied"`
	EventsApplied int   `json:"events_applied"`
	RowsSkipped   int   `json:"rows_skipped"`
}

// RunPass 执行一次同步:拉取快照并回放
// 拉取超时/失败时什么都不落库,由调度器带退避重试;
// 回放期间 ctx 取消会中止本次回放,已提交的事件保留(只进不退)
func (a *SyncAdapter) RunPass(ctx context.Context, match *models.Match) (*SyncResult, error) {
	started := time.Now()

	snapshot, err := a.provider.FetchMatchFeed(ctx, match.ID)
	if err != nil {
		a.record(match.ID, nil, started, err)
		return nil, err
	}

	result, err := a.Apply(ctx, match, snapshot)
	a.record(match.ID, result, started, err)
	return result, err
}

// Apply 回放一份快照
// 阵容先行,事件才能解析到条目;数据源里违反本地不变量的行
// (重复、角色不符)记为跳过并告警,不中止整次回放
func (a *SyncAdapter) Apply(ctx context.Context, match *models.Match, snapshot *FeedSnapshot) (*SyncResult, error) {
	result := &SyncResult{MatchID: match.ID}

	// 回放全程持锁,逐行走持锁入口
	unlock := a.locks.Lock(match.ID)
	defer unlock()

	rostered, err := a.rosteredParticipants(ctx, match.ID)
	if err != nil {
		return result, err
	}

	for _, row := range snapshot.Lineup {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sync pass cancelled: %w", err)
		}
		if rostered[row.ParticipantID] {
			continue
		}
		_, err := a.lineup.addEntryLocked(ctx, AddLineupParams{
			MatchID:       match.ID,
			TeamID:        row.TeamID,
			ParticipantID: row.ParticipantID,
			Role:          row.Role,
			ShirtNumber:   row.ShirtNumber,
			Position:      row.Position,
			IsCaptain:     row.IsCaptain,
		})
		if err != nil {
			if common.IsCode(err, common.CodeValidation) {
				logger.Errorf("[Sync] ⚠️  Skipping lineup row (match %d, participant %d): %v",
					match.ID, row.ParticipantID, err)
				result.RowsSkipped++
				continue
			}
			return result, err
		}
		rostered[row.ParticipantID] = true
		result.LineupApplied++
	}

	for _, row := range snapshot.Events {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("sync pass cancelled: %w", err)
		}
		if row.UUID == "" {
			logger.Errorf("[Sync] ⚠️  Skipping feed event without uuid (match %d)", match.ID)
			result.RowsSkipped++
			continue
		}
		_, err := a.events.appendLocked(ctx, AppendEventParams{
			MatchID:                match.ID,
			UUID:                   row.UUID,
			Half:                   row.Half,
			Minute:                 row.Minute,
			Type:                   row.Type,
			TeamID:                 row.TeamID,
			PrimaryParticipantID:   row.PrimaryParticipantID,
			SecondaryParticipantID: row.SecondaryParticipantID,
			AssistParticipantID:    row.AssistParticipantID,
		})
		if err != nil {
			if common.IsCode(err, common.CodeValidation) {
				logger.Errorf("[Sync] ⚠️  Skipping feed event %s (match %d): %v", row.UUID, match.ID, err)
				result.RowsSkipped++
				continue
			}
			return result, err
		}
		result.EventsApplied++
	}

	logger.Printf("[Sync] ✅ Match %d: %d lineup rows, %d events applied, %d skipped",
		match.ID, result.LineupApplied, result.EventsApplied, result.RowsSkipped)
	return result, nil
}

// rosteredParticipants 现有阵容的参与者集合,避免逐行撞重复校验
func (a *SyncAdapter) rosteredParticipants(ctx context.Context, matchID int64) (map[int64]bool, error) {
	entries, err := a.lineup.List(ctx, matchID, nil)
	if err != nil {
		return nil, err
	}
	rostered := make(map[int64]bool, len(entries))
	for _, e := range entries {
		rostered[e.ParticipantID] = true
	}
	return rostered, nil
}

// record 落同步审计,失败只告警不影响主流程
func (a *SyncAdapter) record(matchID int64, result *SyncResult, started time.Time, passErr error) {
	if a.runs == nil {
		return
	}

	run := &SyncRun{
		MatchID:   matchID,
		Status:    SyncRunStatusCompleted,
		StartedAt: started,
	}
	finished := time.Now()
	run.FinishedAt = &finished
	if result != nil {
		run.LineupApplied = result.LineupApplied
		run.EventsApplied = result.EventsApplied
		run.RowsSkipped = result.RowsSkipped
	}
	if passErr != nil {
		run.Status = SyncRunStatusFailed
		msg := passErr.Error()
		run.Error = &msg
	}

	// 审计落库不依赖触发同步的上下文(可能已取消)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.runs.Record(ctx, run); err != nil {
		logger.Errorf("[Sync] Failed to record sync run: %v", err)
	}
}
