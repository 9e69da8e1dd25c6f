package services

import (
	"context"

	"matchops-service/pkg/models"
)

// FeedProvider 外部数据源接口
// 数据源侧的球队/参与者标识在到达这里之前已由协作方解析为内部 ID
type FeedProvider interface {
	// FetchMatchFeed 拉取一场比赛的阵容和事件快照
	FetchMatchFeed(ctx context.Context, matchID int64) (*FeedSnapshot, error)
}

// ParticipantDirectory 花名册协作方接口
// 只用于校验阵容新增,参与者身份不归本服务管理
type ParticipantDirectory interface {
	// IsEligible 判断参与者是否在该队的合格名单内
	IsEligible(ctx context.Context, teamID, participantID int64) (bool, error)
}

// LineupWriter 阵容写入口
// 同步适配器通过与操作员相同的入口回放数据,不绕过任何校验。
// 持锁变体供回放使用:适配器在整个回放期间持有该场比赛的锁,
// 操作员编辑不能插进同一次回放的两行之间
type LineupWriter interface {
	AddEntry(ctx context.Context, params AddLineupParams) (*models.LineupEntry, error)
	addEntryLocked(ctx context.Context, params AddLineupParams) (*models.LineupEntry, error)
	List(ctx context.Context, matchID int64, teamID *int64) ([]*models.LineupEntry, error)
}

// EventWriter 事件账本写入口
type EventWriter interface {
	Append(ctx context.Context, params AppendEventParams) (*models.Event, error)
	appendLocked(ctx context.Context, params AppendEventParams) (*models.Event, error)
}

// ScoreBroadcaster 比分变化广播接口,避免与 web 包循环依赖
type ScoreBroadcaster interface {
	BroadcastScore(update ScoreUpdate)
}

// ScoreUpdate 广播给前端的比分变化
type ScoreUpdate struct {
	MatchID   int64              `json:"match_id"`
	HomeScore int                `json:"home_score"`
	AwayScore int                `json:"away_score"`
	Status    models.MatchStatus `json:"status"`
}

// FeedSnapshot 数据源一次快照:阵容 + 事件
// 拉模式的响应体和推模式的消息体共用这一形状
type FeedSnapshot struct {
	MatchID int64             `json:"match_id"`
	Status  string            `json:"status"`
	Lineup  []FeedLineupEntry `json:"lineup"`
	Events  []FeedEvent       `json:"events"`
}

// FeedLineupEntry 数据源阵容行
type FeedLineupEntry struct {
	TeamID        int64             `json:"team_id"`
	ParticipantID int64             `json:"participant_id"`
	Role          models.LineupRole `json:"role"`
	ShirtNumber   *int              `json:"shirt_number,omitempty"`
	Position      *string           `json:"position,omitempty"`
	IsCaptain     bool              `json:"is_captain,omitempty"`
}

// FeedEvent 数据源事件行
// UUID 由数据源提供,是跨回放去重的键
type FeedEvent struct {
	UUID                   string           `json:"uuid"`
	Half                   models.Half      `json:"half"`
	Minute                 int              `json:"minute"`
	Type                   models.EventType `json:"event_type"`
	TeamID                 *int64           `json:"team_id,omitempty"`
	PrimaryParticipantID   *int64           `json:"primary_participant_id,omitempty"`
	SecondaryParticipantID *int64           `json:"secondary_participant_id,omitempty"`
	AssistParticipantID    *int64           `json:"assist_participant_id,omitempty"`
}
