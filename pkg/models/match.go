package models

import "time"

// MatchStatus 比赛生命周期状态
type MatchStatus string

const (
	MatchStatusCreated         MatchStatus = "created"
	MatchStatusLive            MatchStatus = "live"
	MatchStatusFinished        MatchStatus = "finished"
	MatchStatusPostponed       MatchStatus = "postponed"
	MatchStatusCancelled       MatchStatus = "cancelled"
	MatchStatusTechnicalDefeat MatchStatus = "technical_defeat"
)

// Match 比赛
// 比分字段是事件账本的派生值,由对账引擎写入
// (账本中无计分事件时允许人工编辑,见 match_store)
type Match struct {
	ID               int64       `json:"id"`
	ExternalRef      *string     `json:"external_ref,omitempty"`
	ScheduledAt      time.Time   `json:"scheduled_at"`
	HomeTeamID       int64       `json:"home_team_id"`
	AwayTeamID       int64       `json:"away_team_id"`
	Status           MatchStatus `json:"status"`
	HomeScore        int         `json:"home_score"`
	AwayScore        int         `json:"away_score"`
	HomePenaltyScore *int        `json:"home_penalty_score,omitempty"`
	AwayPenaltyScore *int        `json:"away_penalty_score,omitempty"`
	SyncEnabled      bool        `json:"sync_enabled"`
	Version          int         `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// HasTeam 判断球队是否属于该场比赛
func (m *Match) HasTeam(teamID int64) bool {
	return teamID == m.HomeTeamID || teamID == m.AwayTeamID
}

// OpposingTeam 返回对方球队 ID,teamID 不属于该比赛时返回 0
func (m *Match) OpposingTeam(teamID int64) int64 {
	switch teamID {
	case m.HomeTeamID:
		return m.AwayTeamID
	case m.AwayTeamID:
		return m.HomeTeamID
	}
	return 0
}

// ValidMatchStatus 判断状态值是否合法
func ValidMatchStatus(s MatchStatus) bool {
	switch s {
	case MatchStatusCreated, MatchStatusLive, MatchStatusFinished,
		MatchStatusPostponed, MatchStatusCancelled, MatchStatusTechnicalDefeat:
		return true
	}
	return false
}

// statusTransitions 状态机转移表
// created → live → finished;postponed/cancelled/technical_defeat
// 可从 created 或 live 到达。重置回 created 是独立操作(ResetStatus),
// 不走该表,任何状态均允许。
var statusTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusCreated: {
		MatchStatusLive,
		MatchStatusPostponed,
		MatchStatusCancelled,
		MatchStatusTechnicalDefeat,
	},
	MatchStatusLive: {
		MatchStatusFinished,
		MatchStatusPostponed,
		MatchStatusCancelled,
		MatchStatusTechnicalDefeat,
	},
	MatchStatusFinished:        {},
	MatchStatusPostponed:       {},
	MatchStatusCancelled:       {},
	MatchStatusTechnicalDefeat: {},
}

// CanTransition 判断状态转移是否合法
func CanTransition(from, to MatchStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowsMutation 判断当前状态下是否允许修改账本和阵容
// 已结算的比赛禁止改动,需要先重置状态再编辑
func AllowsMutation(s MatchStatus) bool {
	return s == MatchStatusCreated || s == MatchStatusLive
}
