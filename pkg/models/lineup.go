package models

import "time"

// LineupRole 阵容角色
type LineupRole string

const (
	LineupRoleStarter    LineupRole = "starter"
	LineupRoleSubstitute LineupRole = "substitute"
)

// ValidLineupRole 判断阵容角色是否合法
func ValidLineupRole(r LineupRole) bool {
	return r == LineupRoleStarter || r == LineupRoleSubstitute
}

// LineupEntry 阵容条目
// 约束:一名参与者在一场比赛中最多出现一次;每队每场最多一名队长
type LineupEntry struct {
	ID            int64      `json:"id"`
	MatchID       int64      `json:"match_id"`
	TeamID        int64      `json:"team_id"`
	ParticipantID int64      `json:"participant_id"`
	Role          LineupRole `json:"role"`
	ShirtNumber   *int       `json:"shirt_number,omitempty"`
	Position      *string    `json:"position,omitempty"`
	IsCaptain     bool       `json:"is_captain"`
	CreatedAt     time.Time  `json:"created_at"`
}
