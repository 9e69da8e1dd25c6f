package models

import "time"

// RefereeRole 裁判职务(固定枚举)
type RefereeRole string

const (
	RefereeRoleMain           RefereeRole = "main"
	RefereeRoleAssistant1     RefereeRole = "assistant_1"
	RefereeRoleAssistant2     RefereeRole = "assistant_2"
	RefereeRoleFourthOfficial RefereeRole = "fourth_official"
	RefereeRoleVARMain        RefereeRole = "var_main"
	RefereeRoleVARAssistant   RefereeRole = "var_assistant"
	RefereeRoleInspector      RefereeRole = "inspector"
)

// ValidRefereeRole 判断裁判职务是否合法
func ValidRefereeRole(r RefereeRole) bool {
	switch r {
	case RefereeRoleMain, RefereeRoleAssistant1, RefereeRoleAssistant2,
		RefereeRoleFourthOfficial, RefereeRoleVARMain, RefereeRoleVARAssistant,
		RefereeRoleInspector:
		return true
	}
	return false
}

// RefereeAssignment 裁判委派
// 约束:同一裁判在一场比赛中每个职务最多委派一次
type RefereeAssignment struct {
	ID        int64       `json:"id"`
	MatchID   int64       `json:"match_id"`
	RefereeID int64       `json:"referee_id"`
	Role      RefereeRole `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}
