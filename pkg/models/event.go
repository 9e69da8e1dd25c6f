package models

import (
	"fmt"
	"sort"
	"time"
)

// Half 比赛阶段
type Half string

const (
	HalfFirst  Half = "1"
	HalfSecond Half = "2"
	HalfExtra  Half = "extra"
)

// ValidHalf 判断比赛阶段是否合法
func ValidHalf(h Half) bool {
	return h == HalfFirst || h == HalfSecond || h == HalfExtra
}

// halfOrder 阶段排序值,用于账本展示排序
func halfOrder(h Half) int {
	switch h {
	case HalfFirst:
		return 1
	case HalfSecond:
		return 2
	default:
		return 3
	}
}

// EventType 事件类型(封闭集合)
type EventType string

const (
	EventTypeGoal          EventType = "goal"
	EventTypeOwnGoal       EventType = "own_goal"
	EventTypePenalty       EventType = "penalty"
	EventTypeMissedPenalty EventType = "missed_penalty"
	EventTypeYellowCard    EventType = "yellow_card"
	EventTypeSecondYellow  EventType = "second_yellow"
	EventTypeRedCard       EventType = "red_card"
	EventTypeSubstitution  EventType = "substitution"
	EventTypeAssist        EventType = "assist"
)

// Event 比赛事件
// primary/secondary/assist 存的是阵容条目 ID(非参与者 ID),
// 入账时已解析,保证引用一定落在该场比赛的阵容内。
// secondary 仅换人使用(上场球员),assist 仅进球使用。
type Event struct {
	ID               int64     `json:"id"`
	UUID             string    `json:"uuid"`
	MatchID          int64     `json:"match_id"`
	Half             Half      `json:"half"`
	Minute           int       `json:"minute"`
	Type             EventType `json:"event_type"`
	TeamID           *int64    `json:"team_id,omitempty"`
	PrimaryEntryID   *int64    `json:"primary_entry_id,omitempty"`
	SecondaryEntryID *int64    `json:"secondary_entry_id,omitempty"`
	AssistEntryID    *int64    `json:"assist_entry_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// refConstraint 对单个参与者引用的约束
type refConstraint int

const (
	refForbidden refConstraint = iota // 该事件类型不允许此引用
	refOptional                       // 可选,出现时须属于事件球队
	refRequired                       // 必填,须属于事件球队
)

// scoreEffect 事件对比分的影响
type scoreEffect int

const (
	scoreNone     scoreEffect = iota // 不影响比分
	scoreOwnTeam                     // 事件归属球队 +1
	scoreOpponent                    // 对方球队 +1(乌龙球)
)

// participantRule 事件类型 → 参与者角色约束的查找表项
// 规则以数据而非分支表达,新增事件类型只需加一条表项
type participantRule struct {
	needsTeam     bool
	primary       refConstraint
	primaryRole   LineupRole // 为空则不限制首发/替补
	secondary     refConstraint
	secondaryRole LineupRole
	assist        refConstraint
	effect        scoreEffect
}

// participantRules 全部事件类型的约束表
// 乌龙球:事件的 team 字段是进乌龙的球员所在队,比分记给对方;
// 因此 primary 仍须属于事件球队本身。
var participantRules = map[EventType]participantRule{
	EventTypeGoal: {
		needsTeam: true,
		primary:   refOptional,
		assist:    refOptional,
		effect:    scoreOwnTeam,
	},
	EventTypeOwnGoal: {
		needsTeam: true,
		primary:   refOptional,
		effect:    scoreOpponent,
	},
	EventTypePenalty: {
		needsTeam: true,
		primary:   refOptional,
		effect:    scoreOwnTeam,
	},
	EventTypeMissedPenalty: {
		needsTeam: true,
		primary:   refOptional,
	},
	EventTypeYellowCard: {
		needsTeam: true,
		primary:   refOptional,
	},
	EventTypeSecondYellow: {
		needsTeam: true,
		primary:   refOptional,
	},
	EventTypeRedCard: {
		needsTeam: true,
		primary:   refOptional,
	},
	EventTypeSubstitution: {
		needsTeam:     true,
		primary:       refRequired,
		primaryRole:   LineupRoleStarter,
		secondary:     refRequired,
		secondaryRole: LineupRoleSubstitute,
	},
	EventTypeAssist: {
		needsTeam: true,
		primary:   refOptional,
	},
}

// ValidEventType 判断事件类型是否属于封闭集合
func ValidEventType(t EventType) bool {
	_, ok := participantRules[t]
	return ok
}

// ScoreAffecting 判断事件类型是否影响比分
func ScoreAffecting(t EventType) bool {
	return participantRules[t].effect != scoreNone
}

// ScoreAffectingTypes 返回影响比分的事件类型集合(稳定排序)
func ScoreAffectingTypes() []EventType {
	var types []EventType
	for t, rule := range participantRules {
		if rule.effect != scoreNone {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// EventRefs 事件引用的阵容条目(已由调用方解析)
type EventRefs struct {
	Primary   *LineupEntry
	Secondary *LineupEntry
	Assist    *LineupEntry
}

// ValidateEvent 校验事件的基础字段和参与者角色约束
// 按顺序检查:阶段/分钟 → 类型 → 球队 → 按表校验各引用。
// 引用未解析到阵容(refs 中为 nil 但调用方收到了参与者 ID)
// 属于阵容成员资格错误,由调用方在解析阶段报错。
func ValidateEvent(t EventType, half Half, minute int, teamID *int64, refs EventRefs) error {
	if !ValidHalf(half) {
		return fmt.Errorf("invalid half %q (must be 1, 2 or extra)", half)
	}
	if minute < 0 {
		return fmt.Errorf("invalid minute %d (must be >= 0)", minute)
	}
	rule, ok := participantRules[t]
	if !ok {
		return fmt.Errorf("unknown event type %q", t)
	}
	if rule.needsTeam && teamID == nil {
		return fmt.Errorf("event type %q requires a team", t)
	}

	if err := checkRef(t, "primary", rule.primary, rule.primaryRole, teamID, refs.Primary); err != nil {
		return err
	}
	if err := checkRef(t, "secondary", rule.secondary, rule.secondaryRole, teamID, refs.Secondary); err != nil {
		return err
	}
	if err := checkRef(t, "assist", rule.assist, "", teamID, refs.Assist); err != nil {
		return err
	}
	return nil
}

// checkRef 按表项校验单个参与者引用
func checkRef(t EventType, name string, c refConstraint, role LineupRole, teamID *int64, entry *LineupEntry) error {
	switch c {
	case refForbidden:
		if entry != nil {
			return fmt.Errorf("event type %q does not accept a %s participant", t, name)
		}
		return nil
	case refRequired:
		if entry == nil {
			return fmt.Errorf("event type %q requires a %s participant", t, name)
		}
	case refOptional:
		if entry == nil {
			return nil
		}
	}
	if teamID != nil && entry.TeamID != *teamID {
		return fmt.Errorf("%s participant %d does not belong to team %d", name, entry.ParticipantID, *teamID)
	}
	if role != "" && entry.Role != role {
		return fmt.Errorf("%s participant %d must be a %s (is %s)", name, entry.ParticipantID, role, entry.Role)
	}
	return nil
}

// ComputeScore 从事件账本折叠计算比分
// 纯函数:对事件顺序不敏感,重复计算结果一致。
// goal/penalty 计给事件归属球队,own_goal 计给对方,
// 其余类型不计分。球队不属于该比赛的事件跳过不计。
func ComputeScore(events []Event, homeTeamID, awayTeamID int64) (home, away int) {
	for _, e := range events {
		rule := participantRules[e.Type]
		if rule.effect == scoreNone || e.TeamID == nil {
			continue
		}
		credited := *e.TeamID
		if rule.effect == scoreOpponent {
			switch *e.TeamID {
			case homeTeamID:
				credited = awayTeamID
			case awayTeamID:
				credited = homeTeamID
			default:
				continue
			}
		}
		switch credited {
		case homeTeamID:
			home++
		case awayTeamID:
			away++
		}
	}
	return home, away
}

// SortEventsForDisplay 按 (阶段, 分钟, 入账顺序) 排序
// 该顺序只用于展示,比分计算与顺序无关
func SortEventsForDisplay(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if halfOrder(a.Half) != halfOrder(b.Half) {
			return halfOrder(a.Half) < halfOrder(b.Half)
		}
		if a.Minute != b.Minute {
			return a.Minute < b.Minute
		}
		return a.ID < b.ID
	})
}
