package models

import "testing"

const (
	teamA int64 = 10
	teamB int64 = 20
)

func evt(id int64, t EventType, team int64) Event {
	return Event{ID: id, Type: t, TeamID: &team}
}

func TestComputeScoreEmptyLedger(t *testing.T) {
	home, away := ComputeScore(nil, teamA, teamB)

	if home != 0 || away != 0 {
		t.Errorf("Expected (0,0) for empty ledger, got (%d,%d)", home, away)
	}
}

func TestComputeScoreGoalAndOwnGoal(t *testing.T) {
	// A队10分钟进球 → (1,0);A队球员20分钟乌龙 → 对方得分 (1,1)
	events := []Event{
		evt(1, EventTypeGoal, teamA),
		evt(2, EventTypeOwnGoal, teamA),
	}

	home, away := ComputeScore(events, teamA, teamB)
	if home != 1 || away != 1 {
		t.Errorf("Expected (1,1), got (%d,%d)", home, away)
	}

	// 删除乌龙事件后重算应回到 (1,0)
	home, away = ComputeScore(events[:1], teamA, teamB)
	if home != 1 || away != 0 {
		t.Errorf("Expected (1,0) after removing own goal, got (%d,%d)", home, away)
	}
}

func TestComputeScorePenalty(t *testing.T) {
	events := []Event{
		evt(1, EventTypePenalty, teamB),
		evt(2, EventTypePenalty, teamB),
	}

	home, away := ComputeScore(events, teamA, teamB)
	if home != 0 || away != 2 {
		t.Errorf("Expected (0,2), got (%d,%d)", home, away)
	}
}

func TestComputeScoreIgnoresNonScoringTypes(t *testing.T) {
	events := []Event{
		evt(1, EventTypeMissedPenalty, teamA),
		evt(2, EventTypeYellowCard, teamA),
		evt(3, EventTypeSecondYellow, teamB),
		evt(4, EventTypeRedCard, teamB),
		evt(5, EventTypeSubstitution, teamA),
		evt(6, EventTypeAssist, teamA),
	}

	home, away := ComputeScore(events, teamA, teamB)
	if home != 0 || away != 0 {
		t.Errorf("Expected (0,0), got (%d,%d)", home, away)
	}
}

func TestComputeScoreOrderIndependent(t *testing.T) {
	events := []Event{
		evt(1, EventTypeGoal, teamA),
		evt(2, EventTypeOwnGoal, teamB),
		evt(3, EventTypePenalty, teamB),
		evt(4, EventTypeGoal, teamB),
	}
	reversed := []Event{events[3], events[2], events[1], events[0]}

	h1, a1 := ComputeScore(events, teamA, teamB)
	h2, a2 := ComputeScore(reversed, teamA, teamB)

	if h1 != h2 || a1 != a2 {
		t.Errorf("Score depends on event order: (%d,%d) vs (%d,%d)", h1, a1, h2, a2)
	}
	if h1 != 2 || a1 != 2 {
		t.Errorf("Expected (2,2), got (%d,%d)", h1, a1)
	}
}

func TestComputeScoreIdempotent(t *testing.T) {
	events := []Event{
		evt(1, EventTypeGoal, teamA),
		evt(2, EventTypeOwnGoal, teamA),
		evt(3, EventTypePenalty, teamB),
	}

	h1, a1 := ComputeScore(events, teamA, teamB)
	for i := 0; i < 5; i++ {
		h, a := ComputeScore(events, teamA, teamB)
		if h != h1 || a != a1 {
			t.Fatalf("Recomputation %d changed score: (%d,%d) vs (%d,%d)", i, h, a, h1, a1)
		}
	}
}

func TestComputeScoreSkipsForeignTeams(t *testing.T) {
	foreign := int64(999)
	events := []Event{
		evt(1, EventTypeGoal, foreign),
		evt(2, EventTypeOwnGoal, foreign),
		evt(3, EventTypeGoal, teamA),
	}

	home, away := ComputeScore(events, teamA, teamB)
	if home != 1 || away != 0 {
		t.Errorf("Expected (1,0) with foreign-team events skipped, got (%d,%d)", home, away)
	}
}

func TestComputeScoreSkipsNilTeam(t *testing.T) {
	events := []Event{
		{ID: 1, Type: EventTypeGoal, TeamID: nil},
	}

	home, away := ComputeScore(events, teamA, teamB)
	if home != 0 || away != 0 {
		t.Errorf("Expected (0,0) with team-less event skipped, got (%d,%d)", home, away)
	}
}

func TestScoreAffectingTypes(t *testing.T) {
	types := ScoreAffectingTypes()

	if len(types) != 3 {
		t.Fatalf("Expected 3 score-affecting types, got %d: %v", len(types), types)
	}

	want := map[EventType]bool{
		EventTypeGoal:    true,
		EventTypeOwnGoal: true,
		EventTypePenalty: true,
	}
	for _, typ := range types {
		if !want[typ] {
			t.Errorf("Unexpected score-affecting type %q", typ)
		}
	}

	if ScoreAffecting(EventTypeMissedPenalty) {
		t.Error("missed_penalty must not affect the score")
	}
	if !ScoreAffecting(EventTypeOwnGoal) {
		t.Error("own_goal must affect the score")
	}
}
