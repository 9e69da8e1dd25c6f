package models

import "testing"

func entry(id, team int64, role LineupRole) *LineupEntry {
	return &LineupEntry{ID: id, MatchID: 1, TeamID: team, ParticipantID: id + 100, Role: role}
}

func TestValidateEventBasics(t *testing.T) {
	team := int64(10)

	if err := ValidateEvent(EventTypeGoal, "3", 10, &team, EventRefs{}); err == nil {
		t.Error("Expected error for invalid half")
	}
	if err := ValidateEvent(EventTypeGoal, HalfFirst, -1, &team, EventRefs{}); err == nil {
		t.Error("Expected error for negative minute")
	}
	if err := ValidateEvent("throw_in", HalfFirst, 10, &team, EventRefs{}); err == nil {
		t.Error("Expected error for unknown event type")
	}
	if err := ValidateEvent(EventTypeGoal, HalfFirst, 10, nil, EventRefs{}); err == nil {
		t.Error("Expected error for goal without team")
	}
	if err := ValidateEvent(EventTypeGoal, HalfExtra, 120, &team, EventRefs{}); err != nil {
		t.Errorf("Expected extra-time goal to validate, got %v", err)
	}
}

func TestValidateEventGoal(t *testing.T) {
	team := int64(10)
	scorer := entry(1, 10, LineupRoleStarter)
	assister := entry(2, 10, LineupRoleSubstitute)

	err := ValidateEvent(EventTypeGoal, HalfFirst, 10, &team, EventRefs{Primary: scorer, Assist: assister})
	if err != nil {
		t.Errorf("Expected goal with assist to validate, got %v", err)
	}

	// 进球球员必须属于事件归属球队
	wrongTeam := entry(3, 20, LineupRoleStarter)
	err = ValidateEvent(EventTypeGoal, HalfFirst, 10, &team, EventRefs{Primary: wrongTeam})
	if err == nil {
		t.Error("Expected error for scorer on the wrong team")
	}

	// 进球事件不接受 secondary
	err = ValidateEvent(EventTypeGoal, HalfFirst, 10, &team, EventRefs{Primary: scorer, Secondary: assister})
	if err == nil {
		t.Error("Expected error for goal with secondary participant")
	}
}

func TestValidateEventOwnGoal(t *testing.T) {
	// 乌龙:事件球队是进乌龙的一方,球员属于该队
	team := int64(10)
	scorer := entry(1, 10, LineupRoleStarter)

	if err := ValidateEvent(EventTypeOwnGoal, HalfSecond, 55, &team, EventRefs{Primary: scorer}); err != nil {
		t.Errorf("Expected own goal to validate, got %v", err)
	}

	opponent := entry(2, 20, LineupRoleStarter)
	if err := ValidateEvent(EventTypeOwnGoal, HalfSecond, 55, &team, EventRefs{Primary: opponent}); err == nil {
		t.Error("Expected error for own-goal scorer on the opposing team")
	}

	// 乌龙不接受 assist
	if err := ValidateEvent(EventTypeOwnGoal, HalfSecond, 55, &team, EventRefs{Primary: scorer, Assist: scorer}); err == nil {
		t.Error("Expected error for own goal with assist")
	}
}

func TestValidateEventSubstitution(t *testing.T) {
	team := int64(10)
	starter := entry(1, 10, LineupRoleStarter)
	sub := entry(2, 10, LineupRoleSubstitute)

	err := ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Primary: starter, Secondary: sub})
	if err != nil {
		t.Errorf("Expected substitution to validate, got %v", err)
	}

	// primary 必须是首发
	err = ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Primary: sub, Secondary: sub})
	if err == nil {
		t.Error("Expected error for substitution with substitute going off")
	}

	// secondary 必须是替补
	err = ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Primary: starter, Secondary: starter})
	if err == nil {
		t.Error("Expected error for substitution with starter coming on")
	}

	// 两名球员必须同队
	otherTeamSub := entry(3, 20, LineupRoleSubstitute)
	err = ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Primary: starter, Secondary: otherTeamSub})
	if err == nil {
		t.Error("Expected error for cross-team substitution")
	}

	// 两个引用都是必填
	err = ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Primary: starter})
	if err == nil {
		t.Error("Expected error for substitution without incoming player")
	}
	err = ValidateEvent(EventTypeSubstitution, HalfSecond, 60, &team, EventRefs{Secondary: sub})
	if err == nil {
		t.Error("Expected error for substitution without outgoing player")
	}
}

func TestValidateEventCards(t *testing.T) {
	team := int64(10)
	player := entry(1, 10, LineupRoleSubstitute)

	// 卡牌事件球员可选,替补也可以吃牌
	for _, typ := range []EventType{EventTypeYellowCard, EventTypeSecondYellow, EventTypeRedCard} {
		if err := ValidateEvent(typ, HalfSecond, 88, &team, EventRefs{Primary: player}); err != nil {
			t.Errorf("Expected %s to validate, got %v", typ, err)
		}
		if err := ValidateEvent(typ, HalfSecond, 88, &team, EventRefs{}); err != nil {
			t.Errorf("Expected %s without participant to validate, got %v", typ, err)
		}
	}
}

func TestValidEventType(t *testing.T) {
	for _, typ := range []EventType{
		EventTypeGoal, EventTypeOwnGoal, EventTypePenalty, EventTypeMissedPenalty,
		EventTypeYellowCard, EventTypeSecondYellow, EventTypeRedCard,
		EventTypeSubstitution, EventTypeAssist,
	} {
		if !ValidEventType(typ) {
			t.Errorf("Expected %q to be a valid event type", typ)
		}
	}
	if ValidEventType("corner") {
		t.Error("corner must not be a valid event type")
	}
}

func TestSortEventsForDisplay(t *testing.T) {
	events := []Event{
		{ID: 4, Half: HalfExtra, Minute: 95},
		{ID: 3, Half: HalfSecond, Minute: 50},
		{ID: 2, Half: HalfFirst, Minute: 30},
		{ID: 1, Half: HalfFirst, Minute: 30},
		{ID: 5, Half: HalfFirst, Minute: 5},
	}

	SortEventsForDisplay(events)

	wantOrder := []int64{5, 1, 2, 3, 4}
	for i, want := range wantOrder {
		if events[i].ID != want {
			t.Fatalf("Position %d: expected event %d, got %d", i, want, events[i].ID)
		}
	}
}
