package models

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to MatchStatus
	}{
		{MatchStatusCreated, MatchStatusLive},
		{MatchStatusCreated, MatchStatusPostponed},
		{MatchStatusCreated, MatchStatusCancelled},
		{MatchStatusCreated, MatchStatusTechnicalDefeat},
		{MatchStatusLive, MatchStatusFinished},
		{MatchStatusLive, MatchStatusCancelled},
		{MatchStatusLive, MatchStatusTechnicalDefeat},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s → %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to MatchStatus
	}{
		{MatchStatusCreated, MatchStatusFinished},
		{MatchStatusFinished, MatchStatusLive},
		{MatchStatusFinished, MatchStatusCreated},
		{MatchStatusCancelled, MatchStatusLive},
		{MatchStatusTechnicalDefeat, MatchStatusFinished},
		{MatchStatusLive, MatchStatusCreated},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("Expected %s → %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestAllowsMutation(t *testing.T) {
	if !AllowsMutation(MatchStatusCreated) {
		t.Error("Expected mutations to be allowed in created")
	}
	if !AllowsMutation(MatchStatusLive) {
		t.Error("Expected mutations to be allowed in live")
	}

	for _, s := range []MatchStatus{
		MatchStatusFinished, MatchStatusPostponed,
		MatchStatusCancelled, MatchStatusTechnicalDefeat,
	} {
		if AllowsMutation(s) {
			t.Errorf("Expected mutations to be rejected in %s", s)
		}
	}
}

func TestValidMatchStatus(t *testing.T) {
	if !ValidMatchStatus(MatchStatusTechnicalDefeat) {
		t.Error("technical_defeat must be a valid status")
	}
	if ValidMatchStatus("suspended") {
		t.Error("suspended must not be a valid status")
	}
}

func TestMatchTeamHelpers(t *testing.T) {
	m := &Match{ID: 1, HomeTeamID: 10, AwayTeamID: 20}

	if !m.HasTeam(10) || !m.HasTeam(20) {
		t.Error("Expected both rostered teams to be recognized")
	}
	if m.HasTeam(30) {
		t.Error("Expected foreign team to be rejected")
	}

	if got := m.OpposingTeam(10); got != 20 {
		t.Errorf("Expected opposing team 20, got %d", got)
	}
	if got := m.OpposingTeam(20); got != 10 {
		t.Errorf("Expected opposing team 10, got %d", got)
	}
	if got := m.OpposingTeam(30); got != 0 {
		t.Errorf("Expected 0 for foreign team, got %d", got)
	}
}
