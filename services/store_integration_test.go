package services

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"matchops-service/database"
	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
)

// 需要真实 Postgres 的存储层测试,未配置 TEST_DATABASE_URL 时跳过
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStores(t *testing.T) (*MatchStore, *LineupRegistry, *EventLedger) {
	t.Helper()
	db := openTestDB(t)
	locks := NewMatchLocks()
	matches := NewMatchStore(db, locks)
	lineup := NewLineupRegistry(db, locks, matches, nil)
	ledger := NewEventLedger(db, locks, matches, NewScoreReconciler())
	return matches, lineup, ledger
}

func createTestMatch(t *testing.T, matches *MatchStore, syncEnabled bool) *models.Match {
	t.Helper()
	match, err := matches.Create(context.Background(), CreateMatchParams{
		ScheduledAt: time.Now(),
		HomeTeamID:  10,
		AwayTeamID:  20,
		SyncEnabled: syncEnabled,
	})
	if err != nil {
		t.Fatalf("Failed to create match: %v", err)
	}
	return match
}

func finishTestMatch(t *testing.T, matches *MatchStore, matchID int64) {
	t.Helper()
	ctx := context.Background()
	live := models.MatchStatusLive
	if _, err := matches.Patch(ctx, matchID, MatchPatch{Status: &live}); err != nil {
		t.Fatalf("Failed to set match live: %v", err)
	}
	finished := models.MatchStatusFinished
	if _, err := matches.Patch(ctx, matchID, MatchPatch{Status: &finished}); err != nil {
		t.Fatalf("Failed to finish match: %v", err)
	}
}

func TestLineupRemoveBlockedByEvent(t *testing.T) {
	matches, lineup, ledger := newTestStores(t)
	ctx := context.Background()
	match := createTestMatch(t, matches, false)

	entry, err := lineup.AddEntry(ctx, AddLineupParams{
		MatchID:       match.ID,
		TeamID:        match.HomeTeamID,
		ParticipantID: 101,
		Role:          models.LineupRoleStarter,
	})
	if err != nil {
		t.Fatalf("Failed to add lineup entry: %v", err)
	}

	event, err := ledger.Append(ctx, AppendEventParams{
		MatchID:              match.ID,
		Half:                 models.HalfFirst,
		Minute:               10,
		Type:                 models.EventTypeGoal,
		TeamID:               &match.HomeTeamID,
		PrimaryParticipantID: &entry.ParticipantID,
	})
	if err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	// 被事件引用的条目不能删
	err = lineup.RemoveEntry(ctx, entry.ID)
	if !common.IsCode(err, common.CodeReferencedByEvent) {
		t.Fatalf("Expected REFERENCED_BY_EVENT, got %v", err)
	}

	// 先删事件再删条目
	if err := ledger.Delete(ctx, event.ID); err != nil {
		t.Fatalf("Failed to delete event: %v", err)
	}
	if err := lineup.RemoveEntry(ctx, entry.ID); err != nil {
		t.Fatalf("Expected removal to succeed after event deletion, got %v", err)
	}
}

func TestMutationsRejectedOnFinishedMatch(t *testing.T) {
	matches, lineup, ledger := newTestStores(t)
	ctx := context.Background()
	match := createTestMatch(t, matches, false)
	finishTestMatch(t, matches, match.ID)

	_, err := ledger.Append(ctx, AppendEventParams{
		MatchID: match.ID,
		Half:    models.HalfFirst,
		Minute:  5,
		Type:    models.EventTypeGoal,
		TeamID:  &match.HomeTeamID,
	})
	if !common.IsCode(err, common.CodeMatchClosed) {
		t.Errorf("Expected MATCH_CLOSED on event append, got %v", err)
	}

	_, err = lineup.AddEntry(ctx, AddLineupParams{
		MatchID:       match.ID,
		TeamID:        match.HomeTeamID,
		ParticipantID: 102,
		Role:          models.LineupRoleStarter,
	})
	if !common.IsCode(err, common.CodeMatchClosed) {
		t.Errorf("Expected MATCH_CLOSED on lineup add, got %v", err)
	}

	// 重置状态后可以再编辑
	if _, err := matches.ResetStatus(ctx, match.ID); err != nil {
		t.Fatalf("Failed to reset status: %v", err)
	}
	if _, err := lineup.AddEntry(ctx, AddLineupParams{
		MatchID:       match.ID,
		TeamID:        match.HomeTeamID,
		ParticipantID: 102,
		Role:          models.LineupRoleStarter,
	}); err != nil {
		t.Errorf("Expected lineup add to succeed after reset, got %v", err)
	}
}

func TestManualScoreGate(t *testing.T) {
	matches, _, ledger := newTestStores(t)
	ctx := context.Background()

	// 账本有计分事件时人工比分被拒
	withEvents := createTestMatch(t, matches, false)
	if _, err := ledger.Append(ctx, AppendEventParams{
		MatchID: withEvents.ID,
		Half:    models.HalfFirst,
		Minute:  10,
		Type:    models.EventTypeGoal,
		TeamID:  &withEvents.HomeTeamID,
	}); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}
	score := 3
	_, err := matches.Patch(ctx, withEvents.ID, MatchPatch{HomeScore: &score})
	if !common.IsCode(err, common.CodeValidation) {
		t.Errorf("Expected VALIDATION_FAILED with score-affecting events, got %v", err)
	}

	// 点球大战比分不走该闸门
	pens := 4
	if _, err := matches.Patch(ctx, withEvents.ID, MatchPatch{HomePenaltyScore: &pens}); err != nil {
		t.Errorf("Expected penalty score edit to succeed, got %v", err)
	}

	// 开启同步时人工比分被拒
	synced := createTestMatch(t, matches, true)
	_, err = matches.Patch(ctx, synced.ID, MatchPatch{HomeScore: &score})
	if !common.IsCode(err, common.CodeValidation) {
		t.Errorf("Expected VALIDATION_FAILED with sync enabled, got %v", err)
	}

	// 空账本且未开同步时接受
	manual := createTestMatch(t, matches, false)
	updated, err := matches.Patch(ctx, manual.ID, MatchPatch{HomeScore: &score})
	if err != nil {
		t.Fatalf("Expected manual score to be accepted, got %v", err)
	}
	if updated.HomeScore != 3 {
		t.Errorf("Expected home score 3, got %d", updated.HomeScore)
	}
}

func TestPatchStaleVersionConflict(t *testing.T) {
	matches, _, _ := newTestStores(t)
	ctx := context.Background()
	match := createTestMatch(t, matches, false)

	live := models.MatchStatusLive
	if _, err := matches.Patch(ctx, match.ID, MatchPatch{Status: &live}); err != nil {
		t.Fatalf("Failed to patch match: %v", err)
	}

	enabled := true
	_, err := matches.Patch(ctx, match.ID, MatchPatch{SyncEnabled: &enabled, Version: 99})
	if !common.IsCode(err, common.CodeConflict) {
		t.Errorf("Expected CONFLICT for stale version, got %v", err)
	}
}

func TestAppendDuplicateUUID(t *testing.T) {
	matches, _, ledger := newTestStores(t)
	ctx := context.Background()
	matchA := createTestMatch(t, matches, false)
	matchB := createTestMatch(t, matches, false)

	eventUUID := uuid.New().String()
	params := AppendEventParams{
		MatchID: matchA.ID,
		UUID:    eventUUID,
		Half:    models.HalfFirst,
		Minute:  10,
		Type:    models.EventTypeGoal,
		TeamID:  &matchA.HomeTeamID,
	}
	first, err := ledger.Append(ctx, params)
	if err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	// 同场同 UUID 重复入账:幂等,返回存量事件且比分不变
	replayed, err := ledger.Append(ctx, params)
	if err != nil {
		t.Fatalf("Expected replay to succeed, got %v", err)
	}
	if replayed.ID != first.ID {
		t.Errorf("Expected replay to return event %d, got %d", first.ID, replayed.ID)
	}
	got, err := matches.Get(ctx, matchA.ID)
	if err != nil {
		t.Fatalf("Failed to load match: %v", err)
	}
	if got.HomeScore != 1 {
		t.Errorf("Expected score unchanged at 1 after replay, got %d", got.HomeScore)
	}

	// 另一场比赛撞同一 UUID:键冲突,不是回放
	params.MatchID = matchB.ID
	_, err = ledger.Append(ctx, params)
	if !common.IsCode(err, common.CodeConflict) {
		t.Errorf("Expected CONFLICT for uuid from another match, got %v", err)
	}
}

func TestAppendChecksHalfAndMinuteFirst(t *testing.T) {
	matches, _, ledger := newTestStores(t)
	ctx := context.Background()
	match := createTestMatch(t, matches, false)

	// 分钟和参与者都不合法时,先报分钟
	unknown := int64(999)
	_, err := ledger.Append(ctx, AppendEventParams{
		MatchID:              match.ID,
		Half:                 models.HalfFirst,
		Minute:               -1,
		Type:                 models.EventTypeGoal,
		TeamID:               &match.HomeTeamID,
		PrimaryParticipantID: &unknown,
	})
	if !common.IsCode(err, common.CodeValidation) {
		t.Fatalf("Expected VALIDATION_FAILED, got %v", err)
	}
	if !strings.Contains(err.Error(), "minute") {
		t.Errorf("Expected minute error to surface first, got %q", err.Error())
	}

	_, err = ledger.Append(ctx, AppendEventParams{
		MatchID: match.ID,
		Half:    "3",
		Minute:  10,
		Type:    models.EventTypeGoal,
		TeamID:  &match.HomeTeamID,
	})
	if !common.IsCode(err, common.CodeValidation) || !strings.Contains(err.Error(), "half") {
		t.Errorf("Expected half error, got %v", err)
	}
}

func TestScoreReconciledOnAppendAndDelete(t *testing.T) {
	matches, _, ledger := newTestStores(t)
	ctx := context.Background()
	match := createTestMatch(t, matches, false)

	event, err := ledger.Append(ctx, AppendEventParams{
		MatchID: match.ID,
		Half:    models.HalfFirst,
		Minute:  10,
		Type:    models.EventTypeGoal,
		TeamID:  &match.HomeTeamID,
	})
	if err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	got, err := matches.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("Failed to load match: %v", err)
	}
	if got.HomeScore != 1 || got.AwayScore != 0 {
		t.Errorf("Expected (1,0) after goal, got (%d,%d)", got.HomeScore, got.AwayScore)
	}

	// 删除后比分回到入账前
	if err := ledger.Delete(ctx, event.ID); err != nil {
		t.Fatalf("Failed to delete event: %v", err)
	}
	got, err = matches.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("Failed to load match: %v", err)
	}
	if got.HomeScore != 0 || got.AwayScore != 0 {
		t.Errorf("Expected (0,0) after deletion, got (%d,%d)", got.HomeScore, got.AwayScore)
	}
}
