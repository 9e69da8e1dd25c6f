package database

import (
	"matchops-service/pkg/models"
)

// RowScanner 兼容 *sql.Row 和 *sql.Rows
type RowScanner interface {
	Scan(dest ...interface{}) error
}

// MatchColumns 与 ScanMatch 对应的列清单
const MatchColumns = `id, external_ref, scheduled_at, home_team_id, away_team_id,
	status, home_score, away_score, home_penalty_score, away_penalty_score,
	sync_enabled, version, created_at, updated_at`

// ScanMatch 扫描一行比赛记录
func ScanMatch(row RowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.ExternalRef, &m.ScheduledAt, &m.HomeTeamID, &m.AwayTeamID,
		&m.Status, &m.HomeScore, &m.AwayScore, &m.HomePenaltyScore, &m.AwayPenaltyScore,
		&m.SyncEnabled, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LineupEntryColumns 与 ScanLineupEntry 对应的列清单
const LineupEntryColumns = `id, match_id, team_id, participant_id, role,
	shirt_number, position, is_captain, created_at`

// ScanLineupEntry 扫描一行阵容记录
func ScanLineupEntry(row RowScanner) (*models.LineupEntry, error) {
	var e models.LineupEntry
	err := row.Scan(
		&e.ID, &e.MatchID, &e.TeamID, &e.ParticipantID, &e.Role,
		&e.ShirtNumber, &e.Position, &e.IsCaptain, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventColumns 与 ScanEvent 对应的列清单
const EventColumns = `id, uuid, match_id, half, minute, event_type, team_id,
	primary_entry_id, secondary_entry_id, assist_entry_id, created_at`

// ScanEvent 扫描一行事件记录
func ScanEvent(row RowScanner) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.UUID, &e.MatchID, &e.Half, &e.Minute, &e.Type, &e.TeamID,
		&e.PrimaryEntryID, &e.SecondaryEntryID, &e.AssistEntryID, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// RefereeAssignmentColumns 与 ScanRefereeAssignment 对应的列清单
const RefereeAssignmentColumns = `id, match_id, referee_id, role, created_at`

// ScanRefereeAssignment 扫描一行裁判委派记录
func ScanRefereeAssignment(row RowScanner) (*models.RefereeAssignment, error) {
	var a models.RefereeAssignment
	err := row.Scan(&a.ID, &a.MatchID, &a.RefereeID, &a.Role, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
