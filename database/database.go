package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect 连接到数据库
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 运行数据库迁移
func Migrate(db *sql.DB) error {
	migrations := []string{
		// 比赛表
		// home_score/away_score 由对账引擎维护,version 用于乐观并发控制
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			external_ref VARCHAR(100),
			scheduled_at TIMESTAMP NOT NULL,
			home_team_id BIGINT NOT NULL,
			away_team_id BIGINT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'created',
			home_score INTEGER NOT NULL DEFAULT 0,
			away_score INTEGER NOT NULL DEFAULT 0,
			home_penalty_score INTEGER,
			away_penalty_score INTEGER,
			sync_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			version INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_sync_enabled ON matches(sync_enabled)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_scheduled_at ON matches(scheduled_at)`,

		// 阵容表
		// 一名参与者每场最多一条;每队每场最多一名队长(部分唯一索引)
		`CREATE TABLE IF NOT EXISTS lineup_entries (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			team_id BIGINT NOT NULL,
			participant_id BIGINT NOT NULL,
			role VARCHAR(12) NOT NULL,
			shirt_number INTEGER,
			position VARCHAR(30),
			is_captain BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(match_id, participant_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lineup_entries_match ON lineup_entries(match_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_lineup_entries_captain
			ON lineup_entries(match_id, team_id) WHERE is_captain`,

		// 事件账本表
		// uuid 唯一约束是同步回放幂等的关键:重复回放 ON CONFLICT 跳过
		`CREATE TABLE IF NOT EXISTS match_events (
			id BIGSERIAL PRIMARY KEY,
			uuid VARCHAR(64) UNIQUE NOT NULL,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			half VARCHAR(8) NOT NULL,
			minute INTEGER NOT NULL,
			event_type VARCHAR(20) NOT NULL,
			team_id BIGINT,
			primary_entry_id BIGINT REFERENCES lineup_entries(id),
			secondary_entry_id BIGINT REFERENCES lineup_entries(id),
			assist_entry_id BIGINT REFERENCES lineup_entries(id),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_match_events_type ON match_events(event_type)`,

		// 裁判委派表
		`CREATE TABLE IF NOT EXISTS referee_assignments (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			referee_id BIGINT NOT NULL,
			role VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(match_id, referee_id, role)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_referee_assignments_match ON referee_assignments(match_id)`,

		// 同步执行记录表
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id),
			status VARCHAR(16) NOT NULL,
			lineup_applied INTEGER NOT NULL DEFAULT 0,
			events_applied INTEGER NOT NULL DEFAULT 0,
			rows_skipped INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_match ON sync_runs(match_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
