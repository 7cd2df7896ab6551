package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE session_status AS ENUM ('running', 'completed'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		room_name TEXT NOT NULL,
		participant_name TEXT NOT NULL,
		avatar_mode BOOLEAN NOT NULL DEFAULT FALSE,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ,
		status session_status NOT NULL DEFAULT 'running',
		end_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_room ON sessions (room_name, started_at)`,
	`CREATE TABLE IF NOT EXISTS utterances (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		speaker_identity TEXT NOT NULL,
		speaker_name TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		origin TEXT NOT NULL,
		spoken_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_utterances_session ON utterances (session_id, spoken_at)`,
	`CREATE TABLE IF NOT EXISTS tool_calls (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tool_name TEXT NOT NULL,
		parameters JSONB,
		result TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		called_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls (session_id, called_at)`,
	`CREATE TABLE IF NOT EXISTS conversation_summaries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		conversation_date TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER,
		summary_text TEXT NOT NULL,
		user_phone TEXT NOT NULL DEFAULT '',
		appointments JSONB,
		preferences JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(session_id)
	)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
