package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxlane/apptvoice/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreateSession(ctx context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO sessions (room_name, participant_name, avatar_mode, started_at, status)
		 VALUES ($1, $2, $3, $4, 'running')
		 RETURNING id, room_name, participant_name, avatar_mode, started_at, ended_at, status`,
		input.RoomName, input.ParticipantName, input.AvatarMode, input.StartedAt)
	var s repository.Session
	var endedAt *time.Time
	err := row.Scan(&s.ID, &s.RoomName, &s.ParticipantName, &s.AvatarMode, &s.StartedAt, &endedAt, &s.Status)
	if err != nil {
		return nil, err
	}
	s.EndedAt = endedAt
	return &s, nil
}

func (r *PostgresRepository) UpdateSessionCompleted(ctx context.Context, input repository.CompleteSessionInput) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET status = 'completed', ended_at = $2, end_reason = $3 WHERE id = $1`,
		input.SessionID, input.EndedAt, input.EndReason)
	return err
}

func (r *PostgresRepository) InsertUtterance(ctx context.Context, input repository.InsertUtteranceInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO utterances (session_id, speaker_identity, speaker_name, content, origin, spoken_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.SessionID, input.SpeakerIdentity, input.SpeakerName, input.Content, input.Origin, input.SpokenAt)
	return err
}

func (r *PostgresRepository) InsertToolCall(ctx context.Context, input repository.InsertToolCallInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tool_calls (session_id, tool_name, parameters, result, status, called_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.SessionID, input.ToolName, input.ParametersJSON, input.Result, input.Status, input.CalledAt)
	return err
}

func (r *PostgresRepository) SaveSummary(ctx context.Context, input repository.SaveSummaryInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversation_summaries
		 (session_id, conversation_date, duration_minutes, summary_text, user_phone, appointments, preferences)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		input.SessionID, input.ConversationDate, input.DurationMinutes, input.SummaryText,
		input.UserPhone, input.AppointmentsJSON, input.PreferencesJSON)
	return err
}

func (r *PostgresRepository) ListUtterancesBySessionID(ctx context.Context, sessionID string) ([]repository.Utterance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, speaker_identity, speaker_name, content, origin, spoken_at, created_at
		 FROM utterances WHERE session_id = $1 ORDER BY spoken_at ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Utterance
	for rows.Next() {
		var u repository.Utterance
		if err := rows.Scan(&u.ID, &u.SessionID, &u.SpeakerIdentity, &u.SpeakerName, &u.Content, &u.Origin, &u.SpokenAt, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
