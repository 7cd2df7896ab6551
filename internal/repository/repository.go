// Package repository is the port for the session archive. Archiving is
// optional; with no database configured the no-op implementation is
// wired instead.
package repository

import (
	"context"
	"time"
)

type CreateSessionInput struct {
	RoomName        string
	ParticipantName string
	AvatarMode      bool
	StartedAt       time.Time
}

type CompleteSessionInput struct {
	SessionID string
	EndedAt   time.Time
	EndReason string
}

type InsertUtteranceInput struct {
	SessionID       string
	SpeakerIdentity string
	SpeakerName     string
	Content         string
	Origin          string
	SpokenAt        time.Time
}

type InsertToolCallInput struct {
	SessionID      string
	ToolName       string
	ParametersJSON []byte
	Result         string
	Status         string
	CalledAt       time.Time
}

type SaveSummaryInput struct {
	SessionID        string
	ConversationDate string
	DurationMinutes  *int
	SummaryText      string
	UserPhone        string
	AppointmentsJSON []byte
	PreferencesJSON  []byte
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	UpdateSessionCompleted(ctx context.Context, input CompleteSessionInput) error
}

type ConversationRepository interface {
	InsertUtterance(ctx context.Context, input InsertUtteranceInput) error
	InsertToolCall(ctx context.Context, input InsertToolCallInput) error
	SaveSummary(ctx context.Context, input SaveSummaryInput) error
	ListUtterancesBySessionID(ctx context.Context, sessionID string) ([]Utterance, error)
}

type Repository interface {
	SessionRepository
	ConversationRepository
}
