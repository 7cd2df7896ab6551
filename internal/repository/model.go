package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

type Session struct {
	ID              string
	RoomName        string
	ParticipantName string
	AvatarMode      bool
	StartedAt       time.Time
	EndedAt         *time.Time
	Status          SessionStatus
	EndReason       string
	CreatedAt       time.Time
}

type Utterance struct {
	ID              string
	SessionID       string
	SpeakerIdentity string
	SpeakerName     string
	Content         string
	Origin          string
	SpokenAt        time.Time
	CreatedAt       time.Time
}

type ToolCall struct {
	ID             string
	SessionID      string
	ToolName       string
	ParametersJSON []byte
	Result         string
	Status         string
	CalledAt       time.Time
	CreatedAt      time.Time
}

type Summary struct {
	ID               string
	SessionID        string
	ConversationDate string
	DurationMinutes  *int
	SummaryText      string
	UserPhone        string
	AppointmentsJSON []byte
	PreferencesJSON  []byte
	CreatedAt        time.Time
}
