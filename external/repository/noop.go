package repository

import (
	"context"

	"github.com/voxlane/apptvoice/internal/repository"
)

// NoopRepository is wired when no DATABASE_URL is configured; sessions
// still get an id so the rest of the pipeline is unaware archiving is
// off.
type NoopRepository struct{}

func NewNoopRepository() repository.Repository {
	return &NoopRepository{}
}

func (r *NoopRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	return &repository.Session{
		ID:              "unarchived",
		RoomName:        input.RoomName,
		ParticipantName: input.ParticipantName,
		AvatarMode:      input.AvatarMode,
		StartedAt:       input.StartedAt,
		Status:          repository.SessionStatusRunning,
	}, nil
}

func (r *NoopRepository) UpdateSessionCompleted(_ context.Context, _ repository.CompleteSessionInput) error {
	return nil
}

func (r *NoopRepository) InsertUtterance(_ context.Context, _ repository.InsertUtteranceInput) error {
	return nil
}

func (r *NoopRepository) InsertToolCall(_ context.Context, _ repository.InsertToolCallInput) error {
	return nil
}

func (r *NoopRepository) SaveSummary(_ context.Context, _ repository.SaveSummaryInput) error {
	return nil
}

func (r *NoopRepository) ListUtterancesBySessionID(_ context.Context, _ string) ([]repository.Utterance, error) {
	return nil, nil
}
