// Package backend is the port to the session-issuance API that mints
// room credentials before the client enters the room.
package backend

import "context"

type CreateSessionInput struct {
	ParticipantName string
	AvatarMode      bool
}

type Session struct {
	Token           string
	URL             string
	RoomName        string
	ParticipantName string
}

type Client interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
}
