// Package room defines the port to the external real-time communication
// service. The room itself (connection, media negotiation, track
// subscription, reconnection) is a black box behind this interface; the
// client only consumes its lifecycle events and snapshots.
package room

import "context"

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// TrackPublication is the subscription state of one published track.
// Live is true only once a decodable track instance has actually been
// delivered, which lags Subscribed during media negotiation.
type TrackPublication struct {
	SID        string
	Kind       TrackKind
	Subscribed bool
	Live       bool
}

// Participant is a point-in-time view of a connected room member.
type Participant struct {
	Identity   string
	Name       string
	IsLocal    bool
	Attributes map[string]string
	Tracks     []TrackPublication
}

// Session carries the credentials obtained from the backend before the
// room is entered.
type Session struct {
	Token           string
	URL             string
	RoomName        string
	ParticipantName string
}

// DataMessage is one reliable data-channel payload from a remote
// participant, JSON-encoded by the sender.
type DataMessage struct {
	SenderIdentity string
	Payload        []byte
}

// ChatMessage is a discrete, already-final chat entry.
type ChatMessage struct {
	ID              string
	SenderIdentity  string
	SenderName      string
	Text            string
	TimestampMillis int64
}

// TranscriptionStream yields the incremental text chunks of a single
// speech segment. Next returns io.EOF when the stream completes.
type TranscriptionStream interface {
	SenderIdentity() string
	SenderName() string
	SegmentID() string
	Final() bool
	Next() (string, error)
}

// Handlers receives room lifecycle events. Callbacks arrive on the
// SDK's goroutines; nil handlers are skipped.
type Handlers struct {
	OnParticipantConnected    func(Participant)
	OnParticipantDisconnected func(Participant)
	OnTrackPublished          func(Participant)
	OnTrackUnpublished        func(Participant)
	OnTrackSubscribed         func(Participant)
	OnDataReceived            func(DataMessage)
	OnChatMessage             func(ChatMessage)
	OnTranscription           func(TranscriptionStream)
	OnDisconnected            func(reason string)
}

type Room interface {
	Connect(ctx context.Context, sess Session, handlers Handlers) error
	// Participants returns the full current participant snapshot,
	// local participant included.
	Participants() []Participant
	LocalIdentity() string
	Disconnect() error
}
