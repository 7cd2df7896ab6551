package room

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	roompkg "github.com/voxlane/apptvoice/internal/room"
)

const (
	topicTranscription = "lk.transcription"
	topicChat          = "lk.chat"

	attrSegmentID          = "lk.segment_id"
	attrTranscriptionFinal = "lk.transcription_final"
)

// LiveKitRoom adapts a LiveKit room connection to the room port. One
// instance handles one connection; Connect must be called before any
// other method.
type LiveKitRoom struct {
	mu       sync.Mutex
	room     *lksdk.Room
	handlers roompkg.Handlers
}

func NewLiveKitRoom() roompkg.Room {
	return &LiveKitRoom{}
}

func (r *LiveKitRoom) Connect(ctx context.Context, sess roompkg.Session, handlers roompkg.Handlers) error {
	_ = ctx
	r.mu.Lock()
	r.handlers = handlers
	r.mu.Unlock()

	cb := &lksdk.RoomCallback{
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			fireParticipant(handlers.OnParticipantConnected, rp)
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			fireParticipant(handlers.OnParticipantDisconnected, rp)
		},
		OnDisconnectedWithReason: func(reason lksdk.DisconnectionReason) {
			if handlers.OnDisconnected != nil {
				handlers.OnDisconnected(string(reason))
			}
		},
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackPublished: func(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				fireParticipant(handlers.OnTrackPublished, rp)
			},
			OnTrackUnpublished: func(pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				fireParticipant(handlers.OnTrackUnpublished, rp)
			},
			OnTrackSubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				fireParticipant(handlers.OnTrackSubscribed, rp)
			},
			// A dropped subscription changes readiness the same way an
			// unpublish does; consumers rescan on either.
			OnTrackUnsubscribed: func(track *webrtc.TrackRemote, pub *lksdk.RemoteTrackPublication, rp *lksdk.RemoteParticipant) {
				fireParticipant(handlers.OnTrackUnpublished, rp)
			},
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				user, ok := data.(*lksdk.UserDataPacket)
				if !ok || handlers.OnDataReceived == nil {
					return
				}
				handlers.OnDataReceived(roompkg.DataMessage{
					SenderIdentity: params.SenderIdentity,
					Payload:        user.Payload,
				})
			},
		},
	}

	lkRoom, err := lksdk.ConnectToRoomWithToken(sess.URL, sess.Token, cb, lksdk.WithAutoSubscribe(true))
	if err != nil {
		return fmt.Errorf("connect to room %q: %w", sess.RoomName, err)
	}
	r.mu.Lock()
	r.room = lkRoom
	r.mu.Unlock()

	if err := lkRoom.RegisterTextStreamHandler(topicTranscription, r.handleTranscriptionStream); err != nil {
		lkRoom.Disconnect()
		return fmt.Errorf("register transcription stream handler: %w", err)
	}
	if err := lkRoom.RegisterTextStreamHandler(topicChat, r.handleChatStream); err != nil {
		lkRoom.Disconnect()
		return fmt.Errorf("register chat stream handler: %w", err)
	}
	return nil
}

func (r *LiveKitRoom) Participants() []roompkg.Participant {
	lkRoom := r.currentRoom()
	if lkRoom == nil {
		return nil
	}
	remotes := lkRoom.GetRemoteParticipants()
	participants := make([]roompkg.Participant, 0, len(remotes)+1)
	if lkRoom.LocalParticipant != nil {
		participants = append(participants, convertParticipant(lkRoom.LocalParticipant, true))
	}
	for _, rp := range remotes {
		if rp == nil {
			continue
		}
		participants = append(participants, convertParticipant(rp, false))
	}
	return participants
}

func (r *LiveKitRoom) LocalIdentity() string {
	lkRoom := r.currentRoom()
	if lkRoom == nil || lkRoom.LocalParticipant == nil {
		return ""
	}
	return lkRoom.LocalParticipant.Identity()
}

func (r *LiveKitRoom) Disconnect() error {
	lkRoom := r.currentRoom()
	if lkRoom == nil {
		return nil
	}
	lkRoom.Disconnect()
	return nil
}

func (r *LiveKitRoom) currentRoom() *lksdk.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.room
}

func (r *LiveKitRoom) getHandlers() roompkg.Handlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers
}

func (r *LiveKitRoom) handleTranscriptionStream(reader *lksdk.TextStreamReader, participantIdentity string) {
	handlers := r.getHandlers()
	if handlers.OnTranscription == nil {
		return
	}
	info := reader.Info
	segmentID := info.Attributes[attrSegmentID]
	if segmentID == "" {
		segmentID = info.Id
	}
	handlers.OnTranscription(&textSegmentStream{
		reader:    reader,
		identity:  participantIdentity,
		name:      r.participantName(participantIdentity),
		segmentID: segmentID,
		final:     info.Attributes[attrTranscriptionFinal] == "true",
	})
}

func (r *LiveKitRoom) handleChatStream(reader *lksdk.TextStreamReader, participantIdentity string) {
	handlers := r.getHandlers()
	text := reader.ReadAll()
	if handlers.OnChatMessage == nil {
		return
	}
	info := reader.Info
	handlers.OnChatMessage(roompkg.ChatMessage{
		ID:              info.Id,
		SenderIdentity:  participantIdentity,
		SenderName:      r.participantName(participantIdentity),
		Text:            text,
		TimestampMillis: info.Timestamp,
	})
}

func (r *LiveKitRoom) participantName(identity string) string {
	for _, p := range r.Participants() {
		if p.Identity == identity {
			return p.Name
		}
	}
	slog.Debug("participant name could not be resolved; using identity fallback", "identity", identity)
	return identity
}

func fireParticipant(handler func(roompkg.Participant), rp *lksdk.RemoteParticipant) {
	if handler == nil || rp == nil {
		return
	}
	handler(convertParticipant(rp, false))
}

func convertParticipant(p lksdk.Participant, isLocal bool) roompkg.Participant {
	pubs := p.TrackPublications()
	tracks := make([]roompkg.TrackPublication, 0, len(pubs))
	for _, pub := range pubs {
		if pub == nil {
			continue
		}
		tracks = append(tracks, roompkg.TrackPublication{
			SID:        pub.SID(),
			Kind:       convertTrackKind(pub.Kind()),
			Subscribed: pub.IsSubscribed(),
			// The track instance is only set once media actually flows.
			Live: pub.Track() != nil,
		})
	}
	return roompkg.Participant{
		Identity:   p.Identity(),
		Name:       p.Name(),
		IsLocal:    isLocal,
		Attributes: p.Attributes(),
		Tracks:     tracks,
	}
}

func convertTrackKind(kind lksdk.TrackKind) roompkg.TrackKind {
	switch kind {
	case lksdk.TrackKindVideo:
		return roompkg.TrackKindVideo
	case lksdk.TrackKindAudio:
		return roompkg.TrackKindAudio
	default:
		return roompkg.TrackKind(string(kind))
	}
}

// textSegmentStream exposes one incoming text stream as a chunked
// segment reader.
type textSegmentStream struct {
	reader    *lksdk.TextStreamReader
	identity  string
	name      string
	segmentID string
	final     bool
	buf       [4096]byte
}

func (s *textSegmentStream) SenderIdentity() string { return s.identity }
func (s *textSegmentStream) SenderName() string     { return s.name }
func (s *textSegmentStream) SegmentID() string      { return s.segmentID }
func (s *textSegmentStream) Final() bool            { return s.final }

func (s *textSegmentStream) Next() (string, error) {
	for {
		n, err := s.reader.Read(s.buf[:])
		if n > 0 {
			return string(s.buf[:n]), nil
		}
		if err != nil {
			return "", err
		}
	}
}
