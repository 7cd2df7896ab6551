package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxlane/apptvoice/internal/backend"
	"github.com/voxlane/apptvoice/internal/config"
	"github.com/voxlane/apptvoice/internal/gateway"
	"github.com/voxlane/apptvoice/internal/notify"
	"github.com/voxlane/apptvoice/internal/presence"
	"github.com/voxlane/apptvoice/internal/repository"
	"github.com/voxlane/apptvoice/internal/room"
	"github.com/voxlane/apptvoice/internal/transcript"
)

const (
	endReasonAssistant    = "assistant ended the call"
	endReasonShutdown     = "client shutdown"
	endReasonDisconnected = "room connection lost"
)

type readinessPayload struct {
	State         string `json:"state"`
	AvatarMode    bool   `json:"avatar_mode"`
	LocalIdentity string `json:"local_identity"`
}

type transcriptPayload struct {
	Entries []transcript.Entry `json:"entries"`
}

type toolCallsPayload struct {
	Calls []ToolCallRecord `json:"calls"`
}

type summaryPayload struct {
	Summary ConversationSummary `json:"summary"`
}

type callEndedPayload struct {
	Reason string `json:"reason"`
}

type dataEnvelope struct {
	Type string `json:"type"`
}

type toolCallMessage struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     string         `json:"result"`
	Status     string         `json:"status"`
	Timestamp  string         `json:"timestamp"`
}

type summaryMessage struct {
	Summary ConversationSummary `json:"summary"`
}

// Manager owns one assistant session end to end: it obtains room
// credentials, joins the room, feeds every room event into the
// readiness tracker and the transcript log, dispatches data-channel
// messages, archives the conversation and broadcasts derived state to
// the browser gateway. Room callbacks arrive on SDK goroutines, so all
// mutable state is mutex-guarded.
type Manager struct {
	cfg         *config.Config
	backend     backend.Client
	room        room.Room
	repo        repository.Repository
	broadcaster gateway.Broadcaster
	notifier    notify.Notifier
	tracker     *presence.Tracker

	mu          sync.Mutex
	log         *transcript.Log
	toolCalls   toolCallLog
	summary     *ConversationSummary
	repoSession *repository.Session

	streamCtx    context.Context
	streamCancel context.CancelFunc
	done         chan struct{}
	endOnce      sync.Once
}

func NewManager(cfg *config.Config, bc backend.Client, rm room.Room, repo repository.Repository, broadcaster gateway.Broadcaster, notifier notify.Notifier) *Manager {
	detector := presence.NewDetector(cfg.AvatarMode, cfg.VoiceAgentKeywords)
	streamCtx, streamCancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:          cfg,
		backend:      bc,
		room:         rm,
		repo:         repo,
		broadcaster:  broadcaster,
		notifier:     notifier,
		tracker:      presence.NewTracker(detector, notifier),
		log:          transcript.NewLog(),
		streamCtx:    streamCtx,
		streamCancel: streamCancel,
		done:         make(chan struct{}),
	}
}

// Start mints room credentials from the backend, opens the archive
// session and connects to the room. Room events drive everything after
// this returns.
func (m *Manager) Start(ctx context.Context) error {
	slog.Info("requesting session from backend", "participant_name", m.cfg.ParticipantName, "avatar_mode", m.cfg.AvatarMode)
	sess, err := m.backend.CreateSession(ctx, backend.CreateSessionInput{
		ParticipantName: m.cfg.ParticipantName,
		AvatarMode:      m.cfg.AvatarMode,
	})
	if err != nil {
		return err
	}
	slog.Info("session issued", "room_name", sess.RoomName, "participant_name", sess.ParticipantName)

	created, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		RoomName:        sess.RoomName,
		ParticipantName: sess.ParticipantName,
		AvatarMode:      m.cfg.AvatarMode,
		StartedAt:       time.Now(),
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.repoSession = created
	m.mu.Unlock()
	slog.Info("archive session opened", "session_id", created.ID)

	err = m.room.Connect(ctx, room.Session{
		Token:           sess.Token,
		URL:             sess.URL,
		RoomName:        sess.RoomName,
		ParticipantName: sess.ParticipantName,
	}, room.Handlers{
		OnParticipantConnected:    func(p room.Participant) { m.rescan("participant-connected", p.Identity) },
		OnParticipantDisconnected: func(p room.Participant) { m.rescan("participant-disconnected", p.Identity) },
		OnTrackPublished:          func(p room.Participant) { m.rescan("track-published", p.Identity) },
		OnTrackUnpublished:        func(p room.Participant) { m.rescan("track-unpublished", p.Identity) },
		OnTrackSubscribed:         func(p room.Participant) { m.rescan("track-subscribed", p.Identity) },
		OnDataReceived:            m.handleDataMessage,
		OnChatMessage:             m.handleChatMessage,
		OnTranscription:           m.handleTranscription,
		OnDisconnected:            m.handleRoomDisconnected,
	})
	if err != nil {
		return err
	}
	slog.Info("room connected", "room_name", sess.RoomName)

	// Agents may have joined before this client; scan immediately
	// instead of waiting for the next join event.
	m.rescan("connected", "")
	return nil
}

// Done closes when the session has ended, whether by the assistant's
// end_call, a room disconnect, or Stop.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) Stop() {
	m.end(endReasonShutdown)
}

// HandleCommand processes commands arriving from browser clients.
func (m *Manager) HandleCommand(command string) {
	switch command {
	case gateway.CommandContinueWithoutAvatar:
		state := m.tracker.ContinueWithoutAvatar(m.room.Participants())
		slog.Info("continuing without avatar", "state", string(state))
		m.broadcastReadiness(state)
	default:
		slog.Debug("ignoring unknown gateway command", "command", command)
	}
}

func (m *Manager) rescan(trigger, identity string) {
	state := m.tracker.Rescan(m.room.Participants())
	slog.Debug("participant snapshot rescanned", "trigger", trigger, "identity", identity, "state", string(state))
	m.broadcastReadiness(state)
}

func (m *Manager) broadcastReadiness(state presence.State) {
	m.broadcaster.Broadcast(gateway.EventReadiness, readinessPayload{
		State: string(state),
		// The tracker's mode, not the configured one: the
		// continue-without-avatar escape flips it mid-session.
		AvatarMode:    m.tracker.AvatarMode(),
		LocalIdentity: m.room.LocalIdentity(),
	})
}

func (m *Manager) handleDataMessage(msg room.DataMessage) {
	var env dataEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		slog.Warn("dropping malformed data message", "error", err, "sender", msg.SenderIdentity, "payload_bytes", len(msg.Payload))
		return
	}
	switch env.Type {
	case "tool_call":
		m.handleToolCall(msg)
	case "conversation_summary":
		m.handleSummary(msg)
	case "end_call":
		slog.Info("end_call received", "sender", msg.SenderIdentity)
		m.end(endReasonAssistant)
	default:
		slog.Debug("ignoring data message of unknown type", "type", env.Type, "sender", msg.SenderIdentity)
	}
}

func (m *Manager) handleToolCall(msg room.DataMessage) {
	var payload toolCallMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("dropping malformed tool_call message", "error", err, "sender", msg.SenderIdentity)
		return
	}
	record := ToolCallRecord{
		ID:         uuid.NewString(),
		ToolName:   payload.ToolName,
		Parameters: payload.Parameters,
		Result:     payload.Result,
		Status:     toolCallStatus(payload.Status),
		Timestamp:  toolCallTimestamp(payload.Timestamp),
	}
	slog.Info("tool call received", "tool_name", record.ToolName, "status", string(record.Status))

	m.mu.Lock()
	m.toolCalls.Append(record)
	display := m.toolCalls.Display()
	sessionID := m.sessionIDLocked()
	m.mu.Unlock()

	m.broadcaster.Broadcast(gateway.EventToolCalls, toolCallsPayload{Calls: display})

	parametersJSON, err := json.Marshal(record.Parameters)
	if err != nil {
		parametersJSON = nil
	}
	if err := m.repo.InsertToolCall(context.Background(), repository.InsertToolCallInput{
		SessionID:      sessionID,
		ToolName:       record.ToolName,
		ParametersJSON: parametersJSON,
		Result:         record.Result,
		Status:         string(record.Status),
		CalledAt:       record.Timestamp,
	}); err != nil {
		slog.Error("failed to archive tool call", "error", err, "tool_name", record.ToolName)
	}
}

func (m *Manager) handleSummary(msg room.DataMessage) {
	var payload summaryMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("dropping malformed conversation_summary message", "error", err, "sender", msg.SenderIdentity)
		return
	}

	m.mu.Lock()
	if m.summary != nil {
		m.mu.Unlock()
		slog.Warn("ignoring duplicate conversation summary", "sender", msg.SenderIdentity)
		return
	}
	summary := payload.Summary
	m.summary = &summary
	sessionID := m.sessionIDLocked()
	m.mu.Unlock()

	slog.Info("conversation summary received", "conversation_date", summary.ConversationDate)
	m.broadcaster.Broadcast(gateway.EventSummary, summaryPayload{Summary: summary})

	appointmentsJSON, _ := json.Marshal(summary.AppointmentsDiscussed)
	preferencesJSON, _ := json.Marshal(summary.UserPreferences)
	if err := m.repo.SaveSummary(context.Background(), repository.SaveSummaryInput{
		SessionID:        sessionID,
		ConversationDate: summary.ConversationDate,
		DurationMinutes:  summary.DurationMinutes,
		SummaryText:      summary.SummaryText,
		UserPhone:        stringValue(summary.UserPhone),
		AppointmentsJSON: appointmentsJSON,
		PreferencesJSON:  preferencesJSON,
	}); err != nil {
		slog.Error("failed to archive conversation summary", "error", err)
	}
}

func (m *Manager) handleChatMessage(msg room.ChatMessage) {
	entry := transcript.Entry{
		ID:              msg.ID,
		SpeakerIdentity: msg.SenderIdentity,
		SpeakerName:     msg.SenderName,
		Text:            msg.Text,
		TimestampMillis: msg.TimestampMillis,
	}
	m.log.AddChat(entry)
	m.broadcastTranscript()

	if err := m.repo.InsertUtterance(context.Background(), repository.InsertUtteranceInput{
		SessionID:       m.sessionID(),
		SpeakerIdentity: msg.SenderIdentity,
		SpeakerName:     msg.SenderName,
		Content:         msg.Text,
		Origin:          string(transcript.OriginChat),
		SpokenAt:        time.UnixMilli(msg.TimestampMillis),
	}); err != nil {
		slog.Error("failed to archive chat message", "error", err, "sender", msg.SenderIdentity)
	}
}

func (m *Manager) handleTranscription(stream room.TranscriptionStream) {
	go m.readTranscription(m.streamCtx, stream)
}

// readTranscription drains one segment stream, re-emitting the interim
// entry on every chunk. The loop's lifetime is bound to the session
// context so teardown cannot leave it running.
func (m *Manager) readTranscription(ctx context.Context, stream room.TranscriptionStream) {
	identity := stream.SenderIdentity()
	segmentID := stream.SegmentID()
	var buf strings.Builder
	for {
		if ctx.Err() != nil {
			return
		}
		chunk, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.finishSegment(stream)
				return
			}
			slog.Warn("transcription stream read failed; discarding partial segment", "error", err, "sender", identity, "segment_id", segmentID)
			m.log.DiscardSegment(identity, segmentID)
			m.broadcastTranscript()
			return
		}
		buf.WriteString(chunk)
		m.log.UpdateSegment(identity, stream.SenderName(), segmentID, buf.String(), time.Now().UnixMilli())
		m.broadcastTranscript()
	}
}

func (m *Manager) finishSegment(stream room.TranscriptionStream) {
	if !stream.Final() {
		// Interim update stream; the entry stays interim until the
		// final stream for this segment arrives.
		return
	}
	entry, ok := m.log.FinalizeSegment(stream.SenderIdentity(), stream.SegmentID())
	if !ok {
		return
	}
	m.broadcastTranscript()

	if err := m.repo.InsertUtterance(context.Background(), repository.InsertUtteranceInput{
		SessionID:       m.sessionID(),
		SpeakerIdentity: entry.SpeakerIdentity,
		SpeakerName:     entry.SpeakerName,
		Content:         entry.Text,
		Origin:          string(transcript.OriginTranscription),
		SpokenAt:        time.UnixMilli(entry.TimestampMillis),
	}); err != nil {
		slog.Error("failed to archive transcription segment", "error", err, "segment_id", stream.SegmentID())
	}
}

func (m *Manager) handleRoomDisconnected(reason string) {
	slog.Warn("room disconnected", "reason", reason)
	select {
	case <-m.done:
		// Expected during teardown.
	default:
		m.notifier.Error("Connection to the assistant was lost")
	}
	m.end(endReasonDisconnected)
}

func (m *Manager) broadcastTranscript() {
	m.broadcaster.Broadcast(gateway.EventTranscript, transcriptPayload{Entries: m.log.Entries()})
}

func (m *Manager) end(reason string) {
	m.endOnce.Do(func() {
		slog.Info("ending session", "reason", reason)
		m.streamCancel()
		m.broadcaster.Broadcast(gateway.EventCallEnded, callEndedPayload{Reason: reason})
		if err := m.room.Disconnect(); err != nil {
			slog.Error("room disconnect failed", "error", err)
		}
		sessionID := m.sessionID()
		if err := m.repo.UpdateSessionCompleted(context.Background(), repository.CompleteSessionInput{
			SessionID: sessionID,
			EndedAt:   time.Now(),
			EndReason: reason,
		}); err != nil {
			slog.Error("failed to complete archive session", "error", err)
		}
		if utterances, err := m.repo.ListUtterancesBySessionID(context.Background(), sessionID); err != nil {
			slog.Error("failed to read back archived utterances", "error", err, "session_id", sessionID)
		} else {
			slog.Info("session archive closed", "session_id", sessionID, "archived_utterances", len(utterances))
		}
		close(m.done)
	})
}

func (m *Manager) sessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionIDLocked()
}

func (m *Manager) sessionIDLocked() string {
	if m.repoSession == nil {
		return ""
	}
	return m.repoSession.ID
}

func toolCallStatus(raw string) ToolCallStatus {
	switch ToolCallStatus(raw) {
	case ToolCallStatusSuccess, ToolCallStatusError, ToolCallStatusPending:
		return ToolCallStatus(raw)
	case "":
		return ToolCallStatusSuccess
	default:
		slog.Debug("unknown tool call status; keeping as-is", "status", raw)
		return ToolCallStatus(raw)
	}
}

func toolCallTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}
	return time.Now()
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
