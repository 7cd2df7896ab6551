// Package presence derives session readiness from the current room
// participant snapshot. Every room event triggers a full rescan of the
// snapshot rather than incremental bookkeeping, so an agent that joined
// before this client did is still detected.
package presence

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/voxlane/apptvoice/internal/notify"
	"github.com/voxlane/apptvoice/internal/room"
)

type State string

const (
	StateConnecting       State = "connecting"
	StateWaitingForAvatar State = "waiting_for_avatar"
	StateReady            State = "ready"
)

const (
	// avatarExclusionMarker tags the avatar-rendering agent's identity;
	// voice-agent matching must skip it.
	avatarExclusionMarker = "bey"
	avatarKeyword         = "avatar"

	roleAttributeKey = "role"
	roleVoiceAgent   = "voice-agent"
	roleAvatarAgent  = "avatar-agent"
)

// Detector classifies a participant snapshot. A participant carrying an
// explicit role attribute is classified by it directly; identities
// without one fall back to case-insensitive substring matching against
// the configured keyword set.
type Detector struct {
	avatarMode    bool
	voiceKeywords []string
}

func NewDetector(avatarMode bool, voiceKeywords []string) *Detector {
	kws := make([]string, 0, len(voiceKeywords))
	for _, kw := range voiceKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return &Detector{avatarMode: avatarMode, voiceKeywords: kws}
}

func (d *Detector) AvatarMode() bool {
	return d.avatarMode
}

// DisableAvatarMode switches classification to the single-agent rule.
// Used by the manual "continue without avatar" escape.
func (d *Detector) DisableAvatarMode() {
	d.avatarMode = false
}

func (d *Detector) Classify(participants []room.Participant) State {
	var voice, avatar *room.Participant
	for i := range participants {
		p := &participants[i]
		if p.IsLocal {
			continue
		}
		if voice == nil && d.isVoiceAgent(p) {
			voice = p
		}
		if avatar == nil && isAvatarAgent(p) {
			avatar = p
		}
	}

	if !d.avatarMode {
		if voice != nil {
			return StateReady
		}
		return StateConnecting
	}

	// The voice agent anchors the session; without it the avatar's
	// presence means nothing yet.
	if voice == nil {
		return StateConnecting
	}
	if avatar == nil || !hasLiveVideoTrack(avatar) {
		return StateWaitingForAvatar
	}
	return StateReady
}

func (d *Detector) isVoiceAgent(p *room.Participant) bool {
	if role, ok := p.Attributes[roleAttributeKey]; ok {
		return role == roleVoiceAgent
	}
	identity := strings.ToLower(p.Identity)
	if strings.Contains(identity, avatarExclusionMarker) {
		return false
	}
	for _, kw := range d.voiceKeywords {
		if strings.Contains(identity, kw) {
			return true
		}
	}
	return false
}

func isAvatarAgent(p *room.Participant) bool {
	if role, ok := p.Attributes[roleAttributeKey]; ok {
		return role == roleAvatarAgent
	}
	identity := strings.ToLower(p.Identity)
	return strings.Contains(identity, avatarExclusionMarker) || strings.Contains(identity, avatarKeyword)
}

func hasLiveVideoTrack(p *room.Participant) bool {
	for _, pub := range p.Tracks {
		if pub.Kind == room.TrackKindVideo && pub.Subscribed && pub.Live {
			return true
		}
	}
	return false
}

type loadingPhase int

const (
	loadingNone loadingPhase = iota
	loadingPending
	loadingResolved
)

// Tracker wraps a Detector with edge-triggered notification state. The
// loading notification is started once, updated on sub-state changes and
// resolved exactly once on the first transition into ready; identical
// rescans never re-fire it.
type Tracker struct {
	mu       sync.Mutex
	detector *Detector
	notifier notify.Notifier

	state  State
	known  bool
	phase  loadingPhase
	handle notify.LoadingHandle
}

func NewTracker(detector *Detector, notifier notify.Notifier) *Tracker {
	return &Tracker{detector: detector, notifier: notifier}
}

// Rescan reclassifies the snapshot and applies the notification edge
// transitions. Safe to call from concurrent room event callbacks.
func (t *Tracker) Rescan(participants []room.Participant) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.detector.Classify(participants)
	changed := !t.known || next != t.state
	t.state = next
	t.known = true
	if changed {
		slog.Info("session readiness changed", "state", string(next), "participants", len(participants))
	}

	switch {
	case next != StateReady && t.phase == loadingNone:
		t.handle = t.notifier.StartLoading(loadingMessage(next))
		t.phase = loadingPending
	case next != StateReady && t.phase == loadingPending && changed:
		t.handle.Update(loadingMessage(next))
	case next == StateReady && t.phase == loadingPending:
		t.handle.Resolve("Connected to your assistant")
		t.handle = nil
		t.phase = loadingResolved
	case next == StateReady && t.phase == loadingNone:
		// Agent was already in the room before the first rescan.
		t.notifier.Success("Connected to your assistant")
		t.phase = loadingResolved
	}
	return next
}

// AvatarMode reports the mode classification currently runs under; it
// flips to false once the avatar requirement is dropped.
func (t *Tracker) AvatarMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.detector.AvatarMode()
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.known {
		return StateConnecting
	}
	return t.state
}

// ContinueWithoutAvatar drops the avatar requirement mid-session.
func (t *Tracker) ContinueWithoutAvatar(participants []room.Participant) State {
	t.mu.Lock()
	t.detector.DisableAvatarMode()
	t.mu.Unlock()
	return t.Rescan(participants)
}

func loadingMessage(s State) string {
	if s == StateWaitingForAvatar {
		return "Waiting for the avatar to join..."
	}
	return "Connecting to your assistant..."
}
