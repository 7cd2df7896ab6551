package presence

import (
	"testing"

	"github.com/voxlane/apptvoice/internal/notify"
	"github.com/voxlane/apptvoice/internal/room"
)

func defaultDetector(avatarMode bool) *Detector {
	return NewDetector(avatarMode, []string{"agent", "voice"})
}

func participant(identity string, tracks ...room.TrackPublication) room.Participant {
	return room.Participant{Identity: identity, Tracks: tracks}
}

func liveVideo() room.TrackPublication {
	return room.TrackPublication{SID: "TR_video", Kind: room.TrackKindVideo, Subscribed: true, Live: true}
}

func TestClassify_NoMatchingIdentities(t *testing.T) {
	snapshots := [][]room.Participant{
		nil,
		{participant("user-1")},
		{participant("observer"), participant("recorder")},
	}
	for _, avatarMode := range []bool{false, true} {
		d := defaultDetector(avatarMode)
		for _, ps := range snapshots {
			if got := d.Classify(ps); got != StateConnecting {
				t.Fatalf("avatarMode=%v participants=%v: expected connecting, got %s", avatarMode, ps, got)
			}
		}
	}
}

func TestClassify_NonAvatarMode(t *testing.T) {
	tests := []struct {
		name         string
		participants []room.Participant
		want         State
	}{
		{"voice agent present", []room.Participant{participant("voice-agent-1")}, StateReady},
		{"agent keyword uppercase", []room.Participant{participant("Appointment-AGENT")}, StateReady},
		{"bey identity excluded", []room.Participant{participant("bey-voice-agent")}, StateConnecting},
		{"local participant ignored", []room.Participant{{Identity: "voice-agent", IsLocal: true}}, StateConnecting},
		{"only user present", []room.Participant{participant("user-42")}, StateConnecting},
	}
	d := defaultDetector(false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Classify(tt.participants); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_AvatarMode(t *testing.T) {
	tests := []struct {
		name         string
		participants []room.Participant
		want         State
	}{
		{"nobody", nil, StateConnecting},
		{"voice only", []room.Participant{participant("voice-agent")}, StateWaitingForAvatar},
		{
			"avatar without video",
			[]room.Participant{participant("voice-agent"), participant("bey-avatar")},
			StateWaitingForAvatar,
		},
		{
			"avatar video published but not subscribed",
			[]room.Participant{
				participant("voice-agent"),
				participant("bey-avatar", room.TrackPublication{Kind: room.TrackKindVideo}),
			},
			StateWaitingForAvatar,
		},
		{
			"avatar video subscribed but track not delivered",
			[]room.Participant{
				participant("voice-agent"),
				participant("bey-avatar", room.TrackPublication{Kind: room.TrackKindVideo, Subscribed: true}),
			},
			StateWaitingForAvatar,
		},
		{
			"avatar audio track only",
			[]room.Participant{
				participant("voice-agent"),
				participant("bey-avatar", room.TrackPublication{Kind: room.TrackKindAudio, Subscribed: true, Live: true}),
			},
			StateWaitingForAvatar,
		},
		{
			"both present with live avatar video",
			[]room.Participant{participant("voice-agent"), participant("bey-avatar", liveVideo())},
			StateReady,
		},
		{
			"avatar alone without video",
			[]room.Participant{participant("bey-avatar")},
			StateConnecting,
		},
		{
			"avatar alone with live video",
			[]room.Participant{participant("bey-avatar", liveVideo())},
			StateConnecting,
		},
	}
	d := defaultDetector(true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Classify(tt.participants); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_RoleAttributePrecedence(t *testing.T) {
	d := defaultDetector(true)
	participants := []room.Participant{
		{Identity: "alpha", Attributes: map[string]string{"role": "voice-agent"}},
		{
			Identity:   "beta",
			Attributes: map[string]string{"role": "avatar-agent"},
			Tracks:     []room.TrackPublication{liveVideo()},
		},
	}
	if got := d.Classify(participants); got != StateReady {
		t.Fatalf("expected ready via role attributes, got %s", got)
	}

	// An explicit non-agent role wins over a matching identity.
	demoted := []room.Participant{
		{Identity: "voice-agent", Attributes: map[string]string{"role": "user"}},
	}
	if got := defaultDetector(false).Classify(demoted); got != StateConnecting {
		t.Fatalf("expected connecting for demoted role, got %s", got)
	}
}

type fakeNotifier struct {
	startCalls   int
	handles      []*recordingHandle
	successCalls []string
	errorCalls   []string
}

type recordingHandle struct {
	updates   []string
	resolved  []string
	dismissed int
}

func (h *recordingHandle) Update(message string)  { h.updates = append(h.updates, message) }
func (h *recordingHandle) Resolve(message string) { h.resolved = append(h.resolved, message) }
func (h *recordingHandle) Dismiss()               { h.dismissed++ }

func (f *fakeNotifier) StartLoading(message string) notify.LoadingHandle {
	f.startCalls++
	h := &recordingHandle{updates: []string{message}}
	f.handles = append(f.handles, h)
	return h
}

func (f *fakeNotifier) Success(message string) { f.successCalls = append(f.successCalls, message) }
func (f *fakeNotifier) Error(message string)   { f.errorCalls = append(f.errorCalls, message) }

func TestTracker_OneShotNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	tracker := NewTracker(defaultDetector(false), notifier)

	empty := []room.Participant{participant("user-1")}
	if got := tracker.Rescan(empty); got != StateConnecting {
		t.Fatalf("expected connecting, got %s", got)
	}
	// Unchanged snapshot: same state, no extra notification activity.
	if got := tracker.Rescan(empty); got != StateConnecting {
		t.Fatalf("expected connecting on identical rescan, got %s", got)
	}
	if notifier.startCalls != 1 {
		t.Fatalf("expected one loading start, got %d", notifier.startCalls)
	}

	withAgent := []room.Participant{participant("user-1"), participant("voice-agent")}
	if got := tracker.Rescan(withAgent); got != StateReady {
		t.Fatalf("expected ready, got %s", got)
	}
	if got := tracker.Rescan(withAgent); got != StateReady {
		t.Fatalf("expected ready on identical rescan, got %s", got)
	}

	if notifier.startCalls != 1 {
		t.Fatalf("expected loading started once, got %d", notifier.startCalls)
	}
	handle := notifier.handles[0]
	if len(handle.resolved) != 1 {
		t.Fatalf("expected handle resolved exactly once, got %d", len(handle.resolved))
	}
	if len(notifier.successCalls) != 0 {
		t.Fatalf("expected no standalone success toast, got %v", notifier.successCalls)
	}
}

func TestTracker_LoadingMessageFollowsSubState(t *testing.T) {
	notifier := &fakeNotifier{}
	tracker := NewTracker(defaultDetector(true), notifier)

	tracker.Rescan(nil)
	tracker.Rescan([]room.Participant{participant("voice-agent")})

	handle := notifier.handles[0]
	if len(handle.updates) != 2 {
		t.Fatalf("expected initial message plus one update, got %v", handle.updates)
	}
	if handle.updates[1] != "Waiting for the avatar to join..." {
		t.Fatalf("unexpected sub-state message: %q", handle.updates[1])
	}
}

func TestTracker_ReadyBeforeFirstRescan(t *testing.T) {
	notifier := &fakeNotifier{}
	tracker := NewTracker(defaultDetector(false), notifier)

	snapshot := []room.Participant{participant("voice-agent")}
	if got := tracker.Rescan(snapshot); got != StateReady {
		t.Fatalf("expected ready, got %s", got)
	}
	if notifier.startCalls != 0 {
		t.Fatalf("expected no loading toast, got %d", notifier.startCalls)
	}
	if len(notifier.successCalls) != 1 {
		t.Fatalf("expected one success toast, got %v", notifier.successCalls)
	}
	tracker.Rescan(snapshot)
	if len(notifier.successCalls) != 1 {
		t.Fatalf("success toast re-fired: %v", notifier.successCalls)
	}
}

func TestTracker_ContinueWithoutAvatar(t *testing.T) {
	notifier := &fakeNotifier{}
	tracker := NewTracker(defaultDetector(true), notifier)

	snapshot := []room.Participant{participant("voice-agent")}
	if got := tracker.Rescan(snapshot); got != StateWaitingForAvatar {
		t.Fatalf("expected waiting_for_avatar, got %s", got)
	}
	if got := tracker.ContinueWithoutAvatar(snapshot); got != StateReady {
		t.Fatalf("expected ready after disabling avatar mode, got %s", got)
	}
	if len(notifier.handles[0].resolved) != 1 {
		t.Fatal("expected loading handle resolved after escape")
	}
}
