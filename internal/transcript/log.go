// Package transcript merges two independently-arriving utterance
// sources, discrete chat messages and incrementally-streamed speech
// segments, into one display-ready sequence ordered by timestamp.
package transcript

import (
	"fmt"
	"sort"
	"sync"
)

type Origin string

const (
	OriginChat          Origin = "chat"
	OriginTranscription Origin = "transcription"
)

type Entry struct {
	ID              string `json:"id"`
	SpeakerIdentity string `json:"speaker_identity"`
	SpeakerName     string `json:"speaker_name,omitempty"`
	Text            string `json:"text"`
	TimestampMillis int64  `json:"timestamp_millis"`
	Origin          Origin `json:"origin"`
	Final           bool   `json:"final"`
}

type segmentBuffer struct {
	entry Entry
}

// Log accumulates chat entries and transcription segments. Chat entries
// are immutable once added. A segment entry is replaced in place on
// every chunk, keyed by (speaker identity, segment id), and frozen once
// finalized. The merged view is rebuilt in full on read; per-session
// entry volume is bounded by conversation length, so the resort cost is
// accepted over incremental bookkeeping.
type Log struct {
	mu       sync.Mutex
	chat     []Entry
	segments map[string]*segmentBuffer
	order    []string
}

func NewLog() *Log {
	return &Log{segments: make(map[string]*segmentBuffer)}
}

func segmentKey(identity, segmentID string) string {
	return identity + ":" + segmentID
}

// SegmentEntryID is the stable display id of a transcription segment.
func SegmentEntryID(identity, segmentID string) string {
	return fmt.Sprintf("seg-%s-%s", identity, segmentID)
}

func (l *Log) AddChat(e Entry) {
	e.Origin = OriginChat
	e.Final = true
	l.mu.Lock()
	l.chat = append(l.chat, e)
	l.mu.Unlock()
}

// UpdateSegment replaces the segment's interim entry with the current
// accumulated text and refreshes its timestamp, so an actively-updating
// utterance keeps its current position in the ordering. The caller owns
// chunk concatenation; each call carries the full text so far.
func (l *Log) UpdateSegment(identity, name, segmentID, text string, timestampMillis int64) {
	key := segmentKey(identity, segmentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	buf, ok := l.segments[key]
	if !ok {
		buf = &segmentBuffer{entry: Entry{
			ID:              SegmentEntryID(identity, segmentID),
			SpeakerIdentity: identity,
			SpeakerName:     name,
			Origin:          OriginTranscription,
		}}
		l.segments[key] = buf
		l.order = append(l.order, key)
	}
	if buf.entry.Final {
		return
	}
	buf.entry.Text = text
	buf.entry.TimestampMillis = timestampMillis
}

// FinalizeSegment freezes the segment and returns its entry. The second
// return is false when the segment is unknown or already final.
func (l *Log) FinalizeSegment(identity, segmentID string) (Entry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf, ok := l.segments[segmentKey(identity, segmentID)]
	if !ok || buf.entry.Final {
		return Entry{}, false
	}
	buf.entry.Final = true
	return buf.entry, true
}

// DiscardSegment drops a non-final segment, used when its stream errors
// mid-utterance. Finalized segments are kept.
func (l *Log) DiscardSegment(identity, segmentID string) {
	key := segmentKey(identity, segmentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	buf, ok := l.segments[key]
	if !ok || buf.entry.Final {
		return
	}
	delete(l.segments, key)
	for i, k := range l.order {
		if k == key {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Entries rebuilds the merged display list: both sources concatenated
// and stable-sorted ascending by timestamp.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	merged := make([]Entry, 0, len(l.chat)+len(l.order))
	merged = append(merged, l.chat...)
	for _, key := range l.order {
		merged = append(merged, l.segments[key].entry)
	}
	l.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].TimestampMillis < merged[j].TimestampMillis
	})
	return merged
}
