package session

import "time"

type ToolCallStatus string

const (
	ToolCallStatusSuccess ToolCallStatus = "success"
	ToolCallStatusError   ToolCallStatus = "error"
	ToolCallStatusPending ToolCallStatus = "pending"
)

// ToolCallRecord is one tool invocation reported by the voice agent.
// Immutable after creation.
type ToolCallRecord struct {
	ID         string         `json:"id"`
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Result     string         `json:"result"`
	Status     ToolCallStatus `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
}

// toolCallLog keeps records in arrival order; Display returns them
// most-recent-first for the activity panel.
type toolCallLog struct {
	records []ToolCallRecord
}

func (l *toolCallLog) Append(r ToolCallRecord) {
	l.records = append(l.records, r)
}

func (l *toolCallLog) Display() []ToolCallRecord {
	out := make([]ToolCallRecord, len(l.records))
	for i, r := range l.records {
		out[len(l.records)-1-i] = r
	}
	return out
}

// ConversationSummary is the terminal per-session summary published by
// the voice agent; it opens the summary modal and is never mutated.
type ConversationSummary struct {
	UserID                *string          `json:"user_id,omitempty"`
	UserPhone             *string          `json:"user_phone,omitempty"`
	ConversationDate      string           `json:"conversation_date"`
	DurationMinutes       *int             `json:"duration_minutes,omitempty"`
	AppointmentsDiscussed []map[string]any `json:"appointments_discussed,omitempty"`
	UserPreferences       []string         `json:"user_preferences,omitempty"`
	SummaryText           string           `json:"summary_text"`
}
