// Package gateway is the port for pushing derived UI state to connected
// browsers and receiving their commands.
package gateway

// Event type discriminators sent to browsers.
const (
	EventReadiness  = "readiness"
	EventTranscript = "transcript"
	EventToolCalls  = "tool_calls"
	EventSummary    = "summary"
	EventToast      = "toast"
	EventCallEnded  = "call_ended"
)

// Commands accepted from browsers.
const (
	CommandContinueWithoutAvatar = "continue_without_avatar"
)

type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

type CommandHandler interface {
	HandleCommand(command string)
}
