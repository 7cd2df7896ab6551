// Package notify is the port for transient user-facing notifications
// (toasts in the browser UI).
package notify

// LoadingHandle controls a single in-progress loading notification.
// Resolve and Dismiss are terminal; later calls on the handle are no-ops.
type LoadingHandle interface {
	Update(message string)
	Resolve(message string)
	Dismiss()
}

type Notifier interface {
	StartLoading(message string) LoadingHandle
	Success(message string)
	Error(message string)
}
