package gateway

import (
	"sync"

	"github.com/google/uuid"
	gatewayport "github.com/voxlane/apptvoice/internal/gateway"
	"github.com/voxlane/apptvoice/internal/notify"
)

type toastPayload struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// ToastNotifier renders notifications as toast events on the gateway.
// A loading toast keeps one id across update/resolve/dismiss so the
// browser can transition it in place.
type ToastNotifier struct {
	broadcaster gatewayport.Broadcaster
}

func NewToastNotifier(b gatewayport.Broadcaster) notify.Notifier {
	return &ToastNotifier{broadcaster: b}
}

func (n *ToastNotifier) StartLoading(message string) notify.LoadingHandle {
	h := &loadingToast{broadcaster: n.broadcaster, id: uuid.NewString()}
	n.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: h.id, Kind: "loading", Message: message})
	return h
}

func (n *ToastNotifier) Success(message string) {
	n.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: uuid.NewString(), Kind: "success", Message: message})
}

func (n *ToastNotifier) Error(message string) {
	n.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: uuid.NewString(), Kind: "error", Message: message})
}

type loadingToast struct {
	broadcaster gatewayport.Broadcaster
	id          string

	mu   sync.Mutex
	done bool
}

func (t *loadingToast) Update(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: t.id, Kind: "loading", Message: message})
}

func (t *loadingToast) Resolve(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: t.id, Kind: "success", Message: message})
}

func (t *loadingToast) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	t.broadcaster.Broadcast(gatewayport.EventToast, toastPayload{ID: t.id, Kind: "dismiss"})
}
