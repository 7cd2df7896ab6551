package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxlane/apptvoice/internal/backend"
)

func TestCreateSession_Success(t *testing.T) {
	var gotPath string
	var gotRequest createSessionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(createSessionResponse{
			Token:           "jwt-token",
			URL:             "wss://rooms.example.com",
			RoomName:        "appt-room-1",
			ParticipantName: "web-user",
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL + "/")
	sess, err := client.CreateSession(context.Background(), backend.CreateSessionInput{
		ParticipantName: "web-user",
		AvatarMode:      true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if gotPath != "/api/sessions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotRequest.ParticipantName != "web-user" || !gotRequest.AvatarMode {
		t.Fatalf("unexpected request payload: %+v", gotRequest)
	}
	if sess.Token != "jwt-token" || sess.URL != "wss://rooms.example.com" || sess.RoomName != "appt-room-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestCreateSession_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.CreateSession(context.Background(), backend.CreateSessionInput{ParticipantName: "u"}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestCreateSession_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(createSessionResponse{URL: "wss://rooms.example.com"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.CreateSession(context.Background(), backend.CreateSessionInput{ParticipantName: "u"}); err == nil {
		t.Fatal("expected error for response without token")
	}
}
