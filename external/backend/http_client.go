package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voxlane/apptvoice/internal/backend"
)

const sessionsPath = "/api/sessions"

type createSessionRequest struct {
	ParticipantName string `json:"participant_name"`
	AvatarMode      bool   `json:"avatar_mode"`
}

type createSessionResponse struct {
	Token           string `json:"token"`
	URL             string `json:"url"`
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) backend.Client {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateSession(ctx context.Context, input backend.CreateSessionInput) (*backend.Session, error) {
	b, err := json.Marshal(createSessionRequest{
		ParticipantName: input.ParticipantName,
		AvatarMode:      input.AvatarMode,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sessionsPath, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("session endpoint returned status %d", resp.StatusCode)
	}
	var decoded createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	if decoded.Token == "" || decoded.URL == "" {
		return nil, fmt.Errorf("session response missing token or url")
	}
	return &backend.Session{
		Token:           decoded.Token,
		URL:             decoded.URL,
		RoomName:        decoded.RoomName,
		ParticipantName: decoded.ParticipantName,
	}, nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
