package config

import (
	"fmt"
	"net/url"
	"strings"
)

type Config struct {
	Env                string
	BackendURL         string
	ParticipantName    string
	AvatarMode         bool
	VoiceAgentKeywords []string
	ListenAddr         string
	AllowedOrigin      string
	DatabaseURL        string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("BACKEND_URL is invalid: %w", err)
	}
	if len(c.VoiceAgentKeywords) == 0 {
		return fmt.Errorf("VOICE_AGENT_KEYWORDS must not be empty")
	}
	for _, kw := range c.VoiceAgentKeywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("VOICE_AGENT_KEYWORDS contains an empty keyword")
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "BACKEND_URL", value: c.BackendURL},
		{name: "PARTICIPANT_NAME", value: c.ParticipantName},
		{name: "LISTEN_ADDR", value: c.ListenAddr},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ArchiveEnabled reports whether completed sessions should be persisted.
// An empty DATABASE_URL disables archiving entirely.
func (c *Config) ArchiveEnabled() bool {
	return c.DatabaseURL != ""
}
