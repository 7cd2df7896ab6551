package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/voxlane/apptvoice/internal/config"
)

type envConfig struct {
	Env                string   `env:"ENV" envDefault:"production"`
	BackendURL         string   `env:"BACKEND_URL,required"`
	ParticipantName    string   `env:"PARTICIPANT_NAME" envDefault:"web-user"`
	AvatarMode         bool     `env:"AVATAR_MODE" envDefault:"false"`
	VoiceAgentKeywords []string `env:"VOICE_AGENT_KEYWORDS" envSeparator:"," envDefault:"agent,voice"`
	ListenAddr         string   `env:"LISTEN_ADDR" envDefault:":8080"`
	AllowedOrigin      string   `env:"ALLOWED_ORIGIN" envDefault:"*"`
	DatabaseURL        string   `env:"DATABASE_URL"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                raw.Env,
		BackendURL:         raw.BackendURL,
		ParticipantName:    raw.ParticipantName,
		AvatarMode:         raw.AvatarMode,
		VoiceAgentKeywords: raw.VoiceAgentKeywords,
		ListenAddr:         raw.ListenAddr,
		AllowedOrigin:      raw.AllowedOrigin,
		DatabaseURL:        raw.DatabaseURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
