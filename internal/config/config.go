package config

import (
	"fmt"
	"os"
)

// Provider names accepted by the *_PROVIDER variables.
const (
	ProviderAzure      = "azure"
	ProviderGoogle     = "google"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"
)

// Config holds the process-wide configuration. It is read from the
// environment exactly once at startup and passed by reference afterwards.
type Config struct {
	Port   string
	Speech SpeechConfig
	TTS    TTSConfig
	Agent  AgentConfig
}

// SpeechConfig configures the recognition service connection.
type SpeechConfig struct {
	Provider string
	Key      string
	Region   string
	Endpoint string
	Language string
}

// TTSConfig configures the synthesis service connection. The Azure provider
// reuses the speech credential; ElevenLabs carries its own key.
type TTSConfig struct {
	Provider      string
	Voice         string
	ElevenLabsKey string
}

// AgentConfig configures the conversational-agent backend.
type AgentConfig struct {
	Provider        string
	ProjectEndpoint string
	AgentID         string
	Token           string
	GeminiAPIKey    string
	GeminiModel     string
}

// Load reads configuration from the environment and validates it. A missing
// required value is a hard startup abort, not a runtime error.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getenv("PORT", "8080"),
		Speech: SpeechConfig{
			Provider: getenv("SPEECH_PROVIDER", ProviderAzure),
			Key:      os.Getenv("SPEECH_KEY"),
			Region:   os.Getenv("SPEECH_REGION"),
			Endpoint: os.Getenv("SPEECH_ENDPOINT"),
			Language: getenv("SPEECH_LANGUAGE", "en-US"),
		},
		TTS: TTSConfig{
			Provider:      getenv("TTS_PROVIDER", ProviderAzure),
			Voice:         getenv("SPEECH_VOICE", "en-US-JennyNeural"),
			ElevenLabsKey: os.Getenv("ELEVEN_LABS_API_KEY"),
		},
		Agent: AgentConfig{
			Provider:        getenv("AGENT_PROVIDER", ProviderAzure),
			ProjectEndpoint: os.Getenv("AI_PROJECT_ENDPOINT"),
			AgentID:         os.Getenv("AGENT_ID"),
			Token:           os.Getenv("AI_PROJECT_TOKEN"),
			GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
			GeminiModel:     getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Speech.Provider {
	case ProviderAzure:
		if c.Speech.Key == "" {
			return fmt.Errorf("SPEECH_KEY environment variable is required")
		}
		if c.Speech.Region == "" && c.Speech.Endpoint == "" {
			return fmt.Errorf("SPEECH_REGION or SPEECH_ENDPOINT environment variable is required")
		}
	case ProviderGoogle, ProviderMock:
	default:
		return fmt.Errorf("unsupported speech provider: %s", c.Speech.Provider)
	}

	switch c.TTS.Provider {
	case ProviderAzure:
		if c.Speech.Key == "" {
			return fmt.Errorf("SPEECH_KEY environment variable is required for Azure synthesis")
		}
		if c.Speech.Region == "" && c.Speech.Endpoint == "" {
			return fmt.Errorf("SPEECH_REGION or SPEECH_ENDPOINT environment variable is required for Azure synthesis")
		}
	case ProviderElevenLabs:
		if c.TTS.ElevenLabsKey == "" {
			return fmt.Errorf("ELEVEN_LABS_API_KEY environment variable is required")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported TTS provider: %s", c.TTS.Provider)
	}

	switch c.Agent.Provider {
	case ProviderAzure:
		if c.Agent.ProjectEndpoint == "" || c.Agent.AgentID == "" {
			return fmt.Errorf("AI_PROJECT_ENDPOINT and AGENT_ID environment variables are required")
		}
	case ProviderGemini:
		if c.Agent.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unsupported agent provider: %s", c.Agent.Provider)
	}

	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
