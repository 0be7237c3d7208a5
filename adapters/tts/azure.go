package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
)

const (
	synthesisPath = "/cognitiveservices/v1"

	// Output format fixed process-wide: RIFF 24kHz 16-bit mono PCM.
	outputFormat = "riff-24khz-16bit-mono-pcm"
)

// AzureConfig holds configuration for the Azure text-to-speech adapter.
type AzureConfig struct {
	Key      string
	Region   string
	Endpoint string
	Voice    string
	Language string
}

// AzureTextToSpeech implements TextToSpeech against the Azure Speech
// synthesis REST API, returning the complete encoded audio in memory.
type AzureTextToSpeech struct {
	key      string
	baseURL  string
	voice    string
	language string
	client   *http.Client
	logger   *zap.Logger
}

var _ repositories.TextToSpeech = (*AzureTextToSpeech)(nil)

// NewAzureTextToSpeech creates a new Azure TTS adapter.
func NewAzureTextToSpeech(config AzureConfig, logger *zap.Logger) (*AzureTextToSpeech, error) {
	if config.Key == "" {
		return nil, fmt.Errorf("azure speech key is required")
	}

	baseURL := config.Endpoint
	if baseURL == "" {
		if config.Region == "" {
			return nil, fmt.Errorf("azure speech region or endpoint is required")
		}
		baseURL = fmt.Sprintf("https://%s.tts.speech.microsoft.com", config.Region)
	}

	voice := config.Voice
	if voice == "" {
		voice = "en-US-JennyNeural"
	}
	language := config.Language
	if language == "" {
		language = "en-US"
	}

	return &AzureTextToSpeech{
		key:      config.Key,
		baseURL:  baseURL,
		voice:    voice,
		language: language,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}, nil
}

// Synthesize converts text into a complete WAV clip, blocking until the
// engine finishes.
func (a *AzureTextToSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		a.language, a.voice, escapeSSML(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+synthesisPath, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "stt-tts-chatbot")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Azure synthesis returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(body)))
		return nil, &domain.CancellationError{
			Stage:  domain.StageSynthesis,
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Detail: string(body),
		}
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("synthesis returned empty audio")
	}

	a.logger.Info("Synthesis completed",
		zap.String("voice", a.voice),
		zap.Int("audioSize", len(body)))

	return body, nil
}

// escapeSSML escapes characters that would break the SSML document.
func escapeSSML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(text)
}
