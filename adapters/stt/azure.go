package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

const recognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"

// AzureConfig holds configuration for the Azure speech-to-text adapter.
// Key is required, plus either Region or Endpoint. Endpoint takes
// precedence when both are set.
type AzureConfig struct {
	Key      string
	Region   string
	Endpoint string
	Language string
}

// AzureSpeechToText implements SpeechToText against the Azure Speech
// short-audio REST API. The connection settings are read-only after
// construction, so one instance is safe for concurrent requests.
type AzureSpeechToText struct {
	key      string
	baseURL  string
	language string
	client   *http.Client
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*AzureSpeechToText)(nil)

// recognitionResponse is the simple-format result body.
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

// NewAzureSpeechToText creates a new Azure STT adapter.
func NewAzureSpeechToText(config AzureConfig, logger *zap.Logger) (*AzureSpeechToText, error) {
	if config.Key == "" {
		return nil, fmt.Errorf("azure speech key is required")
	}

	baseURL := config.Endpoint
	if baseURL == "" {
		if config.Region == "" {
			return nil, fmt.Errorf("azure speech region or endpoint is required")
		}
		baseURL = fmt.Sprintf("https://%s.stt.speech.microsoft.com", config.Region)
	}

	language := config.Language
	if language == "" {
		language = "en-US"
	}

	return &AzureSpeechToText{
		key:      config.Key,
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}, nil
}

// Recognize sends the raw PCM frames in one blocking pass and returns the
// recognized text. The frames are headerless; the format parsed from the
// upload's container header travels in the Content-Type so the engine
// reinterprets them correctly.
func (a *AzureSpeechToText) Recognize(ctx context.Context, frames []byte, format audio.Format) (string, error) {
	url := fmt.Sprintf("%s%s?language=%s&format=simple", a.baseURL, recognitionPath, a.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(frames))
	if err != nil {
		return "", fmt.Errorf("failed to create recognition request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", fmt.Sprintf(
		"audio/wav; codecs=audio/pcm; samplerate=%d; bitspersample=%d; channels=%d",
		format.SampleRate, format.BitsPerSample, format.Channels))

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read recognition response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Error("Azure recognition returned error",
			zap.Int("statusCode", resp.StatusCode),
			zap.String("response", string(body)))
		return "", &domain.CancellationError{
			Stage:  domain.StageRecognition,
			Reason: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Detail: string(body),
		}
	}

	var result recognitionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode recognition response: %w", err)
	}

	switch result.RecognitionStatus {
	case "Success":
		if result.DisplayText == "" {
			a.logger.Info("No speech could be recognized",
				zap.String("status", result.RecognitionStatus))
			return "", domain.ErrNoSpeech
		}
		a.logger.Info("Recognized speech", zap.String("text", result.DisplayText))
		return result.DisplayText, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		a.logger.Info("No speech could be recognized",
			zap.String("status", result.RecognitionStatus))
		return "", domain.ErrNoSpeech
	default:
		return "", &domain.CancellationError{
			Stage:  domain.StageRecognition,
			Reason: result.RecognitionStatus,
			Detail: string(body),
		}
	}
}
