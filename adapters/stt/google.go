package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

// GoogleSpeechToText implements SpeechToText using Google Cloud
// Speech-to-Text. The client is provisioned once at startup and shared
// across requests. Authentication uses application default credentials.
type GoogleSpeechToText struct {
	client   *speech.Client
	language string
	logger   *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud STT adapter.
func NewGoogleSpeechToText(ctx context.Context, language string, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	if language == "" {
		language = "en-US"
	}

	return &GoogleSpeechToText{
		client:   client,
		language: language,
		logger:   logger,
	}, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// Recognize performs one blocking recognition pass over the raw PCM frames.
func (g *GoogleSpeechToText) Recognize(ctx context.Context, frames []byte, format audio.Format) (string, error) {
	if format.BitsPerSample != 16 {
		return "", fmt.Errorf("google recognizer requires 16-bit PCM, got %d bits per sample", format.BitsPerSample)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(format.SampleRate),
			AudioChannelCount: int32(format.Channels),
			LanguageCode:      g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: frames},
		},
	})
	if err != nil {
		return "", &domain.CancellationError{
			Stage:  domain.StageRecognition,
			Reason: "RecognizeFailed",
			Detail: err.Error(),
		}
	}

	// Take the best alternative of the first result.
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 && result.Alternatives[0].Transcript != "" {
			transcript := result.Alternatives[0].Transcript
			g.logger.Info("Recognized speech", zap.String("text", transcript))
			return transcript, nil
		}
	}

	g.logger.Info("No speech could be recognized")
	return "", domain.ErrNoSpeech
}
