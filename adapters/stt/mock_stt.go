package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

// MockSpeechToText is a placeholder recognizer for local development and
// tests. Clips with no audible content recognize as nothing.
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service.
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{logger: logger}
}

// Recognize implements repositories.SpeechToText. Silence (all-zero frames)
// yields ErrNoSpeech; otherwise a canned transcript scaled to clip length.
func (s *MockSpeechToText) Recognize(ctx context.Context, frames []byte, format audio.Format) (string, error) {
	s.logger.Info("Processing speech-to-text",
		zap.Int("audioSize", len(frames)),
		zap.Int("sampleRate", format.SampleRate),
		zap.Int("bitsPerSample", format.BitsPerSample),
		zap.Int("channels", format.Channels))

	silent := true
	for _, b := range frames {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent || len(frames) == 0 {
		return "", domain.ErrNoSpeech
	}

	switch {
	case len(frames) > 100000:
		return "Hello there, I would like to tell you about my day.", nil
	case len(frames) > 10000:
		return "Hello, how are you today?", nil
	default:
		return "Hi", nil
	}
}
