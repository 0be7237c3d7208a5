package tts

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

// MockTextToSpeech is a placeholder synthesizer that produces a valid WAV
// clip in the process-wide output format: a short tone scaled to the text
// length.
type MockTextToSpeech struct {
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*MockTextToSpeech)(nil)

// NewMockTextToSpeech creates a new mock text-to-speech service.
func NewMockTextToSpeech(logger *zap.Logger) *MockTextToSpeech {
	return &MockTextToSpeech{logger: logger}
}

// Synthesize implements repositories.TextToSpeech.
func (t *MockTextToSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	t.logger.Info("Processing text-to-speech", zap.String("text", text))

	format := audio.Format{SampleRate: 24000, BitsPerSample: 16, Channels: 1}

	// Roughly 60ms of tone per character, clamped to keep tests fast.
	numSamples := len(text) * format.SampleRate * 60 / 1000
	if numSamples > format.SampleRate*5 {
		numSamples = format.SampleRate * 5
	}

	frames := make([]byte, numSamples*2)
	for i := 0; i < numSamples; i++ {
		ts := float64(i) / float64(format.SampleRate)
		sample := int16(8000.0 * math.Sin(2*math.Pi*330.0*ts))
		frames[2*i] = byte(sample)
		frames[2*i+1] = byte(sample >> 8)
	}

	return audio.Encode(frames, format)
}
