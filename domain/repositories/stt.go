package repositories

import (
	"context"

	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

// SpeechToText abstracts speech recognition services.
type SpeechToText interface {
	// Recognize performs one blocking, non-streaming recognition pass over
	// raw PCM frames tagged with their format. Returns domain.ErrNoSpeech
	// when the audio contains no recognizable speech and a
	// *domain.CancellationError when the engine cancels.
	Recognize(ctx context.Context, frames []byte, format audio.Format) (string, error)
}
