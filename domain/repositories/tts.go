package repositories

import "context"

// TextToSpeech abstracts speech synthesis services. The output format is
// fixed process-wide at construction time (RIFF 24kHz 16-bit mono PCM);
// callers never choose a format per call.
type TextToSpeech interface {
	// Synthesize converts non-empty text into a complete in-memory WAV
	// container. Returns a *domain.CancellationError when the engine
	// cancels; any other non-success outcome is an error, never
	// zero-length audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
