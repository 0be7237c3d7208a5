package domain

import (
	"errors"
	"fmt"
)

// Classified pipeline errors. Client-input errors map to a 400 at the HTTP
// boundary, cancellations to a 500 carrying the provider's reason and detail.
var (
	// ErrNoSpeech indicates the uploaded audio contained no recognizable
	// speech. A client-input error, never retried.
	ErrNoSpeech = errors.New("no speech could be recognized")

	// ErrBadAudio indicates a malformed or missing waveform container
	// header. Fatal for the request, classified as client input.
	ErrBadAudio = errors.New("malformed audio container")
)

// Stages where an upstream engine can report a cancellation.
const (
	StageRecognition = "Speech Recognition"
	StageSynthesis   = "Text-to-Speech"
)

// CancellationError carries an engine-side cancellation with the provider's
// reason and machine detail. Reported as an upstream (server) error.
type CancellationError struct {
	Stage  string
	Reason string
	Detail string
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("%s canceled: %s. Error: %s", e.Stage, e.Reason, e.Detail)
}

// IsClientInput reports whether err is a client-input error rather than an
// upstream or internal one.
func IsClientInput(err error) bool {
	return errors.Is(err, ErrNoSpeech) || errors.Is(err, ErrBadAudio)
}
