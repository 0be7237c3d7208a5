package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one audio clip in the visible transcript.
type ChatMessage struct {
	Role  Role
	Audio []byte
}

// roundTripTimeout bounds the whole recognize-converse-synthesize round
// trip as observed by the client.
const roundTripTimeout = 60 * time.Second

// Session is one voice-chat session: an append-only log of audio clips, a
// duplicate-submission guard, and a one-shot autoplay mark for the newest
// assistant clip. It lives for the lifetime of the UI and is reset by
// recreating it.
type Session struct {
	backendURL string
	httpClient *http.Client
	logger     *zap.Logger

	messages      []ChatMessage
	lastSubmitted []byte
	autoplay      []byte
	lastError     string
}

// NewSession creates a session posting to the given chat endpoint URL.
func NewSession(backendURL string, logger *zap.Logger) *Session {
	return &Session{
		backendURL: backendURL,
		httpClient: &http.Client{Timeout: roundTripTimeout},
		logger:     logger,
	}
}

// Submit sends one recorded clip through the backend. A clip whose raw
// bytes equal the most recently submitted one is skipped entirely, so a
// re-render never re-triggers the same round trip. The user's clip stays
// in the log even when the round trip fails; failures are recorded for
// inline display and returned.
func (s *Session) Submit(ctx context.Context, clip []byte) error {
	if len(clip) == 0 {
		return fmt.Errorf("clip is empty")
	}
	if bytes.Equal(clip, s.lastSubmitted) {
		s.logger.Debug("Skipping duplicate clip", zap.Int("size", len(clip)))
		return nil
	}
	s.lastSubmitted = clip
	s.lastError = ""
	s.messages = append(s.messages, ChatMessage{Role: RoleUser, Audio: clip})

	reply, err := s.post(ctx, clip)
	if err != nil {
		s.lastError = err.Error()
		return err
	}

	s.messages = append(s.messages, ChatMessage{Role: RoleAssistant, Audio: reply})
	s.autoplay = reply
	return nil
}

func (s *Session) post(ctx context.Context, clip []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(clip); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.backendURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Surface the server's status and message verbatim.
		return nil, fmt.Errorf("error from server: %d - %s", resp.StatusCode, string(payload))
	}

	return payload, nil
}

// Messages returns the transcript in chronological order. The log is
// append-only; callers must not mutate the returned slice's clips.
func (s *Session) Messages() []ChatMessage {
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// NextAutoplay returns the clip marked for one-shot autoplay and clears
// the mark, so a repeated UI refresh does not replay it.
func (s *Session) NextAutoplay() []byte {
	clip := s.autoplay
	s.autoplay = nil
	return clip
}

// LastError returns the inline error message for the most recent round
// trip, or "" when it succeeded.
func (s *Session) LastError() string {
	return s.lastError
}
