package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
	"github.com/maoyuexin/stt-tts-chatbot/internal/events"
	"github.com/maoyuexin/stt-tts-chatbot/internal/metrics"
)

// ChatService runs the three stages of a chat turn strictly in sequence:
// recognize the upload, converse with the agent, synthesize the reply.
// Multiple requests may run their own pipeline instance concurrently; the
// adapters are read-only handles shared between them.
type ChatService struct {
	speechToText repositories.SpeechToText
	textToSpeech repositories.TextToSpeech
	conversation *ConversationService
	hub          *events.Hub
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewChatService creates a new chat pipeline.
func NewChatService(
	stt repositories.SpeechToText,
	tts repositories.TextToSpeech,
	conversation *ConversationService,
	hub *events.Hub,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		speechToText: stt,
		textToSpeech: tts,
		conversation: conversation,
		hub:          hub,
		metrics:      m,
		logger:       logger,
	}
}

// Chat processes one uploaded clip end-to-end and returns the synthesized
// reply as complete WAV bytes. Errors are classified: client-input errors
// satisfy domain.IsClientInput, upstream cancellations are
// *domain.CancellationError, anything else is internal.
func (s *ChatService) Chat(ctx context.Context, requestID string, upload []byte) ([]byte, error) {
	s.metrics.ChatRequests.Inc()
	s.metrics.UploadBytes.Observe(float64(len(upload)))
	s.publish(requestID, events.StageReceived, "")

	// Received -> Recognized
	format, frames, err := audio.Decode(upload)
	if err != nil {
		s.fail(requestID, "client_input", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrBadAudio, err)
	}

	start := time.Now()
	transcript, err := s.speechToText.Recognize(ctx, frames, format)
	s.observeStage(events.StageRecognized, start)
	if err != nil {
		s.fail(requestID, classify(err), err)
		return nil, err
	}
	if transcript == "" {
		err := domain.ErrNoSpeech
		s.fail(requestID, "client_input", err)
		return nil, err
	}
	s.publish(requestID, events.StageRecognized, transcript)

	// Recognized -> Replied. This transition always succeeds structurally;
	// the payload may be a fallback string.
	start = time.Now()
	reply := s.conversation.Reply(ctx, transcript)
	s.observeStage(events.StageReplied, start)
	s.publish(requestID, events.StageReplied, reply)

	// Replied -> Synthesized
	start = time.Now()
	speech, err := s.textToSpeech.Synthesize(ctx, reply)
	s.observeStage(events.StageSynthesized, start)
	if err != nil {
		s.fail(requestID, classify(err), err)
		return nil, err
	}
	if len(speech) == 0 {
		err := fmt.Errorf("synthesis produced no audio")
		s.fail(requestID, "upstream", err)
		return nil, err
	}
	s.publish(requestID, events.StageSynthesized, "")

	s.metrics.ChatSuccesses.Inc()
	s.metrics.ResponseBytes.Observe(float64(len(speech)))
	s.publish(requestID, events.StageResponded, "")

	s.logger.Info("Chat turn completed",
		zap.String("requestID", requestID),
		zap.String("transcript", transcript),
		zap.Int("audioSize", len(speech)))

	return speech, nil
}

func (s *ChatService) publish(requestID, stage, detail string) {
	if s.hub != nil {
		s.hub.Publish(requestID, stage, detail)
	}
}

func (s *ChatService) observeStage(stage string, start time.Time) {
	s.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (s *ChatService) fail(requestID, kind string, err error) {
	s.metrics.ChatFailures.WithLabelValues(kind).Inc()
	s.publish(requestID, events.StageErrored, err.Error())
	s.logger.Warn("Chat turn failed",
		zap.String("requestID", requestID),
		zap.String("kind", kind),
		zap.Error(err))
}

func classify(err error) string {
	if domain.IsClientInput(err) {
		return "client_input"
	}
	var cancellation *domain.CancellationError
	if errors.As(err, &cancellation) {
		return "upstream"
	}
	return "internal"
}
