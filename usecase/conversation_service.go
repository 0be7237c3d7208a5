package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/metrics"
)

// Fixed degrade strings. The conversation stage's contract is "always
// returns text": downstream synthesis has no way to handle an absent
// reply, so every failure here becomes speakable text instead.
const (
	replyNotInitialized = "Error: AI agent client is not initialized. Check server logs."
	replyNoResponse     = "Sorry, I couldn't get a response."
	replyInternalError  = "I'm sorry, but I encountered an error while trying to process your request."
)

// ConversationService runs one agent turn per utterance: provision a fresh
// thread, post the transcript as the user message, run the agent to a
// terminal state, and pick the latest assistant reply.
type ConversationService struct {
	agent   repositories.Agent
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewConversationService creates a new conversation service. agent may be
// nil when the backend connection could not be established at startup; every
// call then short-circuits to a fixed diagnostic.
func NewConversationService(agent repositories.Agent, m *metrics.Metrics, logger *zap.Logger) *ConversationService {
	return &ConversationService{agent: agent, metrics: m, logger: logger}
}

// Reply returns the agent's reply for the transcript. It never fails:
// agent-subsystem errors are absorbed and converted to user-visible text.
func (s *ConversationService) Reply(ctx context.Context, transcript string) string {
	if s.agent == nil {
		s.countFallback()
		return replyNotInitialized
	}

	s.logger.Info("User said", zap.String("text", transcript))

	reply, err := s.converse(ctx, transcript)
	if err != nil {
		s.logger.Error("Agent interaction failed", zap.Error(err))
		s.countFallback()
		return replyInternalError
	}

	s.logger.Info("Agent responded", zap.String("text", reply))
	return reply
}

func (s *ConversationService) converse(ctx context.Context, transcript string) (string, error) {
	threadID, err := s.agent.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	if err := s.agent.CreateMessage(ctx, threadID, repositories.RoleUser, transcript); err != nil {
		return "", fmt.Errorf("failed to post user message: %w", err)
	}

	run, err := s.agent.Run(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("run failed: %w", err)
	}
	if run.Status == repositories.RunStatusFailed {
		s.logger.Warn("Run failed", zap.String("runID", run.ID), zap.String("lastError", run.LastError))
		s.countFallback()
		return fmt.Sprintf("The agent encountered an error: %s", run.LastError), nil
	}

	messages, err := s.agent.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}

	// Messages arrive newest-first, so a linear scan stopping at the first
	// assistant-authored message yields the latest reply. When a message
	// has multiple text segments, the last appended one is authoritative.
	for _, message := range messages {
		if message.Role == repositories.RoleAssistant && len(message.Texts) > 0 {
			return message.Texts[len(message.Texts)-1], nil
		}
	}

	s.countFallback()
	return replyNoResponse, nil
}

func (s *ConversationService) countFallback() {
	if s.metrics != nil {
		s.metrics.AgentFallbacks.Inc()
	}
}
