package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiAgent implements the Agent interface on top of the Gemini API.
// Threads live in process memory: each one is provisioned fresh for a
// single utterance, runs resolve to a GenerateContent call over the
// thread's messages, and the assistant reply is appended to the thread.
type GeminiAgent struct {
	client *genai.Client
	model  string
	logger *zap.Logger

	mu      sync.Mutex
	threads map[string][]repositories.ThreadMessage
}

var _ repositories.Agent = (*GeminiAgent)(nil)

// NewGeminiAgent creates a Gemini-backed agent. The client is provisioned
// once and shared by all in-flight requests.
func NewGeminiAgent(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAgent, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiAgent{
		client:  client,
		model:   model,
		logger:  logger,
		threads: make(map[string][]repositories.ThreadMessage),
	}, nil
}

// CreateThread provisions a fresh in-memory thread.
func (g *GeminiAgent) CreateThread(ctx context.Context) (string, error) {
	threadID := "thread_" + uuid.NewString()

	g.mu.Lock()
	g.threads[threadID] = nil
	g.mu.Unlock()

	g.logger.Info("Created thread", zap.String("threadID", threadID))
	return threadID, nil
}

// CreateMessage appends one message to the thread.
func (g *GeminiAgent) CreateMessage(ctx context.Context, threadID string, role repositories.Role, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.threads[threadID]; !ok {
		return fmt.Errorf("unknown thread: %s", threadID)
	}
	g.threads[threadID] = append(g.threads[threadID], repositories.ThreadMessage{
		Role:  role,
		Texts: []string{content},
	})
	return nil
}

// Run generates a reply over the thread's messages. A generation failure is
// a failed run, not an error: the caller embeds LastError in its fallback.
func (g *GeminiAgent) Run(ctx context.Context, threadID string) (repositories.Run, error) {
	g.mu.Lock()
	history := append([]repositories.ThreadMessage(nil), g.threads[threadID]...)
	g.mu.Unlock()

	if len(history) == 0 {
		return repositories.Run{}, fmt.Errorf("unknown or empty thread: %s", threadID)
	}

	contents := contentsFromHistory(history)
	runID := "run_" + uuid.NewString()

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.logger.Warn("Generation failed", zap.String("runID", runID), zap.Error(err))
		return repositories.Run{
			ID:        runID,
			Status:    repositories.RunStatusFailed,
			LastError: err.Error(),
		}, nil
	}

	var responseText string
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			responseText += part.Text
		}
	}
	if responseText == "" {
		return repositories.Run{
			ID:        runID,
			Status:    repositories.RunStatusFailed,
			LastError: "no content generated",
		}, nil
	}

	g.mu.Lock()
	g.threads[threadID] = append(g.threads[threadID], repositories.ThreadMessage{
		Role:  repositories.RoleAssistant,
		Texts: []string{responseText},
	})
	g.mu.Unlock()

	g.logger.Info("Run completed", zap.String("runID", runID), zap.String("threadID", threadID))
	return repositories.Run{ID: runID, Status: repositories.RunStatusCompleted}, nil
}

// ListMessages returns a newest-first copy of the thread's messages.
// Threads are one-shot: reading a thread retires it, so abandoned ones do
// not accumulate in a long-running process.
func (g *GeminiAgent) ListMessages(ctx context.Context, threadID string) ([]repositories.ThreadMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	history, ok := g.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("unknown thread: %s", threadID)
	}
	delete(g.threads, threadID)

	messages := make([]repositories.ThreadMessage, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages, history[i])
	}
	return messages, nil
}

// contentsFromHistory flattens thread messages into the request contents,
// mapping assistant-authored segments to the model role.
func contentsFromHistory(history []repositories.ThreadMessage) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == repositories.RoleAssistant {
			role = genai.RoleModel
		}
		for _, text := range msg.Texts {
			contents = append(contents, genai.NewContentFromText(text, role))
		}
	}
	return contents
}
