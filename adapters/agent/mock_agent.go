package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
)

// MockAgent is an in-memory agent backend for local development and tests.
// Its ListMessages enforces the same newest-first order as the real
// backend, so reply-selection logic is exercised against identical
// ordering guarantees.
type MockAgent struct {
	// Reply is appended as the assistant message on a successful run.
	Reply string

	// RunError marks runs as failed with this as the last recorded error.
	RunError string

	// Silent suppresses the assistant message: the run completes but no
	// reply is appended to the thread.
	Silent bool

	// Err is returned from every call when set.
	Err error

	mu      sync.Mutex
	threads map[string][]repositories.ThreadMessage
}

var _ repositories.Agent = (*MockAgent)(nil)

// NewMockAgent creates a mock agent that answers with a canned reply.
func NewMockAgent(reply string) *MockAgent {
	return &MockAgent{
		Reply:   reply,
		threads: make(map[string][]repositories.ThreadMessage),
	}
}

func (m *MockAgent) CreateThread(ctx context.Context) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	threadID := "thread_" + uuid.NewString()
	m.threads[threadID] = nil
	return threadID, nil
}

func (m *MockAgent) CreateMessage(ctx context.Context, threadID string, role repositories.Role, content string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.threads[threadID]; !ok {
		return fmt.Errorf("unknown thread: %s", threadID)
	}
	m.threads[threadID] = append(m.threads[threadID], repositories.ThreadMessage{
		Role:  role,
		Texts: []string{content},
	})
	return nil
}

func (m *MockAgent) Run(ctx context.Context, threadID string) (repositories.Run, error) {
	if m.Err != nil {
		return repositories.Run{}, m.Err
	}

	runID := "run_" + uuid.NewString()
	if m.RunError != "" {
		return repositories.Run{
			ID:        runID,
			Status:    repositories.RunStatusFailed,
			LastError: m.RunError,
		}, nil
	}

	if !m.Silent {
		m.mu.Lock()
		m.threads[threadID] = append(m.threads[threadID], repositories.ThreadMessage{
			Role:  repositories.RoleAssistant,
			Texts: []string{m.Reply},
		})
		m.mu.Unlock()
	}

	return repositories.Run{ID: runID, Status: repositories.RunStatusCompleted}, nil
}

func (m *MockAgent) ListMessages(ctx context.Context, threadID string) ([]repositories.ThreadMessage, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	history, ok := m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("unknown thread: %s", threadID)
	}

	messages := make([]repositories.ThreadMessage, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages, history[i])
	}
	return messages, nil
}

// AppendAssistant adds an assistant message with the given text segments,
// bypassing Run. Tests use it to shape thread contents directly.
func (m *MockAgent) AppendAssistant(threadID string, texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads[threadID] = append(m.threads[threadID], repositories.ThreadMessage{
		Role:  repositories.RoleAssistant,
		Texts: texts,
	})
}
