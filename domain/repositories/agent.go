package repositories

import "context"

// Role identifies the author of a thread message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RunStatus is the terminal state of an agent run.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusExpired   RunStatus = "expired"
)

// ThreadMessage is one message in a conversation thread. Texts holds the
// message's text segments in append order; the last segment is the
// authoritative one.
type ThreadMessage struct {
	Role  Role
	Texts []string
}

// Run is the terminal result of an agent run.
type Run struct {
	ID        string
	Status    RunStatus
	LastError string
}

// Agent abstracts a conversational-agent backend. Threads are provisioned
// server-side, used for exactly one user message and one run, then
// abandoned; the orchestrator only holds the identifier for the duration of
// the call.
type Agent interface {
	// CreateThread provisions a fresh conversation thread and returns its
	// identifier.
	CreateThread(ctx context.Context) (string, error)

	// CreateMessage appends one message to the thread.
	CreateMessage(ctx context.Context, threadID string, role Role, content string) error

	// Run executes the designated agent against the thread and blocks
	// until the run reaches a terminal state.
	Run(ctx context.Context, threadID string) (Run, error)

	// ListMessages returns the thread's messages ordered newest-first.
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}
