package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
)

const (
	defaultAPIVersion   = "2024-05-01-preview"
	defaultPollInterval = 500 * time.Millisecond
)

// AzureConfig holds configuration for the Azure AI Agents adapter.
// Endpoint and AgentID are required; Token is the pass-through bearer
// credential.
type AzureConfig struct {
	Endpoint     string
	AgentID      string
	Token        string
	APIVersion   string
	PollInterval time.Duration
}

// AzureAgent implements the Agent interface against the Azure AI Agents
// REST API: provision thread, append message, run to terminal state, list
// messages newest-first.
type AzureAgent struct {
	endpoint     string
	agentID      string
	token        string
	apiVersion   string
	pollInterval time.Duration
	client       *http.Client
	logger       *zap.Logger
}

var _ repositories.Agent = (*AzureAgent)(nil)

type threadResource struct {
	ID string `json:"id"`
}

type runResource struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_error"`
}

type messageList struct {
	Data []messageResource `json:"data"`
}

type messageResource struct {
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// NewAzureAgent creates a new Azure AI Agents adapter.
func NewAzureAgent(config AzureConfig, logger *zap.Logger) (*AzureAgent, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("agent project endpoint is required")
	}
	if config.AgentID == "" {
		return nil, fmt.Errorf("agent identifier is required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("agent project token is required")
	}

	apiVersion := config.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	return &AzureAgent{
		endpoint:     strings.TrimRight(config.Endpoint, "/"),
		agentID:      config.AgentID,
		token:        config.Token,
		apiVersion:   apiVersion,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}, nil
}

// CreateThread provisions a fresh conversation thread.
func (a *AzureAgent) CreateThread(ctx context.Context) (string, error) {
	var thread threadResource
	if err := a.do(ctx, http.MethodPost, "/threads", "", nil, &thread); err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}

	a.logger.Info("Created thread", zap.String("threadID", thread.ID))
	return thread.ID, nil
}

// CreateMessage appends one message to the thread.
func (a *AzureAgent) CreateMessage(ctx context.Context, threadID string, role repositories.Role, content string) error {
	payload := map[string]string{
		"role":    string(role),
		"content": content,
	}
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := a.do(ctx, http.MethodPost, path, "", payload, nil); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// Run starts a run of the designated agent against the thread and polls
// until it reaches a terminal state.
func (a *AzureAgent) Run(ctx context.Context, threadID string) (repositories.Run, error) {
	payload := map[string]string{"assistant_id": a.agentID}

	var run runResource
	path := fmt.Sprintf("/threads/%s/runs", threadID)
	if err := a.do(ctx, http.MethodPost, path, "", payload, &run); err != nil {
		return repositories.Run{}, fmt.Errorf("failed to create run: %w", err)
	}

	for !isTerminal(run.Status) {
		select {
		case <-ctx.Done():
			return repositories.Run{}, fmt.Errorf("run polling interrupted: %w", ctx.Err())
		case <-time.After(a.pollInterval):
		}

		pollPath := fmt.Sprintf("/threads/%s/runs/%s", threadID, run.ID)
		if err := a.do(ctx, http.MethodGet, pollPath, "", nil, &run); err != nil {
			return repositories.Run{}, fmt.Errorf("failed to poll run: %w", err)
		}
	}

	result := repositories.Run{
		ID:     run.ID,
		Status: repositories.RunStatus(run.Status),
	}
	if run.LastError != nil {
		result.LastError = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
	}

	a.logger.Info("Run reached terminal state",
		zap.String("runID", run.ID),
		zap.String("status", run.Status))

	return result, nil
}

// ListMessages returns the thread's messages ordered newest-first, each
// message carrying its text segments in append order.
func (a *AzureAgent) ListMessages(ctx context.Context, threadID string) ([]repositories.ThreadMessage, error) {
	var list messageList
	path := fmt.Sprintf("/threads/%s/messages", threadID)
	if err := a.do(ctx, http.MethodGet, path, "order=desc", nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]repositories.ThreadMessage, 0, len(list.Data))
	for _, m := range list.Data {
		msg := repositories.ThreadMessage{Role: repositories.Role(m.Role)}
		for _, c := range m.Content {
			if c.Type == "text" {
				msg.Texts = append(msg.Texts, c.Text.Value)
			}
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// do issues one API call against the project endpoint. query carries extra
// query parameters; api-version is always appended.
func (a *AzureAgent) do(ctx context.Context, method, path, query string, payload, result any) error {
	url := fmt.Sprintf("%s%s?api-version=%s", a.endpoint, path, a.apiVersion)
	if query != "" {
		url += "&" + query
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("agent API returned %d: %s", resp.StatusCode, string(errorBody))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func isTerminal(status string) bool {
	switch repositories.RunStatus(status) {
	case repositories.RunStatusCompleted, repositories.RunStatusFailed,
		repositories.RunStatusCancelled, repositories.RunStatusExpired:
		return true
	}
	return false
}
