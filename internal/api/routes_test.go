package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	agentadapter "github.com/maoyuexin/stt-tts-chatbot/adapters/agent"
	"github.com/maoyuexin/stt-tts-chatbot/adapters/stt"
	"github.com/maoyuexin/stt-tts-chatbot/adapters/tts"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
	"github.com/maoyuexin/stt-tts-chatbot/internal/metrics"
	"github.com/maoyuexin/stt-tts-chatbot/usecase"
)

func newTestServer(t *testing.T, agent *agentadapter.MockAgent) *echo.Echo {
	t.Helper()
	logger := zaptest.NewLogger(t)
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	conversation := usecase.NewConversationService(nil, m, logger)
	if agent != nil {
		conversation = usecase.NewConversationService(agent, m, logger)
	}
	chatService := usecase.NewChatService(
		stt.NewMockSpeechToText(logger),
		tts.NewMockTextToSpeech(logger),
		conversation,
		nil,
		m,
		logger,
	)

	e := echo.New()
	e.Use(middleware.RequestID())
	InitRoutes(e, chatService, nil, registry, logger)
	return e
}

// wavUpload builds a multipart body around a 3-second mono 16kHz clip.
func wavUpload(t *testing.T, silent bool) (*bytes.Buffer, string) {
	t.Helper()
	format := audio.Format{SampleRate: 16000, BitsPerSample: 16, Channels: 1}
	frames := make([]byte, 16000*2*3)
	if !silent {
		for i := range frames {
			frames[i] = byte(i % 251)
		}
	}
	clip, err := audio.Encode(frames, format)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(clip)
	writer.Close()

	return body, writer.FormDataContentType()
}

func TestChatEndpointSuccess(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("Hello from the agent!"))

	body, contentType := wavUpload(t, false)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentType); got != "audio/wav" {
		t.Errorf("Expected audio/wav content type, got %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("Expected non-empty binary body")
	}

	// Known-length payload, not chunked.
	length, err := strconv.Atoi(rec.Header().Get(echo.HeaderContentLength))
	if err != nil || length != rec.Body.Len() {
		t.Errorf("Expected exact Content-Length %d, got %q", rec.Body.Len(), rec.Header().Get(echo.HeaderContentLength))
	}

	if _, _, err := audio.Decode(rec.Body.Bytes()); err != nil {
		t.Errorf("Response body is not a valid WAV: %v", err)
	}
}

func TestChatEndpointSilentUpload(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("unused"))

	body, contentType := wavUpload(t, true)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Detail != "Could not understand the audio." {
		t.Errorf("Expected fixed no-speech detail, got %q", resp.Detail)
	}
}

func TestChatEndpointUninitializedAgent(t *testing.T) {
	// Agent backend down at startup: the diagnostic is synthesized and
	// returned with a 200.
	e := newTestServer(t, nil)

	body, contentType := wavUpload(t, false)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected synthesized diagnostic audio")
	}
}

func TestChatEndpointMalformedUpload(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("unused"))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "audio.wav")
	part.Write([]byte("this is not a WAV container"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestChatEndpointMissingFile(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("unused"))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("no file here"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestRootEndpoint(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("unused"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp RootResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode root response: %v", err)
	}
	if resp.Message == "" {
		t.Error("Expected informational acknowledgment")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t, agentadapter.NewMockAgent("Hi!"))

	// Drive one request through so counters exist.
	body, contentType := wavUpload(t, false)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	e.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chat_requests_total") {
		t.Error("Expected pipeline counters in metrics output")
	}
}
