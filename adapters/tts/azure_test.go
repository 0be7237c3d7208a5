package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/internal/audio"
)

func newTestAzureTTS(t *testing.T, handler http.HandlerFunc) *AzureTextToSpeech {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewAzureTextToSpeech(AzureConfig{
		Key:      "test-key",
		Endpoint: server.URL,
		Voice:    "en-US-JennyNeural",
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAzureTextToSpeech failed: %v", err)
	}
	return adapter
}

func TestAzureSynthesizeSuccess(t *testing.T) {
	wantAudio := []byte("RIFF-fake-audio-bytes")
	var gotSSML string
	var gotFormat string

	adapter := newTestAzureTTS(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotSSML = string(body)
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		w.Write(wantAudio)
	})

	got, err := adapter.Synthesize(context.Background(), "Hello & goodbye")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !bytes.Equal(got, wantAudio) {
		t.Errorf("Expected audio bytes %q, got %q", wantAudio, got)
	}
	if gotFormat != "riff-24khz-16bit-mono-pcm" {
		t.Errorf("Expected fixed output format, got %q", gotFormat)
	}
	if !strings.Contains(gotSSML, "en-US-JennyNeural") {
		t.Errorf("Expected voice in SSML, got %q", gotSSML)
	}
	if !strings.Contains(gotSSML, "Hello &amp; goodbye") {
		t.Errorf("Expected escaped text in SSML, got %q", gotSSML)
	}
}

func TestAzureSynthesizeCancellation(t *testing.T) {
	adapter := newTestAzureTTS(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := adapter.Synthesize(context.Background(), "Hello")

	var cancellation *domain.CancellationError
	if !errors.As(err, &cancellation) {
		t.Fatalf("Expected CancellationError, got %v", err)
	}
	if cancellation.Stage != domain.StageSynthesis {
		t.Errorf("Expected synthesis stage, got %s", cancellation.Stage)
	}
	if !strings.Contains(cancellation.Detail, "quota exceeded") {
		t.Errorf("Expected detail to carry provider message, got %q", cancellation.Detail)
	}
}

func TestAzureSynthesizeEmptyBody(t *testing.T) {
	adapter := newTestAzureTTS(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Zero-length audio is a failure, not a valid clip.
	if _, err := adapter.Synthesize(context.Background(), "Hello"); err == nil {
		t.Error("Expected error for empty synthesis result")
	}
}

func TestAzureSynthesizeEmptyText(t *testing.T) {
	adapter := newTestAzureTTS(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Server should not be called for empty text")
	})

	if _, err := adapter.Synthesize(context.Background(), ""); err == nil {
		t.Error("Expected error for empty text")
	}
	if _, err := adapter.Synthesize(context.Background(), "   "); err == nil {
		t.Error("Expected error for whitespace-only text")
	}
}

func TestElevenLabsSynthesizeWrapsWAV(t *testing.T) {
	pcm := bytes.Repeat([]byte{0x01, 0x02}, 2400)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("Expected xi-api-key header, got %q", r.Header.Get("xi-api-key"))
		}
		w.Write(pcm)
	}))
	defer server.Close()

	adapter, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-key",
		APIBaseURL: server.URL,
	}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewElevenLabsTTS failed: %v", err)
	}

	wav, err := adapter.Synthesize(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	format, frames, err := audio.Decode(wav)
	if err != nil {
		t.Fatalf("Synthesized clip is not a valid WAV: %v", err)
	}
	want := audio.Format{SampleRate: 24000, BitsPerSample: 16, Channels: 1}
	if format != want {
		t.Errorf("Expected format %+v, got %+v", want, format)
	}
	if !bytes.Equal(frames, pcm) {
		t.Error("WAV frames differ from PCM stream")
	}
}

func TestNewElevenLabsTTSValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if _, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger); err == nil {
		t.Error("Expected error when API key is not set")
	}
	if _, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "k", Stability: 1.5}, logger); err == nil {
		t.Error("Expected error for out-of-range stability")
	}
}

func TestMockSynthesizeProducesValidWAV(t *testing.T) {
	mock := NewMockTextToSpeech(zaptest.NewLogger(t))

	wav, err := mock.Synthesize(context.Background(), "Hello, how are you?")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	format, frames, err := audio.Decode(wav)
	if err != nil {
		t.Fatalf("Mock clip is not a valid WAV: %v", err)
	}
	if format.SampleRate != 24000 || format.Channels != 1 || format.BitsPerSample != 16 {
		t.Errorf("Unexpected mock format %+v", format)
	}
	if len(frames) == 0 {
		t.Error("Expected non-empty frames")
	}
}
