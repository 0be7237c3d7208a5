package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/adapters/agent"
	"github.com/maoyuexin/stt-tts-chatbot/adapters/stt"
	"github.com/maoyuexin/stt-tts-chatbot/adapters/tts"
	"github.com/maoyuexin/stt-tts-chatbot/domain/repositories"
	"github.com/maoyuexin/stt-tts-chatbot/internal/api"
	"github.com/maoyuexin/stt-tts-chatbot/internal/config"
	"github.com/maoyuexin/stt-tts-chatbot/internal/events"
	"github.com/maoyuexin/stt-tts-chatbot/internal/metrics"
	"github.com/maoyuexin/stt-tts-chatbot/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize adapters
	speechToText, err := buildSpeechToText(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech recognition", zap.Error(err))
	}
	textToSpeech, err := buildTextToSpeech(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize speech synthesis", zap.Error(err))
	}

	// A broken agent client is tolerated: the pipeline still answers every
	// request, speaking a diagnostic instead of a reply.
	agentClient, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize agent client, conversations will report the outage", zap.Error(err))
		agentClient = nil
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Initialize WebSocket hub for pipeline progress events
	hub := events.NewHub(logger)
	go hub.Run()

	// Initialize usecase services
	conversationService := usecase.NewConversationService(agentClient, m, logger)
	chatService := usecase.NewChatService(speechToText, textToSpeech, conversationService, hub, m, logger)

	// Initialize API routes
	api.InitRoutes(e, chatService, hub, registry, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("speech_provider", cfg.Speech.Provider),
		zap.String("tts_provider", cfg.TTS.Provider),
		zap.String("agent_provider", cfg.Agent.Provider),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func buildSpeechToText(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SpeechToText, error) {
	switch cfg.Speech.Provider {
	case config.ProviderGoogle:
		return stt.NewGoogleSpeechToText(ctx, cfg.Speech.Language, logger)
	case config.ProviderMock:
		return stt.NewMockSpeechToText(logger), nil
	default:
		return stt.NewAzureSpeechToText(stt.AzureConfig{
			Key:      cfg.Speech.Key,
			Region:   cfg.Speech.Region,
			Endpoint: cfg.Speech.Endpoint,
			Language: cfg.Speech.Language,
		}, logger)
	}
}

func buildTextToSpeech(cfg *config.Config, logger *zap.Logger) (repositories.TextToSpeech, error) {
	switch cfg.TTS.Provider {
	case config.ProviderElevenLabs:
		return tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey: cfg.TTS.ElevenLabsKey,
		}, logger)
	case config.ProviderMock:
		return tts.NewMockTextToSpeech(logger), nil
	default:
		return tts.NewAzureTextToSpeech(tts.AzureConfig{
			Key:      cfg.Speech.Key,
			Region:   cfg.Speech.Region,
			Endpoint: cfg.Speech.Endpoint,
			Voice:    cfg.TTS.Voice,
			Language: cfg.Speech.Language,
		}, logger)
	}
}

func buildAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.Agent, error) {
	switch cfg.Agent.Provider {
	case config.ProviderGemini:
		return agent.NewGeminiAgent(ctx, cfg.Agent.GeminiAPIKey, cfg.Agent.GeminiModel, logger)
	case config.ProviderMock:
		return agent.NewMockAgent("This is a mock agent reply."), nil
	default:
		return agent.NewAzureAgent(agent.AzureConfig{
			Endpoint: cfg.Agent.ProjectEndpoint,
			AgentID:  cfg.Agent.AgentID,
			Token:    cfg.Agent.Token,
		}, logger)
	}
}
