package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/domain"
	"github.com/maoyuexin/stt-tts-chatbot/internal/events"
	"github.com/maoyuexin/stt-tts-chatbot/usecase"
)

// InitRoutes initializes all API routes.
func InitRoutes(e *echo.Echo, chatService *usecase.ChatService, hub *events.Hub, registry *prometheus.Registry, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, RootResponse{
			Message: "Welcome to the STT-TTS API. Use the /chat endpoint to interact.",
		})
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "stt-tts-chatbot",
		})
	})

	e.POST("/chat", func(c echo.Context) error {
		return chat(c, chatService, logger)
	})

	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	if hub != nil {
		e.GET("/ws", func(c echo.Context) error {
			return events.HandleWebSocket(hub, c, logger)
		})
	}
}

// chat handles one full voice turn: multipart audio in, synthesized audio
// out. The response carries the complete body with its exact length; the
// client needs a known-length payload for immediate playback.
func chat(c echo.Context, chatService *usecase.ChatService, logger *zap.Logger) error {
	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid_request",
			Detail: "Multipart form with a 'file' audio field is required.",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return internalError(c, logger, requestID, err)
	}
	defer file.Close()

	upload, err := io.ReadAll(file)
	if err != nil {
		return internalError(c, logger, requestID, err)
	}

	speech, err := chatService.Chat(c.Request().Context(), requestID, upload)
	if err != nil {
		return mapPipelineError(c, logger, requestID, err)
	}

	// The body must travel with its exact byte length, not chunked: the
	// client hands the complete clip to an audio element for playback.
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(speech)))
	return c.Blob(http.StatusOK, "audio/wav", speech)
}

// mapPipelineError translates classified pipeline errors to HTTP outcomes:
// client-input errors to 400, upstream cancellations and everything else
// to 500 with a human-readable detail.
func mapPipelineError(c echo.Context, logger *zap.Logger, requestID string, err error) error {
	if errors.Is(err, domain.ErrNoSpeech) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "no_speech_recognized",
			Detail: "Could not understand the audio.",
		})
	}
	if errors.Is(err, domain.ErrBadAudio) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid_audio",
			Detail: err.Error(),
		})
	}

	var cancellation *domain.CancellationError
	if errors.As(err, &cancellation) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:  "upstream_canceled",
			Detail: cancellation.Error(),
		})
	}

	return internalError(c, logger, requestID, err)
}

func internalError(c echo.Context, logger *zap.Logger, requestID string, err error) error {
	logger.Error("Unexpected error in chat endpoint",
		zap.String("requestID", requestID),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:  "internal_error",
		Detail: "An internal server error occurred. Details: " + err.Error(),
	})
}
