package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/maoyuexin/stt-tts-chatbot/client"
)

const defaultBackendURL = "http://127.0.0.1:8080/chat"

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <input.wav> [output.wav]\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	inputPath := os.Args[1]
	outputPath := replyPath(inputPath)
	if len(os.Args) > 2 {
		outputPath = os.Args[2]
	}

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		backendURL = defaultBackendURL
	}

	clip, err := os.ReadFile(inputPath)
	if err != nil {
		logger.Fatal("Failed to read input clip", zap.Error(err))
	}

	session := client.NewSession(backendURL, logger)
	if err := session.Submit(context.Background(), clip); err != nil {
		logger.Fatal("Chat turn failed",
			zap.String("backend", backendURL),
			zap.String("detail", session.LastError()),
			zap.Error(err),
		)
	}

	reply := session.NextAutoplay()
	if reply == nil {
		logger.Fatal("Server returned no reply audio")
	}
	if err := os.WriteFile(outputPath, reply, 0o644); err != nil {
		logger.Fatal("Failed to write reply clip", zap.Error(err))
	}

	logger.Info("Reply received",
		zap.String("output", outputPath),
		zap.Int("bytes", len(reply)),
	)
}

// replyPath derives an output filename next to the input, e.g.
// question.wav -> question.reply.wav.
func replyPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".reply" + ext
}
