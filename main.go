package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"markestedt/echonotes/audio"
	"markestedt/echonotes/chat"
	"markestedt/echonotes/config"
	"markestedt/echonotes/project"
	"markestedt/echonotes/remote"
	"markestedt/echonotes/transcribe"
	"markestedt/echonotes/web"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration errors are fatal; nothing runs without a credential
	// and the two base URLs.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("Configuration loaded",
		"meetings_dir", cfg.MeetingsDir,
		"transcriptions_dir", cfg.TranscriptionsDir,
		"quick_actions", len(cfg.QuickActions))

	httpClient := remote.NewHTTPClient(cfg.RequestTimeout())

	store := project.NewStore(cfg.TranscriptionsDir, cfg.MeetingsDir, config.SupportedAudioFormats)
	transcriber := transcribe.NewClient(httpClient, cfg.WhisperBaseURL, cfg.APIKey, cfg.MaxFileSize())
	chatter := chat.NewClient(httpClient, cfg.LLMBaseURL, cfg.APIKey, cfg.LLMModelID)

	// Recording is optional: without a capture device the upload and
	// chat paths still work.
	recorder, err := audio.NewRecorder(cfg.Settings.Audio.Device, cfg.Settings.Audio.SampleRate, cfg.Settings.Audio.MaxSeconds)
	if err != nil {
		slog.Warn("Audio capture unavailable, recording disabled", "error", err)
		recorder = nil
	}

	hub := web.NewHub()
	go hub.Run()

	agent := NewAgent(cfg, store, transcriber, chatter, recorder, hub)
	defer agent.Close()

	server := web.NewServer(agent, hub, cfg.Settings.Web.Port, cfg.MaxFileSize())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		slog.Error("Web server error", "error", err)
		os.Exit(1)
	}

	slog.Info("EchoNotes stopped")
}
