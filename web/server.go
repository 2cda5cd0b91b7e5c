// Package web exposes the JSON API and the websocket status feed the
// UI talks to.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"markestedt/echonotes/config"
	"markestedt/echonotes/project"
	"markestedt/echonotes/transcribe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local single-user app
	},
}

// Orchestrator is what the handlers need from the agent.
type Orchestrator interface {
	TranscribeUpload(ctx context.Context, data []byte, sourceName, nameHint, language string) (*project.Project, transcribe.Result, error)
	StartRecording(ctx context.Context) error
	StopAndTranscribe(ctx context.Context, nameHint, language string) (*project.Project, transcribe.Result, error)
	ListProjects() ([]*project.Project, error)
	LoadProject(folder string) (*project.Project, error)
	RecentRecordings() ([]string, error)
	QuickActions() []config.QuickAction
	OpenSession(folder string) (string, error)
	Chat(ctx context.Context, sessionID, message string) (string, error)
	QuickAction(ctx context.Context, sessionID, label string) (string, error)
}

// Server serves the API on a local port.
type Server struct {
	orch          Orchestrator
	hub           *Hub
	port          int
	maxUploadSize int64
}

// NewServer builds the server; the hub should already be running.
func NewServer(orch Orchestrator, hub *Hub, port int, maxUploadSize int64) *Server {
	return &Server{
		orch:          orch,
		hub:           hub,
		port:          port,
		maxUploadSize: maxUploadSize,
	}
}

// Router assembles the chi router. Exposed separately so tests can
// drive the handlers through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{folder}", s.handleGetProject)
		r.Post("/transcriptions", s.handleUpload)
		r.Get("/recordings", s.handleRecentRecordings)
		r.Post("/recordings/start", s.handleStartRecording)
		r.Post("/recordings/stop", s.handleStopRecording)
		r.Get("/quickactions", s.handleQuickActions)
		r.Post("/sessions", s.handleOpenSession)
		r.Post("/sessions/{id}/chat", s.handleChat)
		r.Post("/sessions/{id}/actions", s.handleQuickAction)
	})
	r.Get("/ws", s.handleWebSocket)

	return r
}

// Start blocks serving HTTP until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	slog.Info("Starting web server", "port", s.port, "url", fmt.Sprintf("http://localhost:%d", s.port))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	c := &client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	c.hub.register <- c

	go c.writePump()
	go c.readPump()
}
