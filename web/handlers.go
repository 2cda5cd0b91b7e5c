package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"markestedt/echonotes/project"
	"markestedt/echonotes/remote"
)

// projectView is the JSON shape for one project.
type projectView struct {
	Folder     string            `json:"folder"`
	Name       string            `json:"name"`
	Date       string            `json:"date"`
	Language   string            `json:"language,omitempty"`
	AudioFile  string            `json:"audio_file,omitempty"`
	Transcript string            `json:"transcript,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func viewOf(p *project.Project) projectView {
	v := projectView{
		Folder:   filepath.Base(p.Dir),
		Name:     p.Name,
		Date:     p.Date.Format("2006-01-02"),
		Metadata: p.Metadata,
	}
	if lang, ok := p.Metadata[project.MetaLanguage]; ok {
		v.Language = lang
	}
	if p.AudioPath != "" {
		v.AudioFile = filepath.Base(p.AudioPath)
	}
	return v
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.orch.ListProjects()
	if err != nil {
		s.writeError(w, err)
		return
	}

	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, viewOf(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": views})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.orch.LoadProject(chi.URLParam(r, "folder"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		http.Error(w, "Upload too large or malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	p, result, err := s.orch.TranscribeUpload(r.Context(), data,
		header.Filename, r.FormValue("name"), r.FormValue("language"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	view := viewOf(p)
	view.Transcript = result.Text
	view.Language = result.Language
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleRecentRecordings(w http.ResponseWriter, r *http.Request) {
	paths, err := s.orch.RecentRecordings()
	if err != nil {
		s.writeError(w, err)
		return
	}

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": names})
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.StartRecording(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recording"})
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, result, err := s.orch.StopAndTranscribe(r.Context(), req.Name, req.Language)
	if err != nil {
		s.writeError(w, err)
		return
	}

	view := viewOf(p)
	view.Transcript = result.Text
	view.Language = result.Language
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleQuickActions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"quick_actions": s.orch.QuickActions()})
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folder string `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Folder == "" {
		http.Error(w, "Missing project folder", http.StatusBadRequest)
		return
	}

	id, err := s.orch.OpenSession(req.Folder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "Missing message", http.StatusBadRequest)
		return
	}

	reply, err := s.orch.Chat(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		http.Error(w, "Missing action label", http.StatusBadRequest)
		return
	}

	reply, err := s.orch.QuickAction(r.Context(), chi.URLParam(r, "id"), req.Label)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

// writeError maps the error taxonomy onto HTTP statuses. The
// triggering files stay on disk, so the client can simply retry.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, project.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, remote.ErrInvalidAudio):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, remote.ErrService):
		status = http.StatusBadGateway
	case errors.Is(err, remote.ErrTransport):
		status = http.StatusGatewayTimeout
	}

	slog.Error("Request failed", "error", err, "status", status)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
