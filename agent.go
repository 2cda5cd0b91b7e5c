package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"markestedt/echonotes/audio"
	"markestedt/echonotes/chat"
	"markestedt/echonotes/config"
	"markestedt/echonotes/project"
	"markestedt/echonotes/remote"
	"markestedt/echonotes/transcribe"
)

// transportRetryBackoff is the pause before the single retry a
// transcription gets after a transport failure.
const transportRetryBackoff = 2 * time.Second

// mergeOverlapWords is how many words of a chunk opening are matched
// against the previous chunk's tail when merging.
const mergeOverlapWords = 10

// Transcriber is the slice of transcribe.Client the agent needs.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, languageHint string) (transcribe.Result, error)
}

// Chatter is the slice of chat.Client the agent needs.
type Chatter interface {
	Ask(ctx context.Context, transcript string, history []chat.Message, userMessage string) (string, error)
}

// Notifier receives status events for the live UI. The web hub
// implements it; a nil notifier is allowed.
type Notifier interface {
	Notify(event, detail string)
}

// chatSession holds one conversation with a transcript. The transcript
// is read once when the session opens; history order is the turn order.
type chatSession struct {
	projectDir string
	transcript string
	history    []chat.Message
}

// Agent sequences recording, transcription, storage, and chat. One
// instance serves the whole process.
type Agent struct {
	cfg         *config.Config
	store       *project.Store
	transcriber Transcriber
	chatter     Chatter
	recorder    *audio.Recorder
	notifier    Notifier

	mu       sync.Mutex
	dirLocks map[string]*sync.Mutex
	sessions map[string]*chatSession
}

// NewAgent wires the orchestrator. recorder may be nil when no capture
// device is available; uploads still work.
func NewAgent(cfg *config.Config, store *project.Store, transcriber Transcriber, chatter Chatter, recorder *audio.Recorder, notifier Notifier) *Agent {
	return &Agent{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		chatter:     chatter,
		recorder:    recorder,
		notifier:    notifier,
		dirLocks:    map[string]*sync.Mutex{},
		sessions:    map[string]*chatSession{},
	}
}

// TranscribeUpload runs the full pipeline for already-normalized audio
// bytes: create project, persist the original, transcribe, persist
// transcript and metadata. A failed transcription leaves the audio in
// place so the user can retry.
func (a *Agent) TranscribeUpload(ctx context.Context, data []byte, sourceName, nameHint, language string) (*project.Project, transcribe.Result, error) {
	if !supportedUpload(sourceName) {
		return nil, transcribe.Result{}, fmt.Errorf("%w: unsupported audio format %q", remote.ErrInvalidAudio, filepath.Ext(sourceName))
	}
	if nameHint == "" {
		nameHint = displayName(sourceName)
	}

	start := time.Now()

	p, err := a.store.Create(nameHint, start)
	if err != nil {
		return nil, transcribe.Result{}, err
	}

	unlock := a.lockDir(p.Dir)
	defer unlock()

	a.notify("transcribing", p.Name)

	if _, err := a.store.SaveAudio(p, data, sourceName); err != nil {
		return nil, transcribe.Result{}, err
	}

	result, err := a.transcribeWithRetry(ctx, data, filepath.Base(sourceName), language)
	if err != nil {
		a.notify("failed", p.Name)
		return nil, transcribe.Result{}, err
	}

	return a.finish(p, result, sourceName, start)
}

// StartRecording begins buffering microphone audio.
func (a *Agent) StartRecording(ctx context.Context) error {
	if a.recorder == nil {
		return fmt.Errorf("no audio capture device available")
	}
	if a.recorder.Recording() {
		return fmt.Errorf("already recording")
	}
	if err := a.recorder.Start(ctx); err != nil {
		return err
	}
	a.notify("recording", "")
	return nil
}

// StopAndTranscribe ends the recording, saves it into the meetings
// directory, and runs the transcription pipeline. Long recordings are
// split into overlapping chunks and the chunk transcripts merged.
func (a *Agent) StopAndTranscribe(ctx context.Context, nameHint, language string) (*project.Project, transcribe.Result, error) {
	if a.recorder == nil {
		return nil, transcribe.Result{}, fmt.Errorf("no audio capture device available")
	}

	seg, err := a.recorder.Stop()
	if err != nil {
		return nil, transcribe.Result{}, err
	}
	if seg.Duration < 100*time.Millisecond {
		return nil, transcribe.Result{}, fmt.Errorf("%w: recording too short (%s)", remote.ErrInvalidAudio, seg.Duration)
	}

	stem := "recording_" + time.Now().Format("2006-01-02_15-04-05")
	wavPath := a.store.RecordingPath(stem, ".wav")
	if err := audio.WriteWAV(seg, wavPath); err != nil {
		return nil, transcribe.Result{}, err
	}
	slog.Info("Recording saved", "path", wavPath, "duration", seg.Duration, "rms", seg.RMS())

	start := time.Now()

	if nameHint == "" {
		nameHint = displayName(filepath.Base(wavPath))
	}
	p, err := a.store.Create(nameHint, start)
	if err != nil {
		return nil, transcribe.Result{}, err
	}

	unlock := a.lockDir(p.Dir)
	defer unlock()

	a.notify("transcribing", p.Name)

	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, transcribe.Result{}, fmt.Errorf("failed to read recording: %w", err)
	}
	if _, err := a.store.SaveAudio(p, wavData, filepath.Base(wavPath)); err != nil {
		return nil, transcribe.Result{}, err
	}

	result, err := a.transcribeSegment(ctx, seg, wavData, filepath.Base(wavPath), language)
	if err != nil {
		a.notify("failed", p.Name)
		return nil, transcribe.Result{}, err
	}

	return a.finish(p, result, filepath.Base(wavPath), start)
}

// transcribeSegment picks between a single call and the chunked path
// based on the configured chunk duration.
func (a *Agent) transcribeSegment(ctx context.Context, seg audio.Segment, wavData []byte, filename, language string) (transcribe.Result, error) {
	chunkDur := time.Duration(a.cfg.Settings.API.ChunkDurationMinutes * float64(time.Minute))
	overlap := time.Duration(a.cfg.Settings.API.ChunkOverlapSeconds * float64(time.Second))

	if chunkDur <= 0 || seg.Duration <= chunkDur {
		return a.transcribeWithRetry(ctx, wavData, filename, language)
	}

	chunks := audio.Split(seg, chunkDur, overlap)
	slog.Info("Recording exceeds chunk limit, splitting", "chunks", len(chunks), "duration", seg.Duration)

	var (
		parts    []string
		detected string
		failed   int
	)
	for i, chunk := range chunks {
		data, err := chunkWAVBytes(chunk)
		if err != nil {
			return transcribe.Result{}, err
		}

		res, err := a.transcribeWithRetry(ctx, data, fmt.Sprintf("chunk_%03d.wav", i+1), language)
		if err != nil {
			slog.Error("Chunk transcription failed", "chunk", i+1, "total", len(chunks), "error", err)
			failed++
			continue
		}
		if strings.TrimSpace(res.Text) != "" {
			parts = append(parts, res.Text)
		}
		if detected == "" {
			detected = res.Language
		}
	}

	if len(parts) == 0 {
		return transcribe.Result{}, fmt.Errorf("%w: all %d chunks failed to transcribe", remote.ErrService, len(chunks))
	}
	if failed > 0 {
		slog.Warn("Transcription partially successful", "succeeded", len(chunks)-failed, "total", len(chunks))
	}

	return transcribe.Result{
		Text:     audio.MergeTranscripts(parts, mergeOverlapWords),
		Language: detected,
	}, nil
}

// transcribeWithRetry makes the retry policy explicit: exactly one
// retry, only after a transport failure.
func (a *Agent) transcribeWithRetry(ctx context.Context, data []byte, filename, language string) (transcribe.Result, error) {
	result, err := a.transcriber.Transcribe(ctx, data, filename, language)
	if err == nil || !errors.Is(err, remote.ErrTransport) {
		return result, err
	}

	slog.Warn("Transcription hit a transport error, retrying once", "error", err)
	select {
	case <-ctx.Done():
		return transcribe.Result{}, fmt.Errorf("%w: %v", remote.ErrTransport, ctx.Err())
	case <-time.After(transportRetryBackoff):
	}

	return a.transcriber.Transcribe(ctx, data, filename, language)
}

// finish persists the transcript and metadata and reports the outcome.
func (a *Agent) finish(p *project.Project, result transcribe.Result, sourceName string, start time.Time) (*project.Project, transcribe.Result, error) {
	if strings.TrimSpace(result.Text) == "" {
		a.notify("failed", p.Name)
		return nil, transcribe.Result{}, fmt.Errorf("%w: transcription returned empty content", remote.ErrService)
	}

	if _, err := a.store.SaveTranscript(p, result.Text); err != nil {
		return nil, transcribe.Result{}, err
	}

	elapsed := time.Since(start)
	meta := map[string]string{
		project.MetaName:           p.Name,
		project.MetaCreated:        start.Format("2006-01-02"),
		project.MetaOriginalFile:   filepath.Base(sourceName),
		project.MetaLanguage:       result.Language,
		project.MetaProcessingTime: fmt.Sprintf("%.2f seconds", elapsed.Seconds()),
	}
	if _, err := a.store.SaveMetadata(p, meta); err != nil {
		return nil, transcribe.Result{}, err
	}

	slog.Info("Transcription complete", "project", p.Name, "language", result.Language, "elapsed", elapsed)
	a.notify("completed", p.Name)

	return p, result, nil
}

// ListProjects rescans the transcriptions root.
func (a *Agent) ListProjects() ([]*project.Project, error) {
	return a.store.List()
}

// LoadProject reads one project folder by its folder name. Only plain
// folder names resolve; anything pointing outside the transcriptions
// root is treated as missing.
func (a *Agent) LoadProject(folder string) (*project.Project, error) {
	base := filepath.Base(folder)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %s", project.ErrNotFound, folder)
	}
	return a.store.Load(filepath.Join(a.cfg.TranscriptionsDir, base))
}

// RecentRecordings lists the newest files in the meetings directory.
func (a *Agent) RecentRecordings() ([]string, error) {
	return a.store.RecentRecordings(10)
}

// QuickActions exposes the configured quick action list.
func (a *Agent) QuickActions() []config.QuickAction {
	return a.cfg.QuickActions
}

// OpenSession starts a chat conversation over a project's transcript
// and returns the session ID. The transcript is read from disk here;
// the session keeps only that one read.
func (a *Agent) OpenSession(folder string) (string, error) {
	p, err := a.LoadProject(folder)
	if err != nil {
		return "", err
	}
	transcript, err := a.store.Transcript(p)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	a.mu.Lock()
	a.sessions[id] = &chatSession{projectDir: p.Dir, transcript: transcript}
	a.mu.Unlock()

	return id, nil
}

// Chat sends a user message in a session and appends both turns to the
// session history.
func (a *Agent) Chat(ctx context.Context, sessionID, message string) (string, error) {
	return a.ask(ctx, sessionID, message, message)
}

// QuickAction runs a configured prompt template in a session. The
// label stays in the UI; only the prompt reaches the LLM.
func (a *Agent) QuickAction(ctx context.Context, sessionID, label string) (string, error) {
	for _, action := range a.cfg.QuickActions {
		if action.Label == label {
			return a.ask(ctx, sessionID, action.Prompt, action.Prompt)
		}
	}
	return "", fmt.Errorf("unknown quick action %q", label)
}

func (a *Agent) ask(ctx context.Context, sessionID, userMessage, recorded string) (string, error) {
	a.mu.Lock()
	session, ok := a.sessions[sessionID]
	a.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: chat session %s", project.ErrNotFound, sessionID)
	}

	reply, err := a.chatter.Ask(ctx, session.transcript, session.history, userMessage)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	session.history = append(session.history,
		chat.Message{Role: chat.RoleUser, Content: recorded},
		chat.Message{Role: chat.RoleAssistant, Content: reply},
	)
	a.mu.Unlock()

	return reply, nil
}

// Close releases the capture device.
func (a *Agent) Close() {
	if a.recorder != nil {
		_ = a.recorder.Close()
	}
}

// lockDir serializes writers on one project folder.
func (a *Agent) lockDir(dir string) func() {
	a.mu.Lock()
	lock, ok := a.dirLocks[dir]
	if !ok {
		lock = &sync.Mutex{}
		a.dirLocks[dir] = lock
	}
	a.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (a *Agent) notify(event, detail string) {
	if a.notifier != nil {
		a.notifier.Notify(event, detail)
	}
}

// chunkWAVBytes renders one chunk as WAV in memory via a scratch file,
// which is removed immediately.
func chunkWAVBytes(seg audio.Segment) ([]byte, error) {
	f, err := os.CreateTemp("", "echonotes-chunk-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create chunk file: %w", err)
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := audio.WriteWAV(seg, path); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// supportedUpload accepts the same formats the original UI offered.
func supportedUpload(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range config.SupportedAudioFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// displayName turns a filename into a readable default project name.
func displayName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
