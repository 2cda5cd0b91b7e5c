package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Store creates and reads project folders under a transcriptions root
// and recording files under a meetings root. It holds no state between
// calls; every listing re-reads the filesystem.
type Store struct {
	transcriptionsDir string
	meetingsDir       string
	audioFormats      []string
}

// NewStore returns a store confined to the two given roots.
func NewStore(transcriptionsDir, meetingsDir string, audioFormats []string) *Store {
	return &Store{
		transcriptionsDir: transcriptionsDir,
		meetingsDir:       meetingsDir,
		audioFormats:      audioFormats,
	}
}

// Sanitize reduces a name hint to a filesystem-safe token: letters,
// digits, spaces, dashes, and underscores survive, everything else is
// dropped, trailing whitespace trimmed.
func Sanitize(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteRune(c)
		case c == ' ', c == '-', c == '_':
			b.WriteRune(c)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Create makes a new project folder named {date}_{sanitized-name}. A
// name collision is resolved by appending _02, _03, ... so creation
// succeeds unless the filesystem itself errors.
func (s *Store) Create(nameHint string, date time.Time) (*Project, error) {
	name := Sanitize(nameHint)
	if name == "" {
		name = "Untitled"
	}

	base := fmt.Sprintf("%s_%s", date.Format(dateLayout), name)
	dir, err := s.uniqueDir(base)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	return &Project{
		Name:           name,
		Date:           date,
		Dir:            dir,
		TranscriptPath: filepath.Join(dir, TranscriptFile),
		MetadataPath:   filepath.Join(dir, MetadataFile),
		Metadata:       map[string]string{},
	}, nil
}

// uniqueDir picks the first non-existing folder for base, suffixing
// from _02 upward and falling back to a time suffix past 999.
func (s *Store) uniqueDir(base string) (string, error) {
	dir := filepath.Join(s.transcriptionsDir, base)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return dir, nil
	}

	for n := 2; n <= 999; n++ {
		candidate := filepath.Join(s.transcriptionsDir, fmt.Sprintf("%s_%02d", base, n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	candidate := filepath.Join(s.transcriptionsDir, fmt.Sprintf("%s_%s", base, stamp))
	if _, err := os.Stat(candidate); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, base)
	}
	return candidate, nil
}

// SaveAudio writes the original audio into the project folder,
// preserving the source filename and extension.
func (s *Store) SaveAudio(p *Project, data []byte, sourceName string) (string, error) {
	name := filepath.Base(sourceName)
	if name == "" || name == "." {
		name = "audio.wav"
	}
	path := filepath.Join(p.Dir, "original_"+name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save original audio: %w", err)
	}

	p.AudioPath = path
	return path, nil
}

// SaveTranscript writes the transcript, overwriting any previous
// content. Writing the same text twice leaves an identical file.
func (s *Store) SaveTranscript(p *Project, text string) (string, error) {
	if err := os.WriteFile(p.TranscriptPath, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}
	return p.TranscriptPath, nil
}

// SaveMetadata merges fields into the sidecar, last write winning per
// key, and rewrites the whole file in a stable order.
func (s *Store) SaveMetadata(p *Project, fields map[string]string) (string, error) {
	existing, err := readMetadata(p.MetadataPath)
	if err != nil {
		return "", err
	}

	for k, v := range fields {
		existing[k] = v
	}

	if err := os.WriteFile(p.MetadataPath, []byte(formatMetadata(existing)), 0o644); err != nil {
		return "", fmt.Errorf("failed to save project metadata: %w", err)
	}

	p.Metadata = existing
	return p.MetadataPath, nil
}

// List scans the transcriptions root and returns projects sorted by
// date descending. Only folders with a transcript count.
func (s *Store) List() ([]*Project, error) {
	entries, err := os.ReadDir(s.transcriptionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read transcriptions directory: %w", err)
	}

	var projects []*Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := s.Load(filepath.Join(s.transcriptionsDir, entry.Name()))
		if err != nil {
			continue
		}
		if _, err := os.Stat(p.TranscriptPath); err != nil {
			continue
		}
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool {
		if !projects[i].Date.Equal(projects[j].Date) {
			return projects[i].Date.After(projects[j].Date)
		}
		return filepath.Base(projects[i].Dir) > filepath.Base(projects[j].Dir)
	})

	return projects, nil
}

// Load reconstructs a project from its folder. A folder with neither a
// transcript nor a metadata sidecar is treated as missing.
func (s *Store) Load(dir string) (*Project, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	transcriptPath := filepath.Join(dir, TranscriptFile)
	metadataPath := filepath.Join(dir, MetadataFile)

	_, terr := os.Stat(transcriptPath)
	_, merr := os.Stat(metadataPath)
	if terr != nil && merr != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	meta, err := readMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Dir:            dir,
		TranscriptPath: transcriptPath,
		MetadataPath:   metadataPath,
		Metadata:       meta,
	}

	folder := filepath.Base(dir)
	p.Name = folder
	p.Date = folderDate(folder, info.ModTime())
	if len(folder) > len(dateLayout)+1 {
		p.Name = folder[len(dateLayout)+1:]
	}
	if name, ok := meta[MetaName]; ok && name != "" {
		p.Name = name
	}

	if audio := s.findAudio(dir); audio != "" {
		p.AudioPath = audio
	}

	return p, nil
}

// Transcript reads the transcript text from disk. Callers hold the
// result only for the session; the folder stays the source of truth.
func (s *Store) Transcript(p *Project) (string, error) {
	data, err := os.ReadFile(p.TranscriptPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p.TranscriptPath)
		}
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}

// RecentRecordings lists recording files in the meetings root, newest
// first, capped at limit.
func (s *Store) RecentRecordings(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.meetingsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read meetings directory: %w", err)
	}

	type rec struct {
		path string
		mod  time.Time
	}
	var recs []rec
	for _, entry := range entries {
		if entry.IsDir() || !s.supportedFormat(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		recs = append(recs, rec{filepath.Join(s.meetingsDir, entry.Name()), info.ModTime()})
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].mod.After(recs[j].mod) })

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	paths := make([]string, len(recs))
	for i, r := range recs {
		paths[i] = r.path
	}
	return paths, nil
}

// RecordingPath returns a non-colliding path for a new recording in
// the meetings root, suffixing _02, _03, ... when needed.
func (s *Store) RecordingPath(stem, ext string) string {
	path := filepath.Join(s.meetingsDir, stem+ext)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	for n := 2; n <= 999; n++ {
		candidate := filepath.Join(s.meetingsDir, fmt.Sprintf("%s_%02d%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(s.meetingsDir, fmt.Sprintf("%s_%s%s", stem, stamp, ext))
}

func (s *Store) supportedFormat(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range s.audioFormats {
		if ext == f {
			return true
		}
	}
	return false
}

func (s *Store) findAudio(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() && s.supportedFormat(entry.Name()) {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}

func folderDate(folder string, fallback time.Time) time.Time {
	if len(folder) >= len(dateLayout) {
		if d, err := time.Parse(dateLayout, folder[:len(dateLayout)]); err == nil {
			return d
		}
	}
	return fallback.Truncate(24 * time.Hour)
}
