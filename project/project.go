// Package project owns the on-disk project model: one folder per
// transcription bundling the original audio, the transcript, and a
// metadata sidecar. The filesystem is the database; there is no
// in-memory index, so listings always reflect external changes.
package project

import (
	"errors"
	"time"
)

// Metadata sidecar keys. The sidecar is a plain "Key: Value" text file
// so users can read and edit it outside the app.
const (
	MetaName           = "Transcription Project"
	MetaCreated        = "Created"
	MetaOriginalFile   = "Original File"
	MetaLanguage       = "Language"
	MetaProcessingTime = "Processing Time"
)

// Names of the files inside a project folder.
const (
	TranscriptFile = "transcript.txt"
	MetadataFile   = "project_info.txt"
)

var (
	// ErrNotFound indicates a project folder is missing or has neither
	// a transcript nor a metadata sidecar.
	ErrNotFound = errors.New("project not found")

	// ErrExists indicates a project folder collision. The store
	// auto-suffixes instead of surfacing this; it only escapes when
	// disambiguation is exhausted.
	ErrExists = errors.New("project already exists")
)

// Project represents one transcription session rooted at Dir. Once
// created, the folder is the single source of truth for its contents.
type Project struct {
	Name string
	Date time.Time
	Dir  string

	TranscriptPath string
	MetadataPath   string
	AudioPath      string

	Metadata map[string]string
}
