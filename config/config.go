package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds everything resolved at startup. It is constructed once
// and passed by reference; nothing in here mutates after Load returns.
type Config struct {
	// Resolved bearer token used for both hosted APIs.
	APIKey string

	WhisperBaseURL string
	LLMBaseURL     string
	LLMModelID     string

	MeetingsDir       string
	TranscriptionsDir string

	QuickActions []QuickAction

	Settings Settings
}

// Settings are the non-mandatory tunables, optionally overridden by a
// TOML file pointed at by ECHONOTES_CONFIG.
type Settings struct {
	Web   WebSettings   `toml:"web"`
	Audio AudioSettings `toml:"audio"`
	API   APISettings   `toml:"api"`
}

type WebSettings struct {
	Port int `toml:"port"`
}

type AudioSettings struct {
	Device     string `toml:"device"`
	SampleRate int    `toml:"sample_rate"`
	MaxSeconds int    `toml:"max_seconds"`
}

type APISettings struct {
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	MaxFileSizeMB         int     `toml:"max_file_size_mb"`
	MaxDurationMinutes    int     `toml:"max_duration_minutes"`
	ChunkDurationMinutes  float64 `toml:"chunk_duration_minutes"`
	ChunkOverlapSeconds   float64 `toml:"chunk_overlap_seconds"`
}

// SupportedAudioFormats are the upload extensions the app accepts.
var SupportedAudioFormats = []string{".m4a", ".mp3", ".wav", ".flac", ".aac", ".ogg"}

// SupportedLanguages are the language hints offered to the user.
var SupportedLanguages = []string{
	"en-US", "es-ES", "fr-FR", "de-DE", "it-IT",
	"pt-PT", "ru-RU", "ja-JP", "ko-KR", "zh-CN",
}

// DefaultLanguage is used when the user picks nothing.
const DefaultLanguage = "en-US"

func defaultSettings() Settings {
	return Settings{
		Web: WebSettings{Port: 8135},
		Audio: AudioSettings{
			Device:     "",
			SampleRate: 16000,
			MaxSeconds: 1200,
		},
		API: APISettings{
			RequestTimeoutSeconds: 300,
			MaxFileSizeMB:         20,
			MaxDurationMinutes:    20,
			ChunkDurationMinutes:  10,
			ChunkOverlapSeconds:   5,
		},
	}
}

// RequestTimeout returns the configured bound on hosted API calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Settings.API.RequestTimeoutSeconds) * time.Second
}

// MaxFileSize returns the upload size limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Settings.API.MaxFileSizeMB) * 1024 * 1024
}

// Load reads configuration from the environment (with .env support),
// resolves the API credential, loads quick actions, and validates
// everything required. Any error here is fatal at startup.
func Load() (*Config, error) {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	cfg := &Config{Settings: defaultSettings()}

	if path := os.Getenv("ECHONOTES_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings file %s: %w", path, err)
		}
	}

	key, err := ResolveCredential(os.Getenv("API_KEY"), os.Getenv("WHISPER_API_KEY"), DefaultTokenFile)
	if err != nil {
		return nil, err
	}
	cfg.APIKey = key

	cfg.WhisperBaseURL = os.Getenv("WHISPER_BASE_URL")
	if cfg.WhisperBaseURL == "" {
		return nil, fmt.Errorf("WHISPER_BASE_URL is required")
	}

	cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	if cfg.LLMBaseURL == "" {
		return nil, fmt.Errorf("LLM_BASE_URL is required")
	}

	cfg.LLMModelID = os.Getenv("LLM_MODEL_ID")
	if cfg.LLMModelID == "" {
		return nil, fmt.Errorf("LLM_MODEL_ID is required")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}
	documents := filepath.Join(home, "Documents")

	cfg.MeetingsDir = getEnvDefault("MEETINGS_DIR", filepath.Join(documents, "meetings"))
	cfg.TranscriptionsDir = getEnvDefault("TRANSCRIPTIONS_DIR", filepath.Join(documents, "transcriptions"))

	for _, dir := range []string{cfg.MeetingsDir, cfg.TranscriptionsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	actions, err := LoadQuickActions(os.Getenv("QUICK_ACTIONS"), os.Getenv("QUICK_ACTIONS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.QuickActions = actions

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
