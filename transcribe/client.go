// Package transcribe wraps the hosted Whisper-compatible API.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"markestedt/echonotes/remote"
)

// Result is a finished transcription: the text plus the language the
// service detected (or the hint echoed back).
type Result struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Client submits audio to the transcription service. It performs no
// retries and writes nothing to disk; retry policy belongs to the
// caller.
type Client struct {
	baseURL     string
	apiKey      string
	maxFileSize int64
	httpClient  remote.HTTPClient
}

// NewClient creates a transcription client for the given base URL. The
// client assumes audio bytes are already normalized by the capture
// layer; maxFileSize guards against payloads the service would reject.
func NewClient(httpClient remote.HTTPClient, baseURL, apiKey string, maxFileSize int64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		maxFileSize: maxFileSize,
		httpClient:  httpClient,
	}
}

// Transcribe sends audio for transcription. An empty languageHint lets
// the service auto-detect.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, languageHint string) (Result, error) {
	return c.submit(ctx, "/audio/transcriptions", audio, filename, languageHint)
}

// Translate sends audio for translation into the target language.
func (c *Client) Translate(ctx context.Context, audio []byte, filename, targetLanguage string) (Result, error) {
	return c.submit(ctx, "/audio/translations", audio, filename, targetLanguage)
}

func (c *Client) submit(ctx context.Context, path string, audio []byte, filename, language string) (Result, error) {
	if len(audio) == 0 {
		return Result{}, fmt.Errorf("%w: empty audio payload", remote.ErrInvalidAudio)
	}
	if c.maxFileSize > 0 && int64(len(audio)) > c.maxFileSize {
		return Result{}, fmt.Errorf("%w: %d bytes exceeds the %d byte limit",
			remote.ErrInvalidAudio, len(audio), c.maxFileSize)
	}
	if filename == "" {
		filename = "audio.wav"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return Result{}, fmt.Errorf("failed to write audio data: %w", err)
	}

	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return Result{}, fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return Result{}, fmt.Errorf("failed to write response format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", remote.ErrTransport, err)
	}
	defer remote.DrainAndClose(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to read response: %v", remote.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, &remote.APIError{
			Service:    "whisper",
			StatusCode: resp.StatusCode,
			Message:    errorDetail(respBody),
		}
	}

	var result Result
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Result{}, fmt.Errorf("failed to parse transcription response: %w", err)
	}
	if result.Language == "" {
		result.Language = language
	}

	return result, nil
}

// errorDetail pulls a human-readable message out of an error payload,
// falling back to the raw body.
func errorDetail(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Error) > 0 {
		var detail struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &detail); err == nil && detail.Message != "" {
			if detail.Type != "" {
				return detail.Type + ": " + detail.Message
			}
			return detail.Message
		}
		var msg string
		if err := json.Unmarshal(payload.Error, &msg); err == nil && msg != "" {
			return msg
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		text = "unknown error"
	}
	return text
}
