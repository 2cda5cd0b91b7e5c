package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"markestedt/echonotes/remote"
)

func TestTranscribeSendsLanguageHint(t *testing.T) {
	assert := require.New(t)

	var gotLanguage, gotAuth, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal("/audio/transcriptions", r.URL.Path)

		assert.NoError(r.ParseMultipartForm(1 << 20))
		gotLanguage = r.FormValue("language")
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("file")
		assert.NoError(err)
		file.Close()
		gotFilename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "hola mundo", "language": "es"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token-123", 0)
	result, err := client.Transcribe(context.Background(), []byte("fake audio"), "meeting.wav", "es")
	assert.NoError(err)

	assert.Equal("hola mundo", result.Text)
	assert.Equal("es", result.Language)
	assert.Equal("es", gotLanguage)
	assert.Equal("Bearer token-123", gotAuth)
	assert.Equal("meeting.wav", gotFilename)
}

func TestTranscribeOmitsEmptyLanguage(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(r.ParseMultipartForm(1 << 20))
		_, hasLanguage := r.MultipartForm.Value["language"]
		assert.False(hasLanguage)

		w.Write([]byte(`{"text": "auto detected", "language": "en"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token", 0)
	result, err := client.Transcribe(context.Background(), []byte("audio"), "a.wav", "")
	assert.NoError(err)
	assert.Equal("en", result.Language)
}

func TestTranslateUsesTranslationsPath(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/audio/translations", r.URL.Path)
		w.Write([]byte(`{"text": "hello world"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token", 0)
	result, err := client.Translate(context.Background(), []byte("audio"), "a.wav", "en")
	assert.NoError(err)
	assert.Equal("hello world", result.Text)
}

func TestTranscribeClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request is invalid audio", http.StatusBadRequest, remote.ErrInvalidAudio},
		{"payload too large is invalid audio", http.StatusRequestEntityTooLarge, remote.ErrInvalidAudio},
		{"unsupported media is invalid audio", http.StatusUnsupportedMediaType, remote.ErrInvalidAudio},
		{"not found is a service error", http.StatusNotFound, remote.ErrService},
		{"unauthorized is a service error", http.StatusUnauthorized, remote.ErrService},
		{"server failure is a transport error", http.StatusInternalServerError, remote.ErrTransport},
		{"bad gateway is a transport error", http.StatusBadGateway, remote.ErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(`{"error": {"type": "test", "message": "nope"}}`))
			}))
			defer srv.Close()

			client := NewClient(srv.Client(), srv.URL, "token", 0)
			_, err := client.Transcribe(context.Background(), []byte("audio"), "a.wav", "")
			assert.ErrorIs(err, tc.want)
		})
	}
}

func TestTranscribeNetworkFailureIsTransport(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(http.DefaultClient, srv.URL, "token", 0)
	_, err := client.Transcribe(context.Background(), []byte("audio"), "a.wav", "")
	assert.ErrorIs(err, remote.ErrTransport)
}

func TestTranscribeRejectsOversizedPayload(t *testing.T) {
	assert := require.New(t)

	client := NewClient(http.DefaultClient, "http://unused", "token", 4)
	_, err := client.Transcribe(context.Background(), []byte("way too big"), "a.wav", "")
	assert.ErrorIs(err, remote.ErrInvalidAudio)
}

func TestTranscribeRejectsEmptyPayload(t *testing.T) {
	assert := require.New(t)

	client := NewClient(http.DefaultClient, "http://unused", "token", 0)
	_, err := client.Transcribe(context.Background(), nil, "a.wav", "")
	assert.ErrorIs(err, remote.ErrInvalidAudio)
}
