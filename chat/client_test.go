package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"markestedt/echonotes/remote"
)

func TestBuildMessagesEmptyHistory(t *testing.T) {
	assert := require.New(t)

	messages := BuildMessages("the transcript", nil, "what was discussed?")
	assert.Len(messages, 2)

	assert.Equal(openai.ChatMessageRoleSystem, messages[0].Role)
	assert.Contains(messages[0].Content, "the transcript")

	assert.Equal(openai.ChatMessageRoleUser, messages[1].Role)
	assert.Equal("what was discussed?", messages[1].Content)
}

func TestBuildMessagesPreservesHistoryOrder(t *testing.T) {
	assert := require.New(t)

	history := []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
		{Role: RoleAssistant, Content: "second answer"},
	}

	messages := BuildMessages("t", history, "third question")
	assert.Len(messages, 6)

	for i, m := range history {
		assert.Equal(m.Role, messages[i+1].Role)
		assert.Equal(m.Content, messages[i+1].Content)
	}
	assert.Equal("third question", messages[5].Content)
}

func TestAskSendsChatCompletionRequest(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/chat/completions", r.URL.Path)
		assert.Equal("Bearer token-abc", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		assert.NoError(json.NewDecoder(r.Body).Decode(&req))
		assert.Equal("test-model", req.Model)
		assert.Len(req.Messages, 2)
		assert.Equal(openai.ChatMessageRoleSystem, req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "the reply"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token-abc", "test-model")
	reply, err := client.Ask(context.Background(), "a transcript", nil, "a question")
	assert.NoError(err)
	assert.Equal("the reply", reply)
}

func TestAskClassifiesServerErrors(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token", "test-model")
	_, err := client.Ask(context.Background(), "t", nil, "q")
	assert.ErrorIs(err, remote.ErrTransport)
}

func TestAskClassifiesRejections(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "denied", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL, "token", "test-model")
	_, err := client.Ask(context.Background(), "t", nil, "q")
	assert.ErrorIs(err, remote.ErrService)
}

func TestAskNetworkFailureIsTransport(t *testing.T) {
	assert := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(http.DefaultClient, srv.URL, "token", "test-model")
	_, err := client.Ask(context.Background(), "t", nil, "q")
	assert.ErrorIs(err, remote.ErrTransport)
}
