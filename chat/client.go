// Package chat wraps the hosted OpenAI-compatible chat completions API
// for talking to a transcript.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"markestedt/echonotes/remote"
)

// Message is one prior conversation turn. Order carries the turn
// ordering; nothing here reorders or summarizes history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

const systemPrompt = "You are an AI assistant helping to analyze and discuss a transcribed conversation. " +
	"Here is the transcription for reference:\n\n%s\n\n" +
	"Please answer questions about this transcription and help analyze its content. Be helpful and accurate."

// Client asks the LLM about a transcript. No retries happen here;
// retry policy belongs to the caller.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a chat client against the configured base URL with
// the resolved bearer credential.
func NewClient(httpClient *http.Client, baseURL, apiKey, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

// BuildMessages assembles the request shape: one system message
// embedding the transcript, the ordered history verbatim, then the new
// user message.
func BuildMessages(transcript string, history []Message, userMessage string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPrompt, transcript),
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	return messages
}

// Ask sends the transcript, history, and user message (or a quick
// action prompt) and returns the assistant's reply.
func (c *Client) Ask(ctx context.Context, transcript string, history []Message, userMessage string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    BuildMessages(transcript, history, userMessage),
		Temperature: 0.2,
		TopP:        0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response contained no choices", remote.ErrService)
	}

	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto the shared taxonomy: 5xx and
// network failures are transport errors, other API rejections are
// service errors.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &remote.APIError{
			Service:    "llm",
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &remote.APIError{
			Service:    "llm",
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
		}
	}

	return fmt.Errorf("%w: %v", remote.ErrTransport, err)
}
