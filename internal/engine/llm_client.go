package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/models"
)

const (
	storyTemperature = 0.8
	storyMaxTokens   = 2000
)

// ChatClient sends single-turn chat completions to any OpenAI-compatible endpoint.
type ChatClient struct {
	httpClient *http.Client
}

func NewChatClient(httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatClient{httpClient: httpClient}
}

// Complete returns the content of the first choice.
func (c *ChatClient) Complete(ctx context.Context, settings *interfaces.LLMSettings, system, user string) (string, error) {
	config := openai.DefaultConfig(settings.APIKey)
	config.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	if config.BaseURL == "" {
		config.BaseURL = models.DefaultLLMBaseURL
	}
	config.HTTPClient = c.httpClient

	model := settings.Model
	if model == "" {
		model = models.DefaultLLMModel
	}

	resp, err := openai.NewClientWithConfig(config).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: storyTemperature,
		MaxTokens:   storyMaxTokens,
	})
	if err != nil {
		return "", chatError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// chatError surfaces the vendor's own message when the API returned one.
func chatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Errorf("HTTP %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return err
}
