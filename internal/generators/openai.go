package generators

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"popup-storybook/server/internal/interfaces"
)

const (
	openAIName         = "openai"
	openAIDefaultBase  = "https://api.openai.com/v1"
	openAIDefaultModel = "dall-e-3"
)

// OpenAIClient talks to the OpenAI images API (and compatible proxies).
type OpenAIClient struct {
	httpClient *http.Client
}

func NewOpenAIClient(httpClient *http.Client) *OpenAIClient {
	return &OpenAIClient{httpClient: httpClient}
}

func (c *OpenAIClient) Name() string { return openAIName }

func (c *OpenAIClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	model := modelOrDefault(req.Model, openAIDefaultModel)
	payload := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt,
		"n":      1,
		"size":   req.Size,
	}
	if model == openAIDefaultModel {
		payload["quality"] = "hd"
	}

	url := baseURL(req.BaseURL, openAIDefaultBase) + "/images/generations"
	body, err := postSync(ctx, c.httpClient, openAIName, url, bearer(req.APIKey), payload)
	if err != nil {
		return nil, err
	}
	return parseDataArray(openAIName, body, req.Prompt)
}

// parseDataArray reads the {data:[{url|b64_json, revised_prompt}]} shape
// shared by OpenAI, Doubao and Zhipu.
func parseDataArray(provider string, body []byte, prompt string) (*interfaces.GenerationResult, error) {
	first := gjson.GetBytes(body, "data.0")
	if !first.Exists() {
		return nil, newUnrecognizedShape(provider, http.StatusOK)
	}

	var url string
	if u := first.Get("url").String(); u != "" {
		url = u
	} else if b64 := first.Get("b64_json").String(); b64 != "" {
		url = dataURI("image/png", b64)
	}
	if url == "" {
		return nil, newUnrecognizedShape(provider, http.StatusOK)
	}

	revised := first.Get("revised_prompt").String()
	if revised == "" {
		revised = prompt
	}
	return &interfaces.GenerationResult{URL: url, RevisedPrompt: revised}, nil
}
