package generators

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"popup-storybook/server/internal/interfaces"
)

const (
	stabilityName         = "stabilityai"
	stabilityDefaultBase  = "https://api.stability.ai/v1"
	stabilityDefaultModel = "stable-diffusion-xl-1024-v1-0"
)

// StabilityClient talks to the Stability AI v1 text-to-image endpoint.
type StabilityClient struct {
	httpClient *http.Client
}

func NewStabilityClient(httpClient *http.Client) *StabilityClient {
	return &StabilityClient{httpClient: httpClient}
}

func (c *StabilityClient) Name() string { return stabilityName }

func (c *StabilityClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	width, height, err := SplitSize(req.Size)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"text_prompts": []map[string]string{{"text": req.Prompt}},
		"cfg_scale":    7,
		"width":        width,
		"height":       height,
		"samples":      1,
		"steps":        30,
	}

	model := modelOrDefault(req.Model, stabilityDefaultModel)
	url := baseURL(req.BaseURL, stabilityDefaultBase) + "/generation/" + model + "/text-to-image"
	headers := bearer(req.APIKey)
	headers["Accept"] = "application/json"

	body, err := postSync(ctx, c.httpClient, stabilityName, url, headers, payload)
	if err != nil {
		return nil, err
	}

	b64 := gjson.GetBytes(body, "artifacts.0.base64").String()
	if b64 == "" {
		return nil, newUnrecognizedShape(stabilityName, http.StatusOK)
	}
	return &interfaces.GenerationResult{URL: dataURI("image/png", b64), RevisedPrompt: req.Prompt}, nil
}
