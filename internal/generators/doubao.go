package generators

import (
	"context"
	"net/http"

	"popup-storybook/server/internal/interfaces"
)

const (
	doubaoName         = "doubao"
	doubaoDefaultBase  = "https://ark.cn-beijing.volces.com/api/v3"
	doubaoDefaultModel = "doubao-seedu-20241210"
)

// DoubaoClient talks to the Volcengine Ark image endpoint.
type DoubaoClient struct {
	httpClient *http.Client
}

func NewDoubaoClient(httpClient *http.Client) *DoubaoClient {
	return &DoubaoClient{httpClient: httpClient}
}

func (c *DoubaoClient) Name() string { return doubaoName }

func (c *DoubaoClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	width, height, err := SplitSize(req.Size)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"model":  modelOrDefault(req.Model, doubaoDefaultModel),
		"prompt": req.Prompt,
		"n":      1,
		"size":   req.Size,
		"width":  width,
		"height": height,
	}

	url := baseURL(req.BaseURL, doubaoDefaultBase) + "/images/generations"
	body, err := postSync(ctx, c.httpClient, doubaoName, url, bearer(req.APIKey), payload)
	if err != nil {
		return nil, err
	}
	res, err := parseDataArray(doubaoName, body, req.Prompt)
	if err != nil {
		return nil, err
	}
	// Ark does not rewrite prompts.
	res.RevisedPrompt = req.Prompt
	return res, nil
}
