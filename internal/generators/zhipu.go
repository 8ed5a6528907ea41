package generators

import (
	"context"
	"net/http"

	"popup-storybook/server/internal/interfaces"
)

const (
	zhipuName         = "zhipu"
	zhipuDefaultBase  = "https://open.bigmodel.cn/api/paas/v4"
	zhipuDefaultModel = "cogview-3-plus"
)

// ZhipuClient talks to CogView.
type ZhipuClient struct {
	httpClient *http.Client
}

func NewZhipuClient(httpClient *http.Client) *ZhipuClient {
	return &ZhipuClient{httpClient: httpClient}
}

func (c *ZhipuClient) Name() string { return zhipuName }

func (c *ZhipuClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	payload := map[string]interface{}{
		"model":  modelOrDefault(req.Model, zhipuDefaultModel),
		"prompt": req.Prompt,
		"size":   req.Size,
	}

	url := baseURL(req.BaseURL, zhipuDefaultBase) + "/images/generations"
	body, err := postSync(ctx, c.httpClient, zhipuName, url, bearer(req.APIKey), payload)
	if err != nil {
		return nil, err
	}
	res, err := parseDataArray(zhipuName, body, req.Prompt)
	if err != nil {
		return nil, err
	}
	res.RevisedPrompt = req.Prompt
	return res, nil
}
