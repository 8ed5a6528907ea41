package generators

import (
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"popup-storybook/server/internal/interfaces"
)

const (
	tongyiName         = "tongyi"
	tongyiDefaultBase  = "https://dashscope.aliyuncs.com"
	tongyiDefaultModel = "wanx-v1"
)

// TongyiClient submits an async Wanx task to DashScope and polls it.
type TongyiClient struct {
	httpClient *http.Client
	poller     Poller
}

func NewTongyiClient(httpClient *http.Client, poller Poller) *TongyiClient {
	return &TongyiClient{httpClient: httpClient, poller: poller}
}

func (c *TongyiClient) Name() string { return tongyiName }

func (c *TongyiClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	base := baseURL(req.BaseURL, tongyiDefaultBase)
	headers := bearer(req.APIKey)
	headers["X-DashScope-Async"] = "enable"

	payload := map[string]interface{}{
		"model": modelOrDefault(req.Model, tongyiDefaultModel),
		"input": map[string]string{"prompt": req.Prompt},
		"parameters": map[string]interface{}{
			// DashScope wants "1024*1024"
			"size": strings.Replace(req.Size, "x", "*", 1),
			"n":    1,
		},
	}

	body, err := postSync(ctx, c.httpClient, tongyiName, base+"/api/v1/services/aigc/text2image/image-synthesis", headers, payload)
	if err != nil {
		return nil, err
	}
	taskID := gjson.GetBytes(body, "output.task_id").String()
	if taskID == "" {
		return nil, newUnrecognizedShape(tongyiName, http.StatusOK)
	}

	taskURL := base + "/api/v1/tasks/" + taskID
	return c.poller.Wait(ctx, tongyiName, func(ctx context.Context) (*taskStatus, error) {
		resp, err := doJSON(ctx, c.httpClient, http.MethodGet, taskURL, bearer(req.APIKey), nil)
		if err != nil {
			return nil, err
		}
		if err := checkResponse(tongyiName, resp); err != nil {
			return nil, err
		}
		output := gjson.GetBytes(resp.Body, "output")
		switch vendorState(output.Get("task_status").String()) {
		case taskSucceeded:
			result := output.Get("results.0")
			revised := result.Get("prompt").String()
			if revised == "" {
				revised = req.Prompt
			}
			return &taskStatus{
				state:  taskSucceeded,
				result: &interfaces.GenerationResult{URL: result.Get("url").String(), RevisedPrompt: revised},
			}, nil
		case taskFailed:
			return &taskStatus{state: taskFailed, message: output.Get("message").String()}, nil
		default:
			return &taskStatus{state: taskRunning}, nil
		}
	})
}
