package generators

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"popup-storybook/server/internal/interfaces"
)

const (
	replicateName         = "replicate"
	replicateDefaultBase  = "https://api.replicate.com/v1"
	replicateDefaultModel = "flux-schnell"
)

// model alias -> prediction version
var replicateVersions = map[string]string{
	"flux-schnell": "black-forest-labs/flux-schnell",
	"flux-dev":     "black-forest-labs/flux-dev",
	"sdxl":         "stability-ai/sdxl:39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b",
}

// ReplicateClient creates a prediction and polls its status URL.
type ReplicateClient struct {
	httpClient *http.Client
	poller     Poller
}

func NewReplicateClient(httpClient *http.Client, poller Poller) *ReplicateClient {
	return &ReplicateClient{httpClient: httpClient, poller: poller}
}

func (c *ReplicateClient) Name() string { return replicateName }

func (c *ReplicateClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	width, height, err := SplitSize(req.Size)
	if err != nil {
		return nil, err
	}
	version, ok := replicateVersions[req.Model]
	if !ok {
		version = replicateVersions[replicateDefaultModel]
	}

	headers := map[string]string{"Authorization": "Token " + req.APIKey}
	payload := map[string]interface{}{
		"version": version,
		"input": map[string]interface{}{
			"prompt": req.Prompt,
			"width":  width,
			"height": height,
		},
	}

	body, err := postSync(ctx, c.httpClient, replicateName, baseURL(req.BaseURL, replicateDefaultBase)+"/predictions", headers, payload)
	if err != nil {
		return nil, err
	}
	pollURL := gjson.GetBytes(body, "urls.get").String()
	if pollURL == "" {
		return nil, newUnrecognizedShape(replicateName, http.StatusOK)
	}

	return c.poller.Wait(ctx, replicateName, func(ctx context.Context) (*taskStatus, error) {
		resp, err := doJSON(ctx, c.httpClient, http.MethodGet, pollURL, headers, nil)
		if err != nil {
			return nil, err
		}
		if err := checkResponse(replicateName, resp); err != nil {
			return nil, err
		}
		prediction := gjson.ParseBytes(resp.Body)
		switch vendorState(prediction.Get("status").String()) {
		case taskSucceeded:
			output := prediction.Get("output")
			if output.IsArray() {
				output = output.Get("0")
			}
			return &taskStatus{
				state:  taskSucceeded,
				result: &interfaces.GenerationResult{URL: output.String(), RevisedPrompt: req.Prompt},
			}, nil
		case taskFailed:
			return &taskStatus{state: taskFailed, message: prediction.Get("error").String()}, nil
		default:
			return &taskStatus{state: taskRunning}, nil
		}
	})
}
