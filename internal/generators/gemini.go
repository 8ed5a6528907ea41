package generators

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"popup-storybook/server/internal/interfaces"
)

const (
	geminiName         = "gemini"
	geminiDefaultBase  = "https://generativelanguage.googleapis.com"
	geminiDefaultModel = "gemini-2.0-flash-exp"
)

// geminiShape extracts an image from one known response layout. ok is false
// when the layout is absent.
type geminiShape func(body gjson.Result, prompt string) (res *interfaces.GenerationResult, ok bool)

// Probed in order; the first match wins.
var geminiShapes = []geminiShape{
	geminiCandidateParts,
	geminiPredictions,
	geminiImages,
	geminiDataArray,
}

// GeminiClient talks to generateContent on Gemini or any proxy exposing it.
type GeminiClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewGeminiClient(httpClient *http.Client, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{httpClient: httpClient, logger: logger}
}

func (c *GeminiClient) Name() string { return geminiName }

func (c *GeminiClient) Generate(ctx context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	model := modelOrDefault(req.Model, geminiDefaultModel)
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]interface{}{
			"responseModalities": []string{"TEXT", "IMAGE"},
			"temperature":        1,
			"topP":               0.95,
			"topK":               40,
			"maxOutputTokens":    8192,
		},
	}
	headers := bearer(req.APIKey)
	headers["x-goog-api-key"] = req.APIKey

	endpoint := geminiBase(req.BaseURL) + "/models/" + model + ":generateContent"
	resp, err := doJSON(ctx, c.httpClient, http.MethodPost, endpoint, headers, payload)
	if err != nil {
		return nil, err
	}

	// Proxies sometimes answer errors with an empty or HTML body, so the body
	// is inspected before the status.
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, newEmptyResponse(geminiName, resp.StatusCode)
	}
	if !gjson.ValidBytes(resp.Body) {
		return nil, newMalformedResponse(geminiName, resp.StatusCode, resp.Body)
	}
	if !resp.ok() {
		return nil, vendorError(geminiName, resp)
	}

	return c.parse(resp.Body, req.Prompt)
}

func (c *GeminiClient) parse(body []byte, prompt string) (*interfaces.GenerationResult, error) {
	parsed := gjson.ParseBytes(body)
	for _, shape := range geminiShapes {
		if res, ok := shape(parsed, prompt); ok {
			return res, nil
		}
	}
	c.logger.Warn("gemini response carried no image", zap.String("body", truncate(string(body), snippetLength)))
	return nil, newUnrecognizedShape(geminiName, http.StatusOK)
}

// geminiBase appends /v1beta unless the base already names an API version.
func geminiBase(override string) string {
	base := baseURL(override, geminiDefaultBase)
	if !strings.Contains(base, "/v1beta") && !strings.Contains(base, "/v1/") {
		base += "/v1beta"
	}
	return base
}

func geminiCandidateParts(body gjson.Result, prompt string) (*interfaces.GenerationResult, bool) {
	for _, part := range body.Get("candidates.0.content.parts").Array() {
		if inline := part.Get("inlineData"); inline.Exists() {
			return &interfaces.GenerationResult{
				URL:           dataURI(inline.Get("mimeType").String(), inline.Get("data").String()),
				RevisedPrompt: prompt,
			}, true
		}
		if file := part.Get("fileData"); file.Exists() {
			uri := file.Get("fileUri").String()
			if uri == "" {
				uri = file.Get("uri").String()
			}
			return &interfaces.GenerationResult{URL: uri, RevisedPrompt: prompt}, true
		}
		if image := part.Get("image"); image.Exists() {
			if u := image.Get("url").String(); u != "" {
				return &interfaces.GenerationResult{URL: u, RevisedPrompt: prompt}, true
			}
			if b64 := firstString(image, "base64", "data"); b64 != "" {
				return &interfaces.GenerationResult{URL: dataURI("image/png", b64), RevisedPrompt: prompt}, true
			}
		}
	}
	return nil, false
}

func geminiPredictions(body gjson.Result, prompt string) (*interfaces.GenerationResult, bool) {
	prediction := body.Get("predictions.0")
	b64 := prediction.Get("bytesBase64Encoded").String()
	if b64 == "" {
		return nil, false
	}
	return &interfaces.GenerationResult{
		URL:           dataURI(prediction.Get("mimeType").String(), b64),
		RevisedPrompt: prompt,
	}, true
}

func geminiImages(body gjson.Result, prompt string) (*interfaces.GenerationResult, bool) {
	image := body.Get("images.0")
	if !image.Exists() {
		return nil, false
	}
	if u := image.Get("url").String(); u != "" {
		return &interfaces.GenerationResult{URL: u, RevisedPrompt: prompt}, true
	}
	if b64 := firstString(image, "base64", "data"); b64 != "" {
		return &interfaces.GenerationResult{URL: dataURI("image/png", b64), RevisedPrompt: prompt}, true
	}
	return nil, false
}

func geminiDataArray(body gjson.Result, prompt string) (*interfaces.GenerationResult, bool) {
	res, err := parseDataArray(geminiName, []byte(body.Raw), prompt)
	if err != nil {
		return nil, false
	}
	return res, true
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := r.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}
