package generators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

// vendor error envelopes, most specific first
var errorMessagePaths = []string{"error.message", "error", "message", "detail", "output.message"}

type rawResponse struct {
	StatusCode int
	Body       []byte
}

func (r *rawResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// doJSON sends payload (when non-nil) as JSON and reads the whole body.
func doJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, payload interface{}) (*rawResponse, error) {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &rawResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// checkResponse classifies a response: vendor error, empty body, non-JSON
// body, or nil for a JSON success body.
func checkResponse(provider string, resp *rawResponse) error {
	if !resp.ok() {
		return vendorError(provider, resp)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return newEmptyResponse(provider, resp.StatusCode)
	}
	if !gjson.ValidBytes(resp.Body) {
		return newMalformedResponse(provider, resp.StatusCode, resp.Body)
	}
	return nil
}

// vendorError pulls the human readable message out of an error envelope,
// falling back to the HTTP status.
func vendorError(provider string, resp *rawResponse) error {
	if gjson.ValidBytes(resp.Body) {
		for _, path := range errorMessagePaths {
			if r := gjson.GetBytes(resp.Body, path); r.Type == gjson.String && r.Str != "" {
				return newProviderError(provider, resp.StatusCode, "%s", r.Str)
			}
		}
	}
	return newProviderError(provider, resp.StatusCode, "HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// postSync performs a single synchronous generation request and returns the
// validated JSON body.
func postSync(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	resp, err := doJSON(ctx, client, http.MethodPost, url, headers, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	if err := checkResponse(provider, resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func bearer(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
