package generators

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popup-storybook/server/internal/interfaces"
)

func newRequest(base string) *interfaces.GenerationRequest {
	return &interfaces.GenerationRequest{
		Prompt:  "a kitten learning to swim",
		APIKey:  "sk-test",
		BaseURL: base,
		Size:    "1024x768",
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body := decodeBody(t, r)
		assert.Equal(t, "dall-e-3", body["model"])
		assert.Equal(t, "hd", body["quality"])
		assert.Equal(t, "1024x768", body["size"])
		assert.EqualValues(t, 1, body["n"])

		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example/1.png","revised_prompt":"a cute kitten"}]}`))
	}))
	defer srv.Close()

	res, err := NewOpenAIClient(srv.Client()).Generate(context.Background(), newRequest(srv.URL+"/v1/"))
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", res.URL)
	assert.Equal(t, "a cute kitten", res.RevisedPrompt)
}

func TestOpenAIBase64AndNoQualityForOtherModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.NotContains(t, body, "quality")
		_, _ = w.Write([]byte(`{"data":[{"b64_json":"QUJD"}]}`))
	}))
	defer srv.Close()

	req := newRequest(srv.URL)
	req.Model = "gpt-image-1"
	res, err := NewOpenAIClient(srv.Client()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", res.URL)
	assert.Equal(t, req.Prompt, res.RevisedPrompt)
}

func TestSyncVendorErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "vendor error message",
			status:  http.StatusUnauthorized,
			body:    `{"error":{"message":"invalid api key"}}`,
			message: "invalid api key",
		},
		{
			name:    "plain message field",
			status:  http.StatusBadRequest,
			body:    `{"message":"prompt rejected"}`,
			message: "prompt rejected",
		},
		{
			name:    "status fallback",
			status:  http.StatusInternalServerError,
			body:    `<html>oops</html>`,
			message: "HTTP 500: Internal Server Error",
		},
		{
			name:   "empty body",
			status: http.StatusOK,
			body:   "",
			check: func(t *testing.T, err error) {
				var empty *EmptyResponseError
				assert.True(t, errors.As(err, &empty))
			},
		},
		{
			name:   "non json body",
			status: http.StatusOK,
			body:   "<html>gateway</html>",
			check: func(t *testing.T, err error) {
				var malformed *MalformedResponseError
				require.True(t, errors.As(err, &malformed))
				assert.Equal(t, "<html>gateway</html>", malformed.Snippet)
			},
		},
		{
			name:   "no image in body",
			status: http.StatusOK,
			body:   `{"data":[]}`,
			check: func(t *testing.T, err error) {
				var shape *UnrecognizedResponseShapeError
				assert.True(t, errors.As(err, &shape))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewZhipuClient(srv.Client()).Generate(context.Background(), newRequest(srv.URL))
			require.Error(t, err)

			var perr *ProviderError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, zhipuName, perr.Provider)
			if tt.message != "" {
				assert.Equal(t, tt.message, perr.Message)
				assert.Equal(t, tt.status, perr.StatusCode)
			}
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestMalformedSnippetIsTruncated(t *testing.T) {
	long := make([]rune, 300)
	for i := range long {
		long[i] = '图'
	}
	err := newMalformedResponse(openAIName, 200, []byte(string(long)))

	var malformed *MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 200, len([]rune(malformed.Snippet)))
}

func TestDoubaoSendsSplitSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, doubaoDefaultModel, body["model"])
		assert.EqualValues(t, 1024, body["width"])
		assert.EqualValues(t, 768, body["height"])
		_, _ = w.Write([]byte(`{"data":[{"url":"https://ark.example/a.png","revised_prompt":"ignored"}]}`))
	}))
	defer srv.Close()

	req := newRequest(srv.URL)
	res, err := NewDoubaoClient(srv.Client()).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "https://ark.example/a.png", res.URL)
	assert.Equal(t, req.Prompt, res.RevisedPrompt)
}

func TestStabilityGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generation/"+stabilityDefaultModel+"/text-to-image", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body := decodeBody(t, r)
		assert.EqualValues(t, 7, body["cfg_scale"])
		assert.EqualValues(t, 30, body["steps"])
		_, _ = w.Write([]byte(`{"artifacts":[{"base64":"iVBOR"}]}`))
	}))
	defer srv.Close()

	res, err := NewStabilityClient(srv.Client()).Generate(context.Background(), newRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBOR", res.URL)
}
