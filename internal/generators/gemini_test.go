package generators

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiBase(t *testing.T) {
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", geminiBase(""))
	assert.Equal(t, "https://proxy.example/v1beta", geminiBase("https://proxy.example/v1beta/"))
	assert.Equal(t, "https://proxy.example/v1/openai", geminiBase("https://proxy.example/v1/openai/"))
	assert.Equal(t, "https://proxy.example/v1beta", geminiBase("https://proxy.example"))
}

func TestGeminiResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		url     string
		revised string
	}{
		{
			name: "inline data",
			body: `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/jpeg","data":"AAA"}}]}}]}`,
			url:  "data:image/jpeg;base64,AAA",
		},
		{
			name: "inline data wins over file data in a later part",
			body: `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"BBB"}},{"fileData":{"fileUri":"https://f/1"}}]}}]}`,
			url:  "data:image/png;base64,BBB",
		},
		{
			name: "file data uri",
			body: `{"candidates":[{"content":{"parts":[{"fileData":{"uri":"https://f/2"}}]}}]}`,
			url:  "https://f/2",
		},
		{
			name: "part image base64",
			body: `{"candidates":[{"content":{"parts":[{"image":{"data":"CCC"}}]}}]}`,
			url:  "data:image/png;base64,CCC",
		},
		{
			name: "candidates win over predictions",
			body: `{"candidates":[{"content":{"parts":[{"image":{"url":"https://c/1"}}]}}],"predictions":[{"bytesBase64Encoded":"DDD"}]}`,
			url:  "https://c/1",
		},
		{
			name: "imagen predictions",
			body: `{"predictions":[{"bytesBase64Encoded":"EEE","mimeType":"image/webp"}]}`,
			url:  "data:image/webp;base64,EEE",
		},
		{
			name: "images array",
			body: `{"images":[{"base64":"FFF"}]}`,
			url:  "data:image/png;base64,FFF",
		},
		{
			name:    "openai compatible data array",
			body:    `{"data":[{"url":"https://d/1","revised_prompt":"better"}]}`,
			url:     "https://d/1",
			revised: "better",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewGeminiClient(nil, nil).parse([]byte(tt.body), "prompt")
			require.NoError(t, err)
			assert.Equal(t, tt.url, res.URL)
			want := tt.revised
			if want == "" {
				want = "prompt"
			}
			assert.Equal(t, want, res.RevisedPrompt)
		})
	}
}

func TestGeminiUnrecognizedShape(t *testing.T) {
	_, err := NewGeminiClient(nil, nil).parse([]byte(`{"candidates":[{"content":{"parts":[{"text":"I cannot draw"}]}}]}`), "p")
	var shape *UnrecognizedResponseShapeError
	assert.True(t, errors.As(err, &shape))
}

func TestGeminiGenerateOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+geminiDefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-goog-api-key"))
		body := decodeBody(t, r)
		assert.Contains(t, body, "generationConfig")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"QQ=="}}]}}]}`))
	}))
	defer srv.Close()

	res, err := NewGeminiClient(srv.Client(), nil).Generate(context.Background(), newRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QQ==", res.URL)
}

func TestGeminiErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := NewGeminiClient(srv.Client(), nil).Generate(context.Background(), newRequest(srv.URL))
	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "API key not valid", perr.Message)
	assert.Equal(t, http.StatusForbidden, perr.StatusCode)
}
