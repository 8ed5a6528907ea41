package generators

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/interfaces"
)

type stubProvider struct {
	name string
	got  *interfaces.GenerationRequest
	err  error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Generate(_ context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return newResult("https://stub/" + s.name + ".png"), nil
}

func newResult(url string) *interfaces.GenerationResult {
	return &interfaces.GenerationResult{URL: url}
}

func TestDefaultProvidersCoverEveryVendor(t *testing.T) {
	r := NewRegistry(nil, DefaultProviders(http.DefaultClient, DefaultPoller(), nil)...)
	assert.Equal(t, []string{"doubao", "gemini", "openai", "replicate", "stabilityai", "tongyi", "zhipu"}, r.Names())
	assert.True(t, r.Supports("gemini"))
	assert.True(t, r.Supports("stabilityai"))
	assert.False(t, r.Supports("stability"))
	assert.False(t, r.Supports("midjourney"))
}

func TestDispatchDefaultsSize(t *testing.T) {
	stub := &stubProvider{name: "openai"}
	r := NewRegistry(nil, stub)

	res, err := r.Dispatch(context.Background(), "openai", &interfaces.GenerationRequest{Prompt: "cat", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://stub/openai.png", res.URL)
	assert.Equal(t, interfaces.DefaultImageSize, stub.got.Size)
	assert.Equal(t, "openai", stub.got.Provider)
}

func TestDispatchUnknownProvider(t *testing.T) {
	r := NewRegistry(nil, &stubProvider{name: "openai"})
	_, err := r.Dispatch(context.Background(), "midjourney", &interfaces.GenerationRequest{Prompt: "cat", APIKey: "k"})

	var unknown *UnknownProviderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "midjourney", unknown.Provider)
}

func TestDispatchRejectsInvalidRequests(t *testing.T) {
	stub := &stubProvider{name: "openai"}
	r := NewRegistry(nil, stub)

	for _, req := range []*interfaces.GenerationRequest{
		{Prompt: "  ", APIKey: "k"},
		{Prompt: "cat"},
		{Prompt: "cat", APIKey: "k", Size: "big"},
	} {
		_, err := r.Dispatch(context.Background(), "openai", req)
		var verr *apperr.ValidationError
		assert.True(t, errors.As(err, &verr), "request %+v", req)
	}
	assert.Nil(t, stub.got)
}

func TestDispatchPassesProviderErrors(t *testing.T) {
	cause := newProviderError("openai", 500, "boom")
	r := NewRegistry(nil, &stubProvider{name: "openai", err: cause})

	_, err := r.Dispatch(context.Background(), "openai", &interfaces.GenerationRequest{Prompt: "cat", APIKey: "k"})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "error", outcome(err))
	assert.Equal(t, "canceled", outcome(context.Canceled))
	assert.Equal(t, "timeout", outcome(newGenerationTimeout("tongyi", 60, 0)))
}

func TestSplitSize(t *testing.T) {
	w, h, err := SplitSize("1024x768")
	require.NoError(t, err)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)

	for _, bad := range []string{"", "1024", "axb", "10x20x30"} {
		_, _, err := SplitSize(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "https://a.example", baseURL("https://a.example///", "https://default"))
	assert.Equal(t, "https://default", baseURL("", "https://default/"))
}
