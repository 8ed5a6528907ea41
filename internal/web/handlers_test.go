package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popup-storybook/server/internal/config"
	"popup-storybook/server/internal/generators"
	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/models"
	"popup-storybook/server/internal/storage"
	"popup-storybook/server/internal/storybook"
)

type stubStories struct{}

func (stubStories) GenerateStory(_ context.Context, theme string, sceneCount int, _ *interfaces.LLMSettings) (*interfaces.GeneratedStory, error) {
	story := &interfaces.GeneratedStory{Title: theme}
	for i := 1; i <= sceneCount; i++ {
		story.Scenes = append(story.Scenes, interfaces.Scene{Index: i, Text: fmt.Sprint(i), ImagePrompt: fmt.Sprint("scene ", i)})
	}
	return story, nil
}

type stubProvider struct {
	err error
}

func (stubProvider) Name() string { return "openai" }

func (p stubProvider) Generate(_ context.Context, req *interfaces.GenerationRequest) (*interfaces.GenerationResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &interfaces.GenerationResult{URL: "https://img.example/x.png", RevisedPrompt: "revised"}, nil
}

type testEnv struct {
	store  *storage.Store
	svc    *storybook.Service
	server *httptest.Server
}

func newTestEnv(t *testing.T, provider interfaces.ImageProvider) *testEnv {
	t.Helper()
	store, err := storage.NewStore(config.DatabaseConfig{
		Driver:   "sqlite",
		LogLevel: "silent",
		SQLite:   config.SQLiteConfig{Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())},
	}, nil)
	require.NoError(t, err)

	cfg := config.Default()
	registry := generators.NewRegistry(nil, provider)
	svc := storybook.NewService(store, stubStories{}, registry, nil, nil, storybook.Options{})
	srv := httptest.NewServer(NewRouter(cfg, NewHandlers(store, svc, registry, cfg, nil)))

	t.Cleanup(func() {
		srv.Close()
		svc.Wait()
		_ = store.Close()
	})
	return &testEnv{store: store, svc: svc, server: srv}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "••••••••", MaskKey(""))
	assert.Equal(t, "••••••••", MaskKey("12345678"))
	assert.Equal(t, "sk-a••••••••wxyz", MaskKey("sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "1234••••••••6789", MaskKey("123456789"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, stubProvider{})
	status, resp := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, status)

	var data struct {
		Status   string `json:"status"`
		Database struct {
			Driver    string `json:"driver"`
			Connected bool   `json:"connected"`
		} `json:"database"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "sqlite", data.Database.Driver)
	assert.True(t, data.Database.Connected)
}

func TestGenerateStorybookFlow(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, resp := env.do(t, http.MethodPost, "/api/storybook/generate", map[string]interface{}{"theme": "小猫学游泳", "sceneCount": 3})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "LLM")

	status, _ = env.do(t, http.MethodPut, "/api/settings/llm-config", map[string]string{"apiKey": "sk-llm-0123456789"})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPut, "/api/settings/api-keys/openai", map[string]string{"apiKey": "sk-img-0123456789"})
	require.Equal(t, http.StatusOK, status)

	status, resp = env.do(t, http.MethodPost, "/api/storybook/generate", map[string]interface{}{"theme": "小猫学游泳", "sceneCount": 3, "style": "watercolor"})
	require.Equal(t, http.StatusOK, status, resp.Error)

	var created storybook.CreateResult
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, models.StorybookGenerating, created.Status)
	assert.Equal(t, 3, created.SceneCount)
	env.svc.Wait()

	status, resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/storybook/%d/status", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var snap storybook.StatusSnapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	assert.Equal(t, models.StorybookCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress.Percent)

	status, resp = env.do(t, http.MethodPatch, fmt.Sprintf("/api/storybook/%d/favorite", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"is_favorite":true}`, string(resp.Data))

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/storybook/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, fmt.Sprintf("/api/storybook/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGenerateStorybookValidation(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	for _, body := range []map[string]interface{}{
		{"theme": "", "sceneCount": 3},
		{"theme": "t", "sceneCount": 9},
		{"theme": "t", "sceneCount": 3, "provider": "midjourney"},
	} {
		status, resp := env.do(t, http.MethodPost, "/api/storybook/generate", body)
		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.False(t, resp.Success)
	}

	status, _ := env.do(t, http.MethodGet, "/api/storybook/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = env.do(t, http.MethodGet, "/api/storybook/42/status", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGenerateImage(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, _ := env.do(t, http.MethodPost, "/api/generate", map[string]string{"story": "a cat", "style": "cartoon", "provider": "openai"})
	assert.Equal(t, http.StatusBadRequest, status)

	require.NoError(t, env.store.SaveProviderConfig(context.Background(), &models.ProviderConfig{Provider: "openai", APIKey: "sk-img"}))
	status, resp := env.do(t, http.MethodPost, "/api/generate", map[string]string{"story": "a cat", "style": "cartoon", "provider": "openai"})
	require.Equal(t, http.StatusOK, status, resp.Error)

	var out GenerateImageResponse
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	assert.Equal(t, "https://img.example/x.png", out.ImageURL)
	assert.True(t, len(out.EnhancedPrompt) > 0)
	assert.Equal(t, "revised", out.RevisedPrompt)

	status, resp = env.do(t, http.MethodGet, "/api/images", nil)
	require.Equal(t, http.StatusOK, status)
	var images []models.Image
	require.NoError(t, json.Unmarshal(resp.Data, &images))
	require.Len(t, images, 1)
	assert.Equal(t, out.ID, images[0].ID)
}

func TestGenerateImageProviderFailure(t *testing.T) {
	env := newTestEnv(t, stubProvider{err: &generators.ProviderError{Provider: "openai", StatusCode: 500, Message: "upstream exploded"}})
	require.NoError(t, env.store.SaveProviderConfig(context.Background(), &models.ProviderConfig{Provider: "openai", APIKey: "sk-img"}))

	status, resp := env.do(t, http.MethodPost, "/api/generate", map[string]string{"story": "a cat", "style": "cartoon", "provider": "openai"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "openai: upstream exploded", resp.Error)
}

func TestSettingsRoutes(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, resp := env.do(t, http.MethodGet, "/api/settings/llm-config", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"configured":false,"baseUrl":"https://api.openai.com/v1","modelName":"gpt-4o-mini"}`, string(resp.Data))

	status, _ = env.do(t, http.MethodPut, "/api/settings/api-keys/tongyi", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/api/settings/api-keys/tongyi", map[string]string{"apiKey": "sk-1234567890abcd"})
	require.Equal(t, http.StatusOK, status)
	status, resp = env.do(t, http.MethodGet, "/api/settings/api-keys/tongyi", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"configured":true,"masked":"sk-1••••••••abcd","baseUrl":"","modelName":""}`, string(resp.Data))

	status, resp = env.do(t, http.MethodGet, "/api/settings/api-keys/list", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["tongyi"]`, string(resp.Data))

	status, _ = env.do(t, http.MethodDelete, "/api/settings/api-keys/tongyi", nil)
	require.Equal(t, http.StatusOK, status)
	status, resp = env.do(t, http.MethodGet, "/api/settings/api-keys/tongyi", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"configured":false}`, string(resp.Data))

	status, _ = env.do(t, http.MethodGet, "/api/settings/theme", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodPut, "/api/settings/theme", map[string]string{"value": "dark"})
	require.Equal(t, http.StatusOK, status)
	status, resp = env.do(t, http.MethodGet, "/api/settings/theme", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `"dark"`, string(resp.Data))
}

func TestImageGallery(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, _ := env.do(t, http.MethodPost, "/api/images", map[string]string{"story": "s"})
	assert.Equal(t, http.StatusBadRequest, status)

	var ids []uint
	for i := 0; i < 3; i++ {
		status, resp := env.do(t, http.MethodPost, "/api/images", map[string]string{
			"story": "s", "style": "cartoon", "provider": "openai", "image_url": fmt.Sprintf("https://x/%d.png", i),
		})
		require.Equal(t, http.StatusOK, status)
		var img models.Image
		require.NoError(t, json.Unmarshal(resp.Data, &img))
		ids = append(ids, img.ID)
	}

	status, _ = env.do(t, http.MethodPatch, fmt.Sprintf("/api/images/%d/favorite", ids[0]), nil)
	require.Equal(t, http.StatusOK, status)
	status, resp := env.do(t, http.MethodGet, "/api/images?favorites=true", nil)
	require.Equal(t, http.StatusOK, status)
	var favs []models.Image
	require.NoError(t, json.Unmarshal(resp.Data, &favs))
	require.Len(t, favs, 1)
	assert.Equal(t, ids[0], favs[0].ID)

	status, resp = env.do(t, http.MethodPost, "/api/images/batch-delete", map[string][]uint{"ids": {ids[1], ids[2], 999}})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"deleted":2}`, string(resp.Data))

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/images/%d", ids[1]), nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStylesAndProviders(t *testing.T) {
	env := newTestEnv(t, stubProvider{})

	status, resp := env.do(t, http.MethodGet, "/api/generate/styles", nil)
	require.Equal(t, http.StatusOK, status)
	var styles []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &styles))
	assert.Len(t, styles, 5)

	status, resp = env.do(t, http.MethodGet, "/api/generate/providers", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"configuredProviders":[],"supportedProviders":["openai"]}`, string(resp.Data))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, stubProvider{})
	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/storybook", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
}
