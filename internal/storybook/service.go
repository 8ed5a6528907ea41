// Package storybook creates storybooks and drives their illustration in the
// background.
package storybook

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/generators"
	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/models"
	"popup-storybook/server/internal/prompts"
)

const (
	MinScenes = 2
	MaxScenes = 8

	defaultStatusCacheTTL = 10 * time.Minute
)

// ErrShuttingDown is returned by Create once Shutdown has been called.
var ErrShuttingDown = errors.New("storybook service is shutting down")

// Repository is the persistence the service needs.
type Repository interface {
	GetLLMConfig(ctx context.Context) (*models.LLMConfig, error)
	GetProviderConfig(ctx context.Context, provider string) (*models.ProviderConfig, error)

	CreateStorybook(ctx context.Context, book *models.Storybook, pages []models.StorybookPage) error
	GetStorybook(ctx context.Context, id uint) (*models.Storybook, error)
	GetStorybookWithPages(ctx context.Context, id uint) (*models.Storybook, error)
	ListStorybooks(ctx context.Context, favoritesOnly bool) ([]models.Storybook, error)
	ListPages(ctx context.Context, storybookID uint) ([]models.StorybookPage, error)
	CompletePage(ctx context.Context, storybookID uint, pageIndex int, imageURL string) error
	FailPage(ctx context.Context, storybookID uint, pageIndex int) error
	CountPagesByStatus(ctx context.Context, storybookID uint, status models.PageStatus) (int64, error)
	FinishStorybook(ctx context.Context, id uint, status models.StorybookStatus) error
	ToggleStorybookFavorite(ctx context.Context, id uint) (bool, error)
	DeleteStorybook(ctx context.Context, id uint) error
}

// SnapshotCache stores JSON snapshots with a TTL. storage.RedisStore implements it.
type SnapshotCache interface {
	SetJSON(ctx context.Context, key string, v interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, v interface{}) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	ImageSize      string
	StatusCacheTTL time.Duration
}

// CreateRequest is the input of Create. Zero values are not defaulted here.
type CreateRequest struct {
	Theme      string
	SceneCount int
	Style      string
	Provider   string
}

type CreateResult struct {
	ID         uint                   `json:"id"`
	Title      string                 `json:"title"`
	Theme      string                 `json:"theme"`
	Status     models.StorybookStatus `json:"status"`
	SceneCount int                    `json:"sceneCount"`
}

type Service struct {
	repo    Repository
	stories interfaces.StoryGenerator
	images  interfaces.ImageDispatcher
	cache   SnapshotCache
	logger  *zap.Logger
	opts    Options

	// background jobs outlive the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	active  *atomic.Int64

	// mu guards closed against wg.Add racing Shutdown's wg.Wait
	mu     sync.Mutex
	closed bool
}

// NewService wires the orchestrator. cache may be nil.
func NewService(repo Repository, stories interfaces.StoryGenerator, images interfaces.ImageDispatcher, cache SnapshotCache, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ImageSize == "" {
		opts.ImageSize = interfaces.DefaultImageSize
	}
	if opts.StatusCacheTTL <= 0 {
		opts.StatusCacheTTL = defaultStatusCacheTTL
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:    repo,
		stories: stories,
		images:  images,
		cache:   cache,
		logger:  logger.Named("storybook"),
		opts:    opts,
		baseCtx: ctx,
		cancel:  cancel,
		active:  atomic.NewInt64(0),
	}
}

// Create writes the story synchronously, persists it, and starts the
// illustration job. It returns before any image is generated.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	theme := strings.TrimSpace(req.Theme)
	if theme == "" {
		return nil, apperr.Validation("theme is required")
	}
	if req.SceneCount < MinScenes || req.SceneCount > MaxScenes {
		return nil, apperr.Validation("sceneCount must be between %d and %d", MinScenes, MaxScenes)
	}
	if !s.images.Supports(req.Provider) {
		return nil, &generators.UnknownProviderError{Provider: req.Provider}
	}
	if s.baseCtx.Err() != nil {
		return nil, ErrShuttingDown
	}
	style := req.Style
	if !prompts.IsKnownStyle(style) {
		if style != "" {
			s.logger.Debug("unknown style, using default", zap.String("style", style))
		}
		style = prompts.DefaultStyle
	}

	llm, err := s.llmSettings(ctx)
	if err != nil {
		return nil, err
	}
	providerCfg, err := s.providerConfig(ctx, req.Provider)
	if err != nil {
		return nil, err
	}

	story, err := s.stories.GenerateStory(ctx, theme, req.SceneCount, llm)
	if err != nil {
		return nil, err
	}

	book := &models.Storybook{
		Title:      story.Title,
		Theme:      theme,
		Style:      style,
		Provider:   req.Provider,
		SceneCount: len(story.Scenes),
		Status:     models.StorybookGenerating,
	}
	pages := make([]models.StorybookPage, 0, len(story.Scenes))
	for _, scene := range story.Scenes {
		pages = append(pages, models.StorybookPage{
			PageIndex:   scene.Index,
			Text:        scene.Text,
			ImagePrompt: scene.ImagePrompt,
			Status:      models.PagePending,
		})
	}
	if err := s.repo.CreateStorybook(ctx, book, pages); err != nil {
		return nil, err
	}

	s.logger.Info("storybook created",
		zap.Uint("storybook_id", book.ID),
		zap.String("provider", book.Provider),
		zap.Int("pages", len(pages)))

	j := &job{
		storybookID: book.ID,
		style:       style,
		provider:    req.Provider,
		credentials: providerCfg,
		pages:       pages,
	}
	if !s.spawn(j) {
		s.finish(j, models.StorybookFailed, s.logger.With(zap.Uint("storybook_id", book.ID)))
		return nil, ErrShuttingDown
	}

	return &CreateResult{
		ID:         book.ID,
		Title:      book.Title,
		Theme:      book.Theme,
		Status:     book.Status,
		SceneCount: book.SceneCount,
	}, nil
}

func (s *Service) llmSettings(ctx context.Context) (*interfaces.LLMSettings, error) {
	cfg, err := s.repo.GetLLMConfig(ctx)
	if apperr.IsNotFound(err) || (err == nil && cfg.APIKey == "") {
		return nil, &apperr.ConfigurationMissingError{}
	}
	if err != nil {
		return nil, err
	}
	return &interfaces.LLMSettings{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.ModelName}, nil
}

func (s *Service) providerConfig(ctx context.Context, provider string) (*models.ProviderConfig, error) {
	cfg, err := s.repo.GetProviderConfig(ctx, provider)
	if apperr.IsNotFound(err) || (err == nil && cfg.APIKey == "") {
		return nil, &apperr.ConfigurationMissingError{Provider: provider}
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Storybook, error) {
	return s.repo.GetStorybookWithPages(ctx, id)
}

func (s *Service) List(ctx context.Context, favoritesOnly bool) ([]models.Storybook, error) {
	return s.repo.ListStorybooks(ctx, favoritesOnly)
}

func (s *Service) ToggleFavorite(ctx context.Context, id uint) (bool, error) {
	return s.repo.ToggleStorybookFavorite(ctx, id)
}

// Delete removes the storybook. A job still illustrating it stops at its next write.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.DeleteStorybook(ctx, id); err != nil {
		return err
	}
	s.dropCached(ctx, id)
	return nil
}

func (s *Service) dropCached(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statusKey(id)); err != nil {
		s.logger.Warn("failed to drop cached status", zap.Uint("storybook_id", id), zap.Error(err))
	}
}

// ActiveJobs is the number of illustration jobs in flight.
func (s *Service) ActiveJobs() int64 {
	return s.active.Load()
}

// Wait blocks until every running job returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Shutdown stops accepting work, cancels running jobs and waits for them
// until ctx expires.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
