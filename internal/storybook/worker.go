package storybook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/metrics"
	"popup-storybook/server/internal/models"
	"popup-storybook/server/internal/prompts"
	"popup-storybook/server/internal/storage"
)

const finalizeTimeout = 5 * time.Second

// job is the illustration work for one storybook.
type job struct {
	storybookID uint
	style       string
	provider    string
	credentials *models.ProviderConfig
	pages       []models.StorybookPage
}

// spawn starts j in the background. It reports false once Shutdown began.
func (s *Service) spawn(j *job) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.active.Inc()
	metrics.ActiveJobs.Inc()

	go func() {
		defer s.wg.Done()
		defer s.active.Dec()
		defer metrics.ActiveJobs.Dec()
		s.run(j)
	}()
	return true
}

func (s *Service) run(j *job) {
	log := s.logger.With(zap.Uint("storybook_id", j.storybookID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("illustration job panicked", zap.Any("panic", r), zap.Stack("stack"))
			s.finish(j, models.StorybookFailed, log)
		}
	}()

	failed, err := s.illustrate(s.baseCtx, j, log)
	switch {
	case apperr.IsNotFound(err):
		log.Warn("storybook deleted while illustrating, job stopped")
	case err != nil:
		log.Error("illustration job aborted", zap.Error(err))
		s.finish(j, models.StorybookFailed, log)
	case failed == 0:
		s.finish(j, models.StorybookCompleted, log)
	default:
		s.finish(j, models.StorybookPartial, log)
	}
}

// illustrate renders the pages in ascending order. A failed page is recorded
// and the loop moves on. It returns the number of failed pages.
func (s *Service) illustrate(ctx context.Context, j *job, log *zap.Logger) (int64, error) {
	for _, page := range j.pages {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		req := &interfaces.GenerationRequest{
			Prompt:  prompts.PagePrompt(page.ImagePrompt, j.style),
			APIKey:  j.credentials.APIKey,
			BaseURL: j.credentials.BaseURL,
			Model:   j.credentials.ModelName,
			Size:    s.opts.ImageSize,
		}
		res, err := s.images.Dispatch(ctx, j.provider, req)
		switch {
		case err != nil && ctx.Err() != nil:
			return 0, ctx.Err()
		case err != nil:
			log.Warn("page illustration failed", zap.Int("page_index", page.PageIndex), zap.Error(err))
			err = s.repo.FailPage(ctx, j.storybookID, page.PageIndex)
		default:
			err = s.repo.CompletePage(ctx, j.storybookID, page.PageIndex, res.URL)
		}

		if errors.Is(err, storage.ErrPageSettled) {
			log.Warn("page already settled", zap.Int("page_index", page.PageIndex))
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("record page %d: %w", page.PageIndex, err)
		}
	}

	return s.repo.CountPagesByStatus(ctx, j.storybookID, models.PageFailed)
}

// finish uses its own context so a cancelled job can still be marked failed.
func (s *Service) finish(j *job, status models.StorybookStatus, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if err := s.repo.FinishStorybook(ctx, j.storybookID, status); err != nil {
		if apperr.IsNotFound(err) {
			log.Warn("storybook deleted before it finished")
			return
		}
		log.Error("failed to finish storybook", zap.String("status", string(status)), zap.Error(err))
		return
	}
	metrics.StorybooksFinished.WithLabelValues(string(status)).Inc()
	log.Info("storybook finished", zap.String("status", string(status)))
}
