package storybook

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"popup-storybook/server/internal/models"
)

type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
}

type PageProgress struct {
	PageIndex int               `json:"page_index"`
	Status    models.PageStatus `json:"status"`
	ImageURL  string            `json:"image_url,omitempty"`
}

// StatusSnapshot is the polling view of a storybook.
type StatusSnapshot struct {
	ID       uint                   `json:"id"`
	Status   models.StorybookStatus `json:"status"`
	Progress Progress               `json:"progress"`
	Pages    []PageProgress         `json:"pages"`
}

func statusKey(id uint) string {
	return fmt.Sprintf("storybook:status:%d", id)
}

// BuildSnapshot projects a storybook and its pages. Only completed pages
// count toward progress.
func BuildSnapshot(book *models.Storybook, pages []models.StorybookPage) *StatusSnapshot {
	snap := &StatusSnapshot{
		ID:     book.ID,
		Status: book.Status,
		Pages:  make([]PageProgress, 0, len(pages)),
	}
	for _, p := range pages {
		if p.Status == models.PageCompleted {
			snap.Progress.Completed++
		}
		snap.Pages = append(snap.Pages, PageProgress{PageIndex: p.PageIndex, Status: p.Status, ImageURL: p.ImageURL})
	}
	snap.Progress.Total = len(pages)
	if snap.Progress.Total > 0 {
		snap.Progress.Percent = int(math.Round(100 * float64(snap.Progress.Completed) / float64(snap.Progress.Total)))
	}
	return snap
}

// Status returns the current snapshot. Terminal snapshots are served from
// the cache when one is configured.
func (s *Service) Status(ctx context.Context, id uint) (*StatusSnapshot, error) {
	if s.cache != nil {
		var cached StatusSnapshot
		found, err := s.cache.GetJSON(ctx, statusKey(id), &cached)
		if err != nil {
			s.logger.Warn("status cache read failed", zap.Uint("storybook_id", id), zap.Error(err))
		} else if found {
			return &cached, nil
		}
	}

	book, err := s.repo.GetStorybook(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, err := s.repo.ListPages(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := BuildSnapshot(book, pages)

	if s.cache != nil && snap.Status.Terminal() {
		if err := s.cache.SetJSON(ctx, statusKey(id), snap, s.opts.StatusCacheTTL); err != nil {
			s.logger.Warn("status cache write failed", zap.Uint("storybook_id", id), zap.Error(err))
		}
		// a Delete that raced the write above must not leave the snapshot behind
		if _, err := s.repo.GetStorybook(ctx, id); err != nil {
			s.dropCached(ctx, id)
			return nil, err
		}
	}
	return snap, nil
}
