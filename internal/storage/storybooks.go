package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/models"
)

// ErrPageSettled is returned when a page already left the pending state.
var ErrPageSettled = errors.New("page already settled")

// CreateStorybook inserts the storybook and its pages in one transaction.
func (s *Store) CreateStorybook(ctx context.Context, book *models.Storybook, pages []models.StorybookPage) error {
	return s.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Pages").Create(book).Error; err != nil {
			return fmt.Errorf("failed to insert storybook: %w", err)
		}
		if len(pages) == 0 {
			return nil
		}
		for i := range pages {
			pages[i].StorybookID = book.ID
		}
		if err := tx.Create(&pages).Error; err != nil {
			return fmt.Errorf("failed to insert pages: %w", err)
		}
		return nil
	})
}

func (s *Store) GetStorybook(ctx context.Context, id uint) (*models.Storybook, error) {
	var book models.Storybook
	err := s.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("storybook", id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetStorybookWithPages loads the storybook and its pages ordered by index.
func (s *Store) GetStorybookWithPages(ctx context.Context, id uint) (*models.Storybook, error) {
	book, err := s.GetStorybook(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, err := s.ListPages(ctx, id)
	if err != nil {
		return nil, err
	}
	book.Pages = pages
	return book, nil
}

func (s *Store) ListStorybooks(ctx context.Context, favoritesOnly bool) ([]models.Storybook, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	var books []models.Storybook
	if err := q.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) ListPages(ctx context.Context, storybookID uint) ([]models.StorybookPage, error) {
	var pages []models.StorybookPage
	err := s.db.WithContext(ctx).
		Where("storybook_id = ?", storybookID).
		Order("page_index ASC").
		Find(&pages).Error
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// CompletePage moves a pending page to completed with its image.
func (s *Store) CompletePage(ctx context.Context, storybookID uint, pageIndex int, imageURL string) error {
	return s.settlePage(ctx, storybookID, pageIndex, map[string]interface{}{
		"status":    models.PageCompleted,
		"image_url": imageURL,
	})
}

// FailPage moves a pending page to failed.
func (s *Store) FailPage(ctx context.Context, storybookID uint, pageIndex int) error {
	return s.settlePage(ctx, storybookID, pageIndex, map[string]interface{}{
		"status": models.PageFailed,
	})
}

// settlePage is a single-row update keyed by (storybook_id, page_index) and
// guarded on the pending state, so pages never regress.
func (s *Store) settlePage(ctx context.Context, storybookID uint, pageIndex int, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.StorybookPage{}).
		Where("storybook_id = ? AND page_index = ? AND status = ?", storybookID, pageIndex, models.PagePending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.StorybookPage{}).
		Where("storybook_id = ? AND page_index = ?", storybookID, pageIndex).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound("storybook page", fmt.Sprintf("%d/%d", storybookID, pageIndex))
	}
	return ErrPageSettled
}

func (s *Store) CountPagesByStatus(ctx context.Context, storybookID uint, status models.PageStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.StorybookPage{}).
		Where("storybook_id = ? AND status = ?", storybookID, status).
		Count(&count).Error
	return count, err
}

// FinishStorybook sets a terminal status on a storybook that is still generating.
func (s *Store) FinishStorybook(ctx context.Context, id uint, status models.StorybookStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.Storybook{}).
		Where("id = ? AND status = ?", id, models.StorybookGenerating).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetStorybook(ctx, id); err != nil {
			return err
		}
		s.logger.Warn("storybook already finished", zap.Uint("storybook_id", id))
	}
	return nil
}

// ToggleStorybookFavorite flips is_favorite and returns the new value.
func (s *Store) ToggleStorybookFavorite(ctx context.Context, id uint) (bool, error) {
	var favorite bool
	err := s.WithTx(ctx, func(tx *gorm.DB) error {
		var book models.Storybook
		err := tx.Select("id", "is_favorite").First(&book, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("storybook", id)
		}
		if err != nil {
			return err
		}
		favorite = !book.IsFavorite
		return tx.Model(&models.Storybook{}).Where("id = ?", id).Update("is_favorite", favorite).Error
	})
	return favorite, err
}

// DeleteStorybook removes the storybook and its pages.
func (s *Store) DeleteStorybook(ctx context.Context, id uint) error {
	return s.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("storybook_id = ?", id).Delete(&models.StorybookPage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Storybook{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("storybook", id)
		}
		return nil
	})
}
