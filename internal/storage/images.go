package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/models"
)

func (s *Store) CreateImage(ctx context.Context, img *models.Image) error {
	return s.db.WithContext(ctx).Create(img).Error
}

func (s *Store) GetImage(ctx context.Context, id uint) (*models.Image, error) {
	var img models.Image
	err := s.db.WithContext(ctx).First(&img, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("image", id)
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *Store) ListImages(ctx context.Context, favoritesOnly bool) ([]models.Image, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if favoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	var images []models.Image
	if err := q.Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) ToggleImageFavorite(ctx context.Context, id uint) (bool, error) {
	var favorite bool
	err := s.WithTx(ctx, func(tx *gorm.DB) error {
		var img models.Image
		err := tx.Select("id", "is_favorite").First(&img, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("image", id)
		}
		if err != nil {
			return err
		}
		favorite = !img.IsFavorite
		return tx.Model(&models.Image{}).Where("id = ?", id).Update("is_favorite", favorite).Error
	})
	return favorite, err
}

func (s *Store) DeleteImage(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Image{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("image", id)
	}
	return nil
}

// DeleteImages removes every listed image and reports how many rows went away.
func (s *Store) DeleteImages(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Image{})
	return res.RowsAffected, res.Error
}
