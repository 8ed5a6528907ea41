package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"popup-storybook/server/internal/apperr"
	"popup-storybook/server/internal/models"
)

func (s *Store) GetProviderConfig(ctx context.Context, provider string) (*models.ProviderConfig, error) {
	var cfg models.ProviderConfig
	err := s.db.WithContext(ctx).Where("provider = ?", provider).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("provider config", provider)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveProviderConfig upserts the provider row; last write wins.
func (s *Store) SaveProviderConfig(ctx context.Context, cfg *models.ProviderConfig) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key", "base_url", "model_name", "updated_at"}),
	}).Create(cfg).Error
}

func (s *Store) DeleteProviderConfig(ctx context.Context, provider string) error {
	return s.db.WithContext(ctx).Where("provider = ?", provider).Delete(&models.ProviderConfig{}).Error
}

// ListConfiguredProviders returns the provider ids that have a stored key.
func (s *Store) ListConfiguredProviders(ctx context.Context) ([]string, error) {
	var providers []string
	err := s.db.WithContext(ctx).
		Model(&models.ProviderConfig{}).
		Order("provider ASC").
		Pluck("provider", &providers).Error
	if err != nil {
		return nil, err
	}
	return providers, nil
}

// GetLLMConfig returns the stored LLM settings, or NotFound when none were saved.
func (s *Store) GetLLMConfig(ctx context.Context) (*models.LLMConfig, error) {
	var cfg models.LLMConfig
	err := s.db.WithContext(ctx).First(&cfg, models.LLMConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("llm config", nil)
	}
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = models.DefaultLLMBaseURL
	}
	if cfg.ModelName == "" {
		cfg.ModelName = models.DefaultLLMModel
	}
	return &cfg, nil
}

// SaveLLMConfig upserts the singleton row, filling in default base URL and model.
func (s *Store) SaveLLMConfig(ctx context.Context, cfg *models.LLMConfig) error {
	cfg.ID = models.LLMConfigID
	if cfg.BaseURL == "" {
		cfg.BaseURL = models.DefaultLLMBaseURL
	}
	if cfg.ModelName == "" {
		cfg.ModelName = models.DefaultLLMModel
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_key", "base_url", "model_name", "updated_at"}),
	}).Create(cfg).Error
}

func (s *Store) GetSetting(ctx context.Context, key string) (*models.Setting, error) {
	var setting models.Setting
	err := s.db.WithContext(ctx).Where(&models.Setting{Key: key}).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("setting", key)
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
}

// ListSettings returns every setting as a key/value map.
func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	var settings []models.Setting
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, st := range settings {
		out[st.Key] = st.Value
	}
	return out, nil
}
