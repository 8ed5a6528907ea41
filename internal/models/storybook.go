package models

import (
	"time"
)

type StorybookStatus string

const (
	StorybookGenerating StorybookStatus = "generating"
	StorybookCompleted  StorybookStatus = "completed"
	StorybookPartial    StorybookStatus = "partial"
	StorybookFailed     StorybookStatus = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s StorybookStatus) Terminal() bool {
	return s == StorybookCompleted || s == StorybookPartial || s == StorybookFailed
}

type PageStatus string

const (
	PagePending   PageStatus = "pending"
	PageCompleted PageStatus = "completed"
	PageFailed    PageStatus = "failed"
)

// Storybook is one generated picture book
type Storybook struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Title      string          `gorm:"size:255" json:"title"`
	Theme      string          `gorm:"type:text" json:"theme"`
	Style      string          `gorm:"size:32" json:"style"`
	Provider   string          `gorm:"size:32" json:"provider"`
	SceneCount int             `json:"scene_count"`
	Status     StorybookStatus `gorm:"size:16;index" json:"status"` // "generating", "completed", "partial", "failed"
	IsFavorite bool            `gorm:"index" json:"is_favorite"`
	CreatedAt  time.Time       `json:"created_at"`

	Pages []StorybookPage `gorm:"constraint:OnDelete:CASCADE" json:"pages,omitempty"`
}

// StorybookPage is a single illustrated scene
type StorybookPage struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StorybookID uint       `gorm:"not null;uniqueIndex:idx_storybook_page" json:"storybook_id"`
	PageIndex   int        `gorm:"not null;uniqueIndex:idx_storybook_page" json:"page_index"` // 1-based
	Text        string     `gorm:"type:text" json:"text"`
	ImagePrompt string     `gorm:"type:text" json:"image_prompt"`
	ImageURL    string     `gorm:"size:16777215" json:"image_url"` // may hold a data URI
	Status      PageStatus `gorm:"size:16" json:"status"`
}
