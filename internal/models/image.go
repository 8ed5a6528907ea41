package models

import "time"

// Image is a single illustration saved to the gallery.
type Image struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Story          string    `gorm:"type:text" json:"story"`
	Style          string    `gorm:"size:32" json:"style"`
	Provider       string    `gorm:"size:32" json:"provider"`
	ImageURL       string    `gorm:"size:16777215" json:"image_url"`
	EnhancedPrompt string    `gorm:"type:text" json:"enhanced_prompt"`
	RevisedPrompt  string    `gorm:"type:text" json:"revised_prompt"`
	IsFavorite     bool      `gorm:"index" json:"is_favorite"`
	CreatedAt      time.Time `json:"created_at"`
}
