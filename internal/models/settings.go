package models

import "time"

const (
	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"

	// LLMConfigID is the id of the single llm_config row.
	LLMConfigID = 1
)

// ProviderConfig holds the credentials of one image provider.
type ProviderConfig struct {
	Provider  string    `gorm:"primaryKey;size:32" json:"provider"`
	APIKey    string    `gorm:"size:512;not null" json:"-"`
	BaseURL   string    `gorm:"size:512" json:"base_url"`
	ModelName string    `gorm:"size:128" json:"model_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProviderConfig) TableName() string { return "api_keys" }

// LLMConfig configures the OpenAI-compatible endpoint used for story text.
type LLMConfig struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	APIKey    string    `gorm:"size:512" json:"-"`
	BaseURL   string    `gorm:"size:512" json:"base_url"`
	ModelName string    `gorm:"size:128" json:"model_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LLMConfig) TableName() string { return "llm_config" }

// Setting is a free-form UI preference.
type Setting struct {
	Key       string    `gorm:"primaryKey;size:128" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
