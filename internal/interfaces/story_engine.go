package interfaces

import "context"

// Scene is one page worth of story text plus its illustration prompt.
type Scene struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"` // English
}

// GeneratedStory is the parsed LLM output
type GeneratedStory struct {
	Title  string  `json:"title"`
	Scenes []Scene `json:"scenes"`
}

// LLMSettings points at an OpenAI-compatible chat completion endpoint.
type LLMSettings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// StoryGenerator turns a theme into a titled story split into scenes.
type StoryGenerator interface {
	GenerateStory(ctx context.Context, theme string, sceneCount int, settings *LLMSettings) (*GeneratedStory, error)
}
