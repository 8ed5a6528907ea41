package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"popup-storybook/server/internal/interfaces"
	"popup-storybook/server/internal/metrics"
	"popup-storybook/server/internal/prompts"
)

const parseSnippetLength = 200

// Completer sends one system+user exchange to a chat model.
type Completer interface {
	Complete(ctx context.Context, settings *interfaces.LLMSettings, system, user string) (string, error)
}

// StoryEngine writes a story with the configured chat model and coerces the
// reply into a GeneratedStory.
type StoryEngine struct {
	chat         Completer
	promptEngine *prompts.TemplateEngine
	logger       *zap.Logger
}

func NewStoryEngine(chat Completer, logger *zap.Logger) *StoryEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoryEngine{
		chat:         chat,
		promptEngine: prompts.NewTemplateEngine(),
		logger:       logger,
	}
}

// NewOpenAIStoryEngine is a StoryEngine backed by the go-openai client.
func NewOpenAIStoryEngine(httpClient *http.Client, logger *zap.Logger) *StoryEngine {
	return NewStoryEngine(NewChatClient(httpClient), logger)
}

var _ interfaces.StoryGenerator = (*StoryEngine)(nil)

func (e *StoryEngine) GenerateStory(ctx context.Context, theme string, sceneCount int, settings *interfaces.LLMSettings) (*interfaces.GeneratedStory, error) {
	story, err := e.generate(ctx, theme, sceneCount, settings)
	if err != nil {
		metrics.StoryGenerations.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.StoryGenerations.WithLabelValues("success").Inc()
	return story, nil
}

func (e *StoryEngine) generate(ctx context.Context, theme string, sceneCount int, settings *interfaces.LLMSettings) (*interfaces.GeneratedStory, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, &StoryGenerationError{Message: "llm is not configured"}
	}

	prompt, err := e.promptEngine.RenderStory(theme, sceneCount)
	if err != nil {
		return nil, &StoryGenerationError{Message: "render prompt", Err: err}
	}

	content, err := e.chat.Complete(ctx, settings, prompts.StorySystemPrompt, prompt)
	if err != nil {
		return nil, &StoryGenerationError{Message: "chat completion", Err: err}
	}

	story, err := ParseStory(content, sceneCount)
	if err != nil {
		e.logger.Warn("story reply rejected",
			zap.String("theme", theme),
			zap.String("reply", truncateRunes(content, 500)),
			zap.Error(err))
		return nil, &StoryGenerationError{Message: "invalid reply", Err: err}
	}

	e.logger.Info("story generated",
		zap.String("title", story.Title),
		zap.Int("scenes", len(story.Scenes)))
	return story, nil
}

// ParseStory extracts the JSON object from a model reply, repairing it when
// needed, and validates it. At most sceneCount scenes are kept; a shorter
// reply is accepted as is. Scenes are renumbered 1..N in reply order.
// A sceneCount <= 0 keeps every scene.
func ParseStory(content string, sceneCount int) (*interfaces.GeneratedStory, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, &StoryParseError{Snippet: truncateRunes(content, parseSnippetLength), Err: errNoObject}
	}
	raw := content[start : end+1]

	var story interfaces.GeneratedStory
	if err := json.Unmarshal([]byte(raw), &story); err != nil {
		repaired := RepairJSON(raw)
		if err := json.Unmarshal([]byte(repaired), &story); err != nil {
			return nil, &StoryParseError{Snippet: truncateRunes(raw, parseSnippetLength), Err: err}
		}
	}

	story.Title = strings.TrimSpace(story.Title)
	if story.Title == "" {
		return nil, &StoryFormatError{Reason: "missing title"}
	}
	if len(story.Scenes) == 0 {
		return nil, &StoryFormatError{Reason: "no scenes"}
	}
	if sceneCount > 0 && len(story.Scenes) > sceneCount {
		story.Scenes = story.Scenes[:sceneCount]
	}
	for i := range story.Scenes {
		if strings.TrimSpace(story.Scenes[i].Text) == "" {
			return nil, &StoryFormatError{Reason: "scene without text"}
		}
		story.Scenes[i].Index = i + 1
	}
	return &story, nil
}

var errNoObject = errors.New("no json object in reply")

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
