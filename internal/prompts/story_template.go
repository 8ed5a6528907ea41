package prompts

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
)

// Names of the built-in templates.
const (
	StoryTemplateName = "storybook"
	StorySystemPrompt = "你是一个专业的儿童绘本作家。"
)

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateEngine holds named prompt templates.
type TemplateEngine struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// Template is a prompt with {{variable}} placeholders.
type Template struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Variables   []string `json:"variables"`
	Description string   `json:"description"`
}

// NewTemplateEngine returns an engine preloaded with the storybook template.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.RegisterTemplate(storyTemplate)
	return e
}

func (e *TemplateEngine) RegisterTemplate(tmpl *Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[tmpl.Name] = tmpl
}

func (e *TemplateEngine) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, nil
}

// Render fills the named template. Every declared variable must be supplied.
func (e *TemplateEngine) Render(name string, vars map[string]string) (string, error) {
	tmpl, err := e.GetTemplate(name)
	if err != nil {
		return "", err
	}
	for _, v := range tmpl.Variables {
		if _, ok := vars[v]; !ok {
			return "", fmt.Errorf("template %s: missing variable %s", name, v)
		}
	}

	return varRegex.ReplaceAllStringFunc(tmpl.Content, func(match string) string {
		if value, ok := vars[varRegex.FindStringSubmatch(match)[1]]; ok {
			return value
		}
		return match // keep unknown placeholders
	}), nil
}

// RenderStory renders the storybook prompt for a theme and scene count.
func (e *TemplateEngine) RenderStory(theme string, sceneCount int) (string, error) {
	return e.Render(StoryTemplateName, map[string]string{
		"theme":       theme,
		"scene_count": strconv.Itoa(sceneCount),
	})
}

var storyTemplate = &Template{
	Name:        StoryTemplateName,
	Variables:   []string{"theme", "scene_count"},
	Description: "Short toddler story split into illustrated scenes, answered as JSON",
	Content: `你是一个专业的儿童绘本作家。请为3岁以下幼儿创作一个关于"{{theme}}"的简短故事。

要求：
1. 故事要温馨、有趣、积极向上
2. 语言要简单，适合幼儿理解
3. 将故事分成{{scene_count}}个场景/页面
4. 每个场景2-3句话
5. 给整个故事起一个吸引人的标题

请严格按照以下 JSON 格式返回：
{
  "title": "故事标题",
  "scenes": [
    {
      "index": 1,
      "text": "场景1的故事内容",
      "imagePrompt": "用英文描述这个场景的插画，包含角色、动作、场景、氛围等"
    }
  ]
}

注意：imagePrompt 必须是英文，要详细描述画面内容，适合用于AI绘图。`,
}
