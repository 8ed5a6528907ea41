package prompts

import (
	"strings"
	"unicode/utf8"
)

const maxSceneRunes = 200

var childSafeModifiers = []string{
	"child-friendly",
	"safe for kids",
	"age-appropriate",
	"no violence",
	"no scary elements",
	"gentle",
	"wholesome",
	"cute",
	"friendly",
}

var qualityModifiers = []string{
	"high quality",
	"detailed",
	"beautiful illustration",
	"vibrant colors",
	"professional artwork",
}

// Enhance turns a free-form story snippet into an image prompt in the given style.
func Enhance(story, styleID string) string {
	style := LookupStyle(styleID)

	scene := strings.TrimSpace(story)
	if utf8.RuneCountInString(scene) > maxSceneRunes {
		scene = string([]rune(scene)[:maxSceneRunes]) + "..."
	}

	return strings.Join([]string{
		"Illustration of: " + scene,
		style.Prompt,
		strings.Join(childSafeModifiers, ", "),
		strings.Join(qualityModifiers[:3], ", "),
	}, ", ")
}

// PagePrompt decorates the English scene prompt written by the story model.
func PagePrompt(imagePrompt, styleID string) string {
	return imagePrompt + ", " + LookupStyle(styleID).Prompt + ", child-friendly, safe for kids, high quality illustration"
}
