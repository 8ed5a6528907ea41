package engine

import "fmt"

// StoryGenerationError is returned by GenerateStory for every failure.
type StoryGenerationError struct {
	Message string
	Err     error
}

func (e *StoryGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("story generation failed: %s: %v", e.Message, e.Err)
	}
	return "story generation failed: " + e.Message
}

func (e *StoryGenerationError) Unwrap() error { return e.Err }

// StoryParseError: the reply held no parseable JSON object, even after repair.
type StoryParseError struct {
	Snippet string
	Err     error
}

func (e *StoryParseError) Error() string {
	return fmt.Sprintf("unable to parse story json: %v (near %q)", e.Err, e.Snippet)
}

func (e *StoryParseError) Unwrap() error { return e.Err }

// StoryFormatError: the JSON parsed but is not a usable story.
type StoryFormatError struct {
	Reason string
}

func (e *StoryFormatError) Error() string {
	return "invalid story format: " + e.Reason
}
