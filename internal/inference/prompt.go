package inference

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

const imagePromptTemplate = "Create a highly detailed, photorealistic image of {{.prompt}}. " +
	"Focus on intricate textures, accurate lighting, and lifelike details. " +
	"The image should be of the highest possible quality, suitable for professional use."

var imagePrompt = prompts.NewPromptTemplate(imagePromptTemplate, []string{"prompt"})

func EnhanceImagePrompt(prompt string) (string, error) {
	out, err := imagePrompt.Format(map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("error formatting image prompt: %w", err)
	}
	return out, nil
}

// WithSystemPrompt prefixes messages with a system turn rendered from tmpl.
// tmpl may reference {{.tool}}. An empty tmpl leaves messages unchanged.
func WithSystemPrompt(tmpl, tool string, messages []Message) ([]Message, error) {
	if tmpl == "" {
		return messages, nil
	}

	system, err := prompts.NewPromptTemplate(tmpl, []string{"tool"}).Format(map[string]any{"tool": tool})
	if err != nil {
		return nil, fmt.Errorf("error formatting system prompt: %w", err)
	}

	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: system})
	return append(out, messages...), nil
}
