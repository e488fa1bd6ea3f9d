package inference

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangChain runs text models through any langchaingo llms.Model. A model is
// constructed per call since the model name comes from the tool.
type LangChain struct {
	newModel func(model string) (llms.Model, error)
}

func NewLangChain(newModel func(model string) (llms.Model, error)) *LangChain {
	return &LangChain{newModel: newModel}
}

func NewOllama(serverURL string) *LangChain {
	return NewLangChain(func(model string) (llms.Model, error) {
		opts := []ollama.Option{ollama.WithModel(model)}
		if serverURL != "" {
			opts = append(opts, ollama.WithServerURL(serverURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, err
		}
		return llm, nil
	})
}

func (l *LangChain) Run(ctx context.Context, model string, inputs Inputs) (Result, error) {
	if inputs.Kind != KindText && inputs.Kind != "" {
		return Result{}, fmt.Errorf("%w: langchain models do not support %s", ErrUnsupportedKind, inputs.Kind)
	}

	llm, err := l.newModel(model)
	if err != nil {
		return Result{}, fmt.Errorf("error creating model %s: %w", model, err)
	}

	content := make([]llms.MessageContent, 0, len(inputs.Messages))
	for _, m := range NormalizeMessages(inputs.Messages) {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	resp, err := llm.GenerateContent(ctx, content)
	if err != nil {
		return Result{}, fmt.Errorf("error generating content with model %s: %w", model, err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no choices returned", ErrUnexpectedOutput)
	}

	return Result{Output: Output{Text: resp.Choices[0].Content}, RequestID: uuid.NewString()}, nil
}
