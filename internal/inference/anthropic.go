package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultAnthropicMaxTokens = 1024

type Anthropic struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropic uses the public API unless baseURL is set.
func NewAnthropic(apiKey, baseURL string, maxTokens int64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}
}

func (a *Anthropic) Run(ctx context.Context, model string, inputs Inputs) (Result, error) {
	if inputs.Kind != KindText && inputs.Kind != "" {
		return Result{}, fmt.Errorf("%w: anthropic does not support %s", ErrUnsupportedKind, inputs.Kind)
	}

	var system []string
	messages := make([]anthropic.MessageParam, 0, len(inputs.Messages))
	for _, m := range NormalizeMessages(inputs.Messages) {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("error calling anthropic model %s: %w", model, err)
	}

	var text strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return Result{}, fmt.Errorf("%w: no text content returned", ErrUnexpectedOutput)
	}

	return Result{Output: Output{Text: text.String()}, RequestID: msg.ID}, nil
}
