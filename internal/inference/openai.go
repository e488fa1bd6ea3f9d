package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAI struct {
	client openai.Client
}

func NewOpenAI(apiKey, baseURL string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...)}
}

func (o *OpenAI) Run(ctx context.Context, model string, inputs Inputs) (Result, error) {
	switch inputs.Kind {
	case KindImage:
		return o.generateImage(ctx, model, inputs.Prompt)
	case KindText, "":
		return o.chat(ctx, model, inputs.Messages)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, inputs.Kind)
	}
}

func (o *OpenAI) chat(ctx context.Context, model string, messages []Message) (Result, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range NormalizeMessages(messages) {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: params,
		Model:    model,
	})
	if err != nil {
		return Result{}, fmt.Errorf("error calling openai model %s: %w", model, err)
	}

	if len(completion.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: no choices returned", ErrUnexpectedOutput)
	}

	return Result{
		Output:    Output{Text: completion.Choices[0].Message.Content},
		RequestID: completion.ID,
	}, nil
}

func (o *OpenAI) generateImage(ctx context.Context, model, prompt string) (Result, error) {
	params := openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  model,
		N:      openai.Int(1),
	}
	// gpt-image models always return base64 and reject response_format.
	if strings.HasPrefix(model, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	}

	res, err := o.client.Images.Generate(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("error calling openai image model %s: %w", model, err)
	}

	if len(res.Data) == 0 || res.Data[0].B64JSON == "" {
		return Result{}, fmt.Errorf("%w: no image data returned", ErrUnexpectedOutput)
	}

	img, err := decodeBase64Image(res.Data[0].B64JSON)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: Output{Image: img}, RequestID: uuid.NewString()}, nil
}
