package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const DefaultWorkersAIBaseURL = "https://api.cloudflare.com/client/v4"

// WorkersAI calls the Cloudflare Workers AI REST endpoint
// POST {base}/accounts/{account}/ai/run/{model}.
type WorkersAI struct {
	client    *resty.Client
	accountID string
}

func NewWorkersAI(baseURL, accountID, apiToken string) *WorkersAI {
	if baseURL == "" {
		baseURL = DefaultWorkersAIBaseURL
	}
	return &WorkersAI{
		client:    resty.New().SetBaseURL(strings.TrimSuffix(baseURL, "/")).SetAuthToken(apiToken),
		accountID: accountID,
	}
}

type workersAIEnvelope struct {
	Result   json.RawMessage   `json:"result"`
	Success  bool              `json:"success"`
	Errors   []json.RawMessage `json:"errors"`
	Messages []json.RawMessage `json:"messages"`
}

type workersAIResult struct {
	Response *string `json:"response"`
	Image    *string `json:"image"`
}

func (w *WorkersAI) Run(ctx context.Context, model string, inputs Inputs) (Result, error) {
	body := map[string]any{}
	switch inputs.Kind {
	case KindImage:
		body["prompt"] = inputs.Prompt
		body["num_steps"] = ClampSteps(inputs.NumSteps)
	case KindText, "":
		body["messages"] = NormalizeMessages(inputs.Messages)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, inputs.Kind)
	}

	endpoint := fmt.Sprintf("/accounts/%s/ai/run/%s", w.accountID, model)

	res, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("error calling workers ai model %s: %w", model, err)
	}

	requestID := res.Header().Get("cf-ai-req-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	// Image models may answer with the raw bytes instead of the JSON envelope.
	if res.IsSuccess() && strings.HasPrefix(res.Header().Get("Content-Type"), "image/") {
		return Result{Output: Output{Image: res.Body()}, RequestID: requestID}, nil
	}

	var envelope workersAIEnvelope
	if err := json.Unmarshal(res.Body(), &envelope); err != nil {
		if !res.IsSuccess() {
			slog.Error("workers ai returned error", "status_code", res.StatusCode(), "body", res.String())
			return Result{}, fmt.Errorf("workers ai returned status %d: %s", res.StatusCode(), res.String())
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}

	logs := envelopeMessages(envelope.Messages)

	if !res.IsSuccess() || !envelope.Success {
		errs := envelopeMessages(envelope.Errors)
		slog.Error("workers ai returned error", "status_code", res.StatusCode(), "errors", errs, "request_id", requestID)
		return Result{}, fmt.Errorf("workers ai returned status %d: %s", res.StatusCode(), strings.Join(errs, "; "))
	}

	out, err := parseWorkersAIResult(inputs.Kind, envelope.Result)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: out, RequestID: requestID, Logs: logs}, nil
}

func parseWorkersAIResult(kind Kind, raw json.RawMessage) (Output, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if kind == KindImage {
			img, err := decodeBase64Image(text)
			if err != nil {
				return Output{}, err
			}
			return Output{Image: img}, nil
		}
		return Output{Text: text}, nil
	}

	var result workersAIResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return Output{}, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}

	if kind == KindImage {
		if result.Image == nil {
			return Output{}, fmt.Errorf("%w: missing image", ErrUnexpectedOutput)
		}
		img, err := decodeBase64Image(*result.Image)
		if err != nil {
			return Output{}, err
		}
		return Output{Image: img}, nil
	}

	if result.Response == nil {
		return Output{}, fmt.Errorf("%w: missing response", ErrUnexpectedOutput)
	}
	return Output{Text: *result.Response}, nil
}

// envelopeMessages flattens the errors/messages arrays, which hold either
// plain strings or {code, message} objects.
func envelopeMessages(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var m struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(r, &m); err == nil && m.Message != "" {
			if m.Code != 0 {
				out = append(out, fmt.Sprintf("%d: %s", m.Code, m.Message))
			} else {
				out = append(out, m.Message)
			}
			continue
		}
		out = append(out, string(r))
	}
	return out
}
