package inference_test

import (
	"aitools-backend/internal/inference"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, inference.RoleAssistant, inference.NormalizeRole("ai"))
	assert.Equal(t, inference.RoleAssistant, inference.NormalizeRole("Assistant"))
	assert.Equal(t, inference.RoleSystem, inference.NormalizeRole("system"))
	assert.Equal(t, inference.RoleUser, inference.NormalizeRole("user"))
	assert.Equal(t, inference.RoleUser, inference.NormalizeRole("someone"))
}

func TestClampSteps(t *testing.T) {
	assert.Equal(t, 8, inference.ClampSteps(0))
	assert.Equal(t, 1, inference.ClampSteps(-4))
	assert.Equal(t, 4, inference.ClampSteps(4))
	assert.Equal(t, 8, inference.ClampSteps(50))
}

func TestLastUserPrompt(t *testing.T) {
	msgs := []inference.Message{
		{Role: "user", Content: "first"},
		{Role: "ai", Content: "reply"},
		{Role: "user", Content: "second"},
		{Role: "ai", Content: "reply 2"},
	}
	assert.Equal(t, "second", inference.LastUserPrompt(msgs))
	assert.Equal(t, "", inference.LastUserPrompt(nil))
}

func TestCheckImage(t *testing.T) {
	img, err := inference.CheckImage(inference.Output{Image: fakePNG})
	require.NoError(t, err)
	assert.Equal(t, fakePNG, img)

	_, err = inference.CheckImage(inference.Output{})
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)

	_, err = inference.CheckImage(inference.Output{Image: []byte("GIF89a")})
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)
}

func TestEnhanceImagePrompt(t *testing.T) {
	out, err := inference.EnhanceImagePrompt("a red fox")
	require.NoError(t, err)
	assert.Equal(t,
		"Create a highly detailed, photorealistic image of a red fox. Focus on intricate textures, accurate lighting, and lifelike details. The image should be of the highest possible quality, suitable for professional use.",
		out,
	)
}

func TestWithSystemPrompt(t *testing.T) {
	msgs := []inference.Message{{Role: "user", Content: "hi"}}

	out, err := inference.WithSystemPrompt("", "ChatGPT", msgs)
	require.NoError(t, err)
	assert.Equal(t, msgs, out)

	out, err = inference.WithSystemPrompt("You are {{.tool}}.", "Copilot", msgs)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, inference.Message{Role: inference.RoleSystem, Content: "You are Copilot."}, out[0])
}

type stubBinding struct{ name string }

func (s *stubBinding) Run(ctx context.Context, model string, inputs inference.Inputs) (inference.Result, error) {
	return inference.Result{Output: inference.Output{Text: s.name}}, nil
}

func TestRouter(t *testing.T) {
	router := inference.NewRouter(inference.ProviderWorkersAI)
	router.Register(inference.ProviderWorkersAI, &stubBinding{name: "workers"})
	router.Register(inference.ProviderOpenAI, &stubBinding{name: "openai"})

	b, err := router.Binding("")
	require.NoError(t, err)
	assert.Equal(t, "workers", b.(*stubBinding).name)

	b, err = router.Binding("OpenAI")
	require.NoError(t, err)
	assert.Equal(t, "openai", b.(*stubBinding).name)

	_, err = router.Binding("bedrock")
	assert.ErrorIs(t, err, inference.ErrUnknownProvider)

	assert.Equal(t, []string{"openai", "workersai"}, router.Providers())
}

type fakeModel struct {
	received []llms.MessageContent
	response *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.received = messages
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainBinding(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "llama says hi"}}}}

	var requestedModel string
	binding := inference.NewLangChain(func(name string) (llms.Model, error) {
		requestedModel = name
		return model, nil
	})

	res, err := binding.Run(context.Background(), "llama3", inference.Inputs{
		Messages: []inference.Message{{Role: "system", Content: "be nice"}, {Role: "user", Content: "hi"}, {Role: "ai", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "llama says hi", res.Output.Text)
	assert.Equal(t, "llama3", requestedModel)

	require.Len(t, model.received, 3)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.received[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.received[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, model.received[2].Role)

	_, err = binding.Run(context.Background(), "llama3", inference.Inputs{Kind: inference.KindImage, Prompt: "cat"})
	assert.ErrorIs(t, err, inference.ErrUnsupportedKind)
}

func TestLangChainEmptyResponse(t *testing.T) {
	binding := inference.NewLangChain(func(string) (llms.Model, error) {
		return &fakeModel{response: &llms.ContentResponse{}}, nil
	})
	_, err := binding.Run(context.Background(), "llama3", inference.Inputs{Messages: []inference.Message{{Role: "user", Content: "hi"}}})
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)

	binding = inference.NewLangChain(func(string) (llms.Model, error) {
		return &fakeModel{err: errors.New("connection refused")}, nil
	})
	_, err = binding.Run(context.Background(), "llama3", inference.Inputs{Messages: []inference.Message{{Role: "user", Content: "hi"}}})
	assert.ErrorContains(t, err, "connection refused")
}

func TestOpenAIBinding(t *testing.T) {
	var chatBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&chatBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"from openai"}}]}`))
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(fakePNG)}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	binding := inference.NewOpenAI("test-key", server.URL+"/v1")

	res, err := binding.Run(context.Background(), "gpt-4o", inference.Inputs{
		Messages: []inference.Message{{Role: "user", Content: "hi"}, {Role: "ai", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "from openai", res.Output.Text)
	assert.Equal(t, "chatcmpl-1", res.RequestID)
	assert.Equal(t, "gpt-4o", chatBody["model"])

	res, err = binding.Run(context.Background(), "dall-e-3", inference.Inputs{Kind: inference.KindImage, Prompt: "a cat"})
	require.NoError(t, err)
	assert.Equal(t, fakePNG, res.Output.Image)
}

func TestAnthropicBinding(t *testing.T) {
	var body struct {
		Model     string `json:"model"`
		MaxTokens int64  `json:"max_tokens"`
		System    []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	reply := `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test","content":[{"type":"text","text":"from "},{"type":"text","text":"claude"}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	binding := inference.NewAnthropic("test-key", server.URL, 0)

	res, err := binding.Run(context.Background(), "claude-test", inference.Inputs{
		Messages: []inference.Message{
			{Role: "system", Content: "be brief"},
			{Role: "system", Content: "be kind"},
			{Role: "user", Content: "hi"},
			{Role: "ai", Content: "hello"},
			{Role: "user", Content: "again"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from claude", res.Output.Text)
	assert.Equal(t, "msg_1", res.RequestID)

	assert.Equal(t, "claude-test", body.Model)
	assert.EqualValues(t, inference.DefaultAnthropicMaxTokens, body.MaxTokens)
	require.Len(t, body.System, 1)
	assert.Equal(t, "be brief\n\nbe kind", body.System[0].Text)
	require.Len(t, body.Messages, 3)
	assert.Equal(t, "user", body.Messages[0].Role)
	assert.Equal(t, "assistant", body.Messages[1].Role)
	assert.Equal(t, "user", body.Messages[2].Role)

	reply = `{"id":"msg_2","type":"message","role":"assistant","model":"claude-test","content":[],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":0}}`
	_, err = binding.Run(context.Background(), "claude-test", inference.Inputs{
		Messages: []inference.Message{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, inference.ErrUnexpectedOutput)

	_, err = binding.Run(context.Background(), "claude-test", inference.Inputs{Kind: inference.KindImage, Prompt: "a cat"})
	assert.ErrorIs(t, err, inference.ErrUnsupportedKind)
}
