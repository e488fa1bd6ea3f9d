package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"aitools-backend/internal/database"
	"aitools-backend/internal/inference"
	"aitools-backend/internal/tools"
	"aitools-backend/pkg/api"
)

const (
	msgProcessFailed     = "Failed to process request"
	msgTextFailed        = "Failed to generate text"
	msgImageFailed       = "Failed to generate image"
	msgUnexpectedOutput  = "Unexpected response format from AI model"
	msgHistorySaveFailed = "Failed to save history"
)

// Generate dispatches a conversation to the tool named in the request. Every
// failure, including a malformed body, is reported as a 500.
func (s *AIService) Generate(r *http.Request) (any, error) {
	req, err := ParseRequest[api.GenerateRequest](r)
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, msgProcessFailed, err)
	}

	if len(req.Messages) == 0 {
		return nil, DetailedError(http.StatusInternalServerError, msgProcessFailed, errors.New("messages must not be empty"))
	}

	tool := s.catalog.Lookup(req.ToolName)
	toolName := req.ToolName
	if toolName == "" {
		toolName = tool.Name
	}

	messages := convertMessages(req.Messages)
	prompt := inference.LastUserPrompt(messages)
	if prompt == "" {
		prompt = messages[len(messages)-1].Content
	}

	slog.Info("received generation request", "tool", toolName, "resolved_tool", tool.Name, "messages", len(req.Messages), "has_user", req.UserID != "")

	if tool.IsImage() {
		img, err := s.generateImage(r.Context(), tool, prompt, 0)
		if err != nil {
			return nil, err
		}

		if err := s.recordImage(r.Context(), req.UserID, toolName, prompt, img); err != nil {
			return nil, err
		}

		encoded := base64.StdEncoding.EncodeToString(img)
		return api.GenerateResponse{Response: encoded, Image: encoded}, nil
	}

	text, err := s.generateText(r.Context(), tool, messages)
	if err != nil {
		return nil, err
	}

	if req.UserID != "" {
		if _, err := s.recordHistory(r.Context(), req.UserID, toolName, prompt, database.ResponseText, text); err != nil {
			return nil, DetailedError(http.StatusInternalServerError, msgHistorySaveFailed, err)
		}
	}

	return api.GenerateResponse{Response: text}, nil
}

func (s *AIService) generateText(ctx context.Context, tool tools.Tool, messages []inference.Message) (string, error) {
	binding, err := s.bindings.Binding(tool.Provider)
	if err != nil {
		return "", DetailedError(http.StatusInternalServerError, msgTextFailed, err)
	}

	messages, err = inference.WithSystemPrompt(tool.SystemPrompt, tool.Name, messages)
	if err != nil {
		return "", DetailedError(http.StatusInternalServerError, msgTextFailed, err)
	}

	res, err := binding.Run(ctx, tool.Model, inference.Inputs{Kind: inference.KindText, Messages: messages})
	if err != nil {
		return "", generationError(msgTextFailed, err)
	}

	slog.Info("generated text", "tool", tool.Name, "model", tool.Model, "request_id", res.RequestID, "logs", res.Logs)

	return res.Output.Text, nil
}

func (s *AIService) generateImage(ctx context.Context, tool tools.Tool, prompt string, steps int) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, DetailedError(http.StatusInternalServerError, msgImageFailed, errors.New("prompt must not be empty"))
	}

	binding, err := s.bindings.Binding(tool.Provider)
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, msgImageFailed, err)
	}

	enhanced, err := inference.EnhanceImagePrompt(prompt)
	if err != nil {
		return nil, DetailedError(http.StatusInternalServerError, msgImageFailed, err)
	}

	res, err := binding.Run(ctx, tool.Model, inference.Inputs{
		Kind:     inference.KindImage,
		Prompt:   enhanced,
		NumSteps: inference.ClampSteps(steps),
	})
	if err != nil {
		return nil, generationError(msgImageFailed, err)
	}

	img, err := inference.CheckImage(res.Output)
	if err != nil {
		return nil, generationError(msgImageFailed, err)
	}

	slog.Info("generated image", "tool", tool.Name, "model", tool.Model, "request_id", res.RequestID, "bytes", len(img))

	return img, nil
}

// recordImage saves an image result for userID, if given, and mirrors the png
// into the archive. Archive failures are logged, never returned.
func (s *AIService) recordImage(ctx context.Context, userID, toolName, prompt string, img []byte) error {
	if userID == "" {
		return nil
	}

	h, err := s.recordHistory(ctx, userID, toolName, prompt, database.ResponseImage, base64.StdEncoding.EncodeToString(img))
	if err != nil {
		return DetailedError(http.StatusInternalServerError, msgHistorySaveFailed, err)
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, userID, h.ID, img); err != nil {
			slog.Warn("error archiving generated image", "history_id", h.ID, "error", err)
		}
	}

	return nil
}

func generationError(message string, err error) error {
	if errors.Is(err, inference.ErrUnexpectedOutput) {
		return DetailedError(http.StatusInternalServerError, msgUnexpectedOutput, err)
	}
	return DetailedError(http.StatusInternalServerError, message, err)
}

func (s *AIService) parseImageRequest(r *http.Request) (api.ImageRequest, tools.Tool, error) {
	req, err := ParseRequest[api.ImageRequest](r)
	if err != nil {
		return req, tools.Tool{}, DetailedError(http.StatusInternalServerError, msgImageFailed, err)
	}

	tool, ok := s.catalog.ImageTool(req.ToolName)
	if !ok {
		return req, tools.Tool{}, DetailedError(http.StatusInternalServerError, msgImageFailed, fmt.Errorf("no image tool configured"))
	}

	return req, tool, nil
}

// GenerateImage answers with the raw png unless the caller asks for JSON via
// ?format=json or an Accept header.
func (s *AIService) GenerateImage(w http.ResponseWriter, r *http.Request) {
	req, tool, err := s.parseImageRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	img, err := s.generateImage(r.Context(), tool, req.Prompt, req.NumSteps)
	if err != nil {
		WriteError(w, err)
		return
	}

	toolName := req.ToolName
	if toolName == "" {
		toolName = tool.Name
	}
	if err := s.recordImage(r.Context(), req.UserID, toolName, req.Prompt, img); err != nil {
		WriteError(w, err)
		return
	}

	if wantsJSON(r) {
		WriteJsonResponse(w, api.ImageResponse{Image: base64.StdEncoding.EncodeToString(img)})
		return
	}

	writePNG(w, img)
}

func wantsJSON(r *http.Request) bool {
	params, err := ParseRequestQueryParams[api.ImageFormatParams](r)
	if err == nil && strings.EqualFold(params.Format, "json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		slog.Error("error writing image response", "error", err)
	}
}
