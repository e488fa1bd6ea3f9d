package api

import (
	"aitools-backend/internal/database"
	"aitools-backend/internal/inference"
	"aitools-backend/internal/tools"
	"aitools-backend/pkg/api"
)

func convertHistory(h database.History) api.HistoryItem {
	return api.HistoryItem{
		ID:           h.ID,
		UserID:       h.UserID,
		ToolName:     h.ToolName,
		Prompt:       h.Prompt,
		ResponseType: h.ResponseType,
		Response:     h.Response,
		CreatedAt:    h.CreatedAt,
	}
}

func convertHistories(hs []database.History) []api.HistoryItem {
	items := make([]api.HistoryItem, 0, len(hs))
	for _, h := range hs {
		items = append(items, convertHistory(h))
	}
	return items
}

func convertTool(t tools.Tool) api.Tool {
	return api.Tool{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Description: t.Description,
		Kind:        string(t.Kind),
		Provider:    t.Provider,
		Model:       t.Model,
	}
}

func convertTools(ts []tools.Tool) []api.Tool {
	out := make([]api.Tool, 0, len(ts))
	for _, t := range ts {
		out = append(out, convertTool(t))
	}
	return out
}

func convertMessages(ms []api.Message) []inference.Message {
	out := make([]inference.Message, 0, len(ms))
	for _, m := range ms {
		out = append(out, inference.Message{Role: inference.NormalizeRole(m.Role), Content: m.Content})
	}
	return out
}
