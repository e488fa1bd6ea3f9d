package api

import "time"

type HistoryItem struct {
	ID           uint      `json:"id"`
	UserID       string    `json:"user_id"`
	ToolName     string    `json:"tool_name"`
	Prompt       string    `json:"prompt"`
	ResponseType string    `json:"response_type"`
	Response     string    `json:"response"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryParams struct {
	UserID string `schema:"userId"`
	Limit  int    `schema:"limit"`
}

type HistoryResponse struct {
	Results []HistoryItem `json:"results"`
}

type DeleteHistoryRequest struct {
	UserID string `json:"userId"`
}

type DeleteHistoryResponse struct {
	Success bool `json:"success"`
}

type Tool struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model"`
}

type ToolsParams struct {
	Category string `schema:"category"`
	Search   string `schema:"search"`
}

type ToolsResponse struct {
	Tools []Tool `json:"tools"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
