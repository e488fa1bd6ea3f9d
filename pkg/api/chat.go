package api

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	ToolName string    `json:"toolName"`
	Messages []Message `json:"messages"`
	UserID   string    `json:"userId,omitempty"`
}

type GenerateResponse struct {
	Response string `json:"response"`
	// Set for image tools, holds the same base64 png as Response.
	Image string `json:"image,omitempty"`
}

type ImageRequest struct {
	Prompt string `json:"prompt"`
	// Optional, defaults to the first image tool in the catalog.
	ToolName string `json:"toolName,omitempty"`
	UserID   string `json:"userId,omitempty"`
	NumSteps int    `json:"num_steps,omitempty"`
}

type ImageResponse struct {
	Image string `json:"image"`
}

type ImageFormatParams struct {
	Format string `schema:"format"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
