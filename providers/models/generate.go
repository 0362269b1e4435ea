package models

// GenerateRequest is the uniform request shape sent to any text-generation
// backend. Temperature is kept low so repeated analysis of unchanged content
// stays deterministic enough for caching to be meaningful.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	Model        string
}

// GenerateResponse is the uniform response shape returned by a backend.
type GenerateResponse struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
