package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/archlens/archlens/providers/contracts"
	"github.com/archlens/archlens/providers/models"
	contracts2 "github.com/archlens/archlens/token_management/contracts"
)

const defaultBaseURL = "http://localhost:11434"

// OllamaConfig configures the locally hosted Ollama backend.
type OllamaConfig struct {
	BaseURL    string
	Model      string
	TokenUsage contracts2.ITokenUsage
}

type ollamaClient struct {
	baseURL    string
	model      string
	tokenUsage contracts2.ITokenUsage
	httpClient *http.Client
}

// NewOllamaClient initializes a client for a locally hosted model served by
// Ollama. The per-attempt timeout is enforced through the request context.
func NewOllamaClient(config *OllamaConfig) contracts.IGenerativeClient {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ollamaClient{
		baseURL:    baseURL,
		model:      config.Model,
		tokenUsage: config.TokenUsage,
		httpClient: &http.Client{},
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float32 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *ollamaClient) Name() string {
	return "ollama"
}

// IsAvailable checks that the Ollama server answers and that the configured
// model is installed.
func (c *ollamaClient) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	for _, m := range tags.Models {
		if strings.Contains(m.Name, c.model) {
			return true
		}
	}
	return false
}

func (c *ollamaClient) Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error) {
	model := request.Model
	if model == "" {
		model = c.model
	}

	fullPrompt := request.Prompt
	if request.SystemPrompt != "" {
		fullPrompt = fmt.Sprintf("System: %s\n\nUser: %s", request.SystemPrompt, request.Prompt)
	}

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: fullPrompt,
		Stream: false,
		Options: generateOptions{
			Temperature: request.Temperature,
			NumPredict:  request.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", models.ErrMalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", models.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}

	if c.tokenUsage != nil && result.PromptEvalCount > 0 {
		c.tokenUsage.UsedTokens(result.PromptEvalCount, result.EvalCount)
	}

	return &models.GenerateResponse{
		Content:          strings.TrimSpace(result.Response),
		Model:            result.Model,
		PromptTokens:     result.PromptEvalCount,
		CompletionTokens: result.EvalCount,
	}, nil
}
