package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/archlens/archlens/providers/contracts"
	"github.com/archlens/archlens/providers/models"
	contracts2 "github.com/archlens/archlens/token_management/contracts"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures the hosted API fallback backend.
type OpenAIConfig struct {
	BaseURL    string
	Model      string
	ApiKey     string
	TokenUsage contracts2.ITokenUsage
}

type openAIClient struct {
	baseURL    string
	model      string
	apiKey     string
	tokenUsage contracts2.ITokenUsage
	httpClient *http.Client
}

// NewOpenAIClient initializes the hosted chat-completions backend. The API key
// falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIClient(config *OpenAIConfig) contracts.IGenerativeClient {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiKey := config.ApiKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return &openAIClient{
		baseURL:    baseURL,
		model:      config.Model,
		apiKey:     apiKey,
		tokenUsage: config.TokenUsage,
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *openAIClient) Name() string {
	return "openai"
}

// IsAvailable only verifies that an API key is configured; the actual request
// is the availability probe.
func (c *openAIClient) IsAvailable(ctx context.Context) bool {
	return c.apiKey != ""
}

func (c *openAIClient) Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", models.ErrUnavailable)
	}

	model := request.Model
	if model == "" {
		model = c.model
	}

	var messages []chatMessage
	if request.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: request.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: request.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", models.ErrMalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
		return nil, fmt.Errorf("%w: status %d", models.ErrUnavailable, resp.StatusCode)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedResponse, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", models.ErrMalformedResponse)
	}

	if c.tokenUsage != nil && result.Usage.PromptTokens > 0 {
		c.tokenUsage.UsedTokens(result.Usage.PromptTokens, result.Usage.CompletionTokens)
	}

	return &models.GenerateResponse{
		Content:          strings.TrimSpace(result.Choices[0].Message.Content),
		Model:            result.Model,
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
	}, nil
}
