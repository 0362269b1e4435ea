package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/providers/models"
)

func TestOpenAIClient_AvailabilityFollowsApiKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	withoutKey := NewOpenAIClient(&OpenAIConfig{Model: "gpt-4o"})
	assert.False(t, withoutKey.IsAvailable(context.Background()))

	withKey := NewOpenAIClient(&OpenAIConfig{Model: "gpt-4o", ApiKey: "sk-test"})
	assert.True(t, withKey.IsAvailable(context.Background()))
}

func TestOpenAIClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": req.Model,
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `{"edges": []}`}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(&OpenAIConfig{BaseURL: server.URL, Model: "gpt-4o", ApiKey: "sk-test"})
	response, err := client.Generate(context.Background(), models.GenerateRequest{
		Prompt:       "analyze",
		SystemPrompt: "architect",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"edges": []}`, response.Content)
	assert.Equal(t, 10, response.PromptTokens)
}

func TestOpenAIClient_EmptyChoicesIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := NewOpenAIClient(&OpenAIConfig{BaseURL: server.URL, Model: "gpt-4o", ApiKey: "sk-test"})
	_, err := client.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestOpenAIClient_NoKeyGenerateIsUnavailable(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client := NewOpenAIClient(&OpenAIConfig{Model: "gpt-4o"})
	_, err := client.Generate(context.Background(), models.GenerateRequest{Prompt: "p"})
	assert.ErrorIs(t, err, models.ErrUnavailable)
}
