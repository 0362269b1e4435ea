package mock

import (
	"context"
	"strings"

	"github.com/archlens/archlens/providers/contracts"
	"github.com/archlens/archlens/providers/models"
)

// Canned responses keyed by the analysis the prompt asks for. Each body is
// valid against the corresponding agent schema, so the mock can terminate the
// fallback chain with a usable, deterministic answer.
const (
	structuralResponse = `{
  "purpose": "General-purpose module, offline analysis placeholder",
  "c4_level": "component",
  "architectural_layer": "business",
  "interfaces_provided": [],
  "interfaces_consumed": [],
  "data_entities": [],
  "business_rules": [],
  "technical_concerns": [],
  "confidence": 0.4
}`

	relationshipResponse = `{
  "edges": [],
  "architectural_patterns": [],
  "confidence": 0.4
}`

	responsibilityResponse = `{
  "business_capabilities": [],
  "technical_capabilities": [],
  "quality_attributes": [],
  "stakeholders": [],
  "data_owned": [],
  "confidence": 0.4
}`
)

type mockClient struct{}

// NewMockClient returns the deterministic offline backend used as the last
// element of the fallback chain and in tests.
func NewMockClient() contracts.IGenerativeClient {
	return &mockClient{}
}

func (c *mockClient) Name() string {
	return "mock"
}

// IsAvailable always succeeds; the mock never needs external resources.
func (c *mockClient) IsAvailable(ctx context.Context) bool {
	return true
}

func (c *mockClient) Generate(ctx context.Context, request models.GenerateRequest) (*models.GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ErrTimeout
	}

	prompt := strings.ToLower(request.Prompt + " " + request.SystemPrompt)

	content := structuralResponse
	switch {
	case strings.Contains(prompt, "relationship") || strings.Contains(prompt, "depend"):
		content = relationshipResponse
	case strings.Contains(prompt, "responsibilit") || strings.Contains(prompt, "capabilit"):
		content = responsibilityResponse
	}

	return &models.GenerateResponse{
		Content:          content,
		Model:            "local-mock",
		PromptTokens:     len(strings.Fields(request.Prompt)),
		CompletionTokens: len(strings.Fields(content)),
	}, nil
}
