package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/archlens/archlens/arch_analyzer/contracts"
	"github.com/archlens/archlens/arch_analyzer/models"
	contracts_provider "github.com/archlens/archlens/providers/contracts"
	provider_models "github.com/archlens/archlens/providers/models"
)

const structuralSystemPrompt = `You are an expert software architect analyzing code for C4 architecture diagrams.
Analyze the provided component and identify its purpose, C4 classification,
architectural layer, interfaces provided and consumed, data entities handled,
business rules implemented and technical concerns addressed.

Respond with a JSON object matching this schema:
{
  "purpose": "string",
  "c4_level": "person|software_system|container|component",
  "architectural_layer": "presentation|business|data|infrastructure",
  "interfaces_provided": ["string"],
  "interfaces_consumed": ["string"],
  "data_entities": ["string"],
  "business_rules": ["string"],
  "technical_concerns": ["string"],
  "confidence": 0.0
}`

type structuralResponse struct {
	Purpose            string   `json:"purpose"`
	C4Level            string   `json:"c4_level"`
	ArchitecturalLayer string   `json:"architectural_layer"`
	InterfacesProvided []string `json:"interfaces_provided"`
	InterfacesConsumed []string `json:"interfaces_consumed"`
	DataEntities       []string `json:"data_entities"`
	BusinessRules      []string `json:"business_rules"`
	TechnicalConcerns  []string `json:"technical_concerns"`
	Confidence         float64  `json:"confidence"`
}

// StructuralAgent runs the structural-understanding pass.
type StructuralAgent struct {
	client      contracts_provider.IGenerativeClient
	model       string
	temperature float32
}

// NewStructuralAgent builds the structural-understanding pass on the given backend.
func NewStructuralAgent(client contracts_provider.IGenerativeClient, model string, temperature float32) contracts.IAnalysisAgent {
	return &StructuralAgent{client: client, model: model, temperature: temperature}
}

func (a *StructuralAgent) Kind() models.AnalysisKind {
	return models.KindStructural
}

func (a *StructuralAgent) Analyze(ctx context.Context, component *models.Component, related []*models.Component, _ map[string]*models.Component) *models.AnalysisResult {
	prompt := fmt.Sprintf(`Analyze this %s component from %s:

%s%s

Focus on architectural significance: what role does this code play in the
overall system, what does it expose, what does it consume, and what data does
it handle?`,
		component.Language, component.Path, excerptForPrompt(component), relatedContext(related))

	response, err := a.client.Generate(ctx, provider_models.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: structuralSystemPrompt,
		MaxTokens:    1536,
		Temperature:  a.temperature,
		Model:        a.model,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("structural analysis failed, using fallback")
		return models.NewFallbackResult(component.ID, models.KindStructural)
	}

	var parsed structuralResponse
	if err := decodeResponse(response.Content, &parsed); err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("structural response failed schema validation, using fallback")
		return models.NewFallbackResult(component.ID, models.KindStructural)
	}
	if parsed.Purpose == "" {
		logrus.WithField("component", component.ID).
			Warn("structural response missing purpose, using fallback")
		return models.NewFallbackResult(component.ID, models.KindStructural)
	}

	c4Level := parsed.C4Level
	if c4Level == "" {
		c4Level = "component"
	}

	return &models.AnalysisResult{
		ComponentID: component.ID,
		Kind:        models.KindStructural,
		Payload: &models.StructuralPayload{
			Purpose:            parsed.Purpose,
			C4Level:            c4Level,
			ArchitecturalLayer: parsed.ArchitecturalLayer,
			InterfacesProvided: parsed.InterfacesProvided,
			InterfacesConsumed: parsed.InterfacesConsumed,
			DataEntities:       parsed.DataEntities,
			BusinessRules:      parsed.BusinessRules,
			TechnicalConcerns:  parsed.TechnicalConcerns,
		},
		Confidence: clampConfidence(parsed.Confidence),
		Origin:     models.OriginAgent,
		Timestamp:  time.Now(),
	}
}
