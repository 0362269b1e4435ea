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

const responsibilitySystemPrompt = `You are an expert business analyst and software architect.
Classify the responsibilities of the provided component from both business and
technical perspectives: business capabilities enabled, technical capabilities
implemented, quality attributes addressed, stakeholders served and data
entities owned.

Respond with a JSON object matching this schema:
{
  "business_capabilities": ["string"],
  "technical_capabilities": ["string"],
  "quality_attributes": ["string"],
  "stakeholders": ["string"],
  "data_owned": ["string"],
  "confidence": 0.0
}`

type responsibilityResponse struct {
	BusinessCapabilities  []string `json:"business_capabilities"`
	TechnicalCapabilities []string `json:"technical_capabilities"`
	QualityAttributes     []string `json:"quality_attributes"`
	Stakeholders          []string `json:"stakeholders"`
	DataOwned             []string `json:"data_owned"`
	Confidence            float64  `json:"confidence"`
}

// ResponsibilityAgent runs the responsibility-classification pass.
type ResponsibilityAgent struct {
	client      contracts_provider.IGenerativeClient
	model       string
	temperature float32
}

// NewResponsibilityAgent builds the responsibility-classification pass on the given backend.
func NewResponsibilityAgent(client contracts_provider.IGenerativeClient, model string, temperature float32) contracts.IAnalysisAgent {
	return &ResponsibilityAgent{client: client, model: model, temperature: temperature}
}

func (a *ResponsibilityAgent) Kind() models.AnalysisKind {
	return models.KindResponsibilities
}

func (a *ResponsibilityAgent) Analyze(ctx context.Context, component *models.Component, related []*models.Component, _ map[string]*models.Component) *models.AnalysisResult {
	prompt := fmt.Sprintf(`Classify the responsibilities of component '%s' in this %s code:

%s

Consider which business capabilities it enables, which business rules it
implements, which data it owns, who its stakeholders are, and which technical
capabilities and quality attributes it addresses.`,
		component.Name, component.Language, excerptForPrompt(component))

	response, err := a.client.Generate(ctx, provider_models.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: responsibilitySystemPrompt,
		MaxTokens:    1536,
		Temperature:  a.temperature,
		Model:        a.model,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("responsibility analysis failed, using fallback")
		return models.NewFallbackResult(component.ID, models.KindResponsibilities)
	}

	var parsed responsibilityResponse
	if err := decodeResponse(response.Content, &parsed); err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("responsibility response failed schema validation, using fallback")
		return models.NewFallbackResult(component.ID, models.KindResponsibilities)
	}

	return &models.AnalysisResult{
		ComponentID: component.ID,
		Kind:        models.KindResponsibilities,
		Payload: &models.ResponsibilityPayload{
			BusinessCapabilities:  parsed.BusinessCapabilities,
			TechnicalCapabilities: parsed.TechnicalCapabilities,
			QualityAttributes:     parsed.QualityAttributes,
			Stakeholders:          parsed.Stakeholders,
			DataOwned:             parsed.DataOwned,
		},
		Confidence: clampConfidence(parsed.Confidence),
		Origin:     models.OriginAgent,
		Timestamp:  time.Now(),
	}
}
