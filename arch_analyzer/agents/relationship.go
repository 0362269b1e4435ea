package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/archlens/archlens/arch_analyzer/contracts"
	"github.com/archlens/archlens/arch_analyzer/models"
	contracts_provider "github.com/archlens/archlens/providers/contracts"
	provider_models "github.com/archlens/archlens/providers/models"
)

const relationshipSystemPrompt = `You are an expert software architect analyzing code relationships for C4 diagrams.
Identify every relationship this component has with other components of the
system and with external services or libraries. Allowed relationship kinds:
uses, depends_on, implements, extends, contains, calls, imports.
Targets outside the provided component set must be prefixed with "external:".

Respond with a JSON object matching this schema:
{
  "edges": [
    {
      "target": "string",
      "kind": "string",
      "evidence": ["string"],
      "confidence": 0.0
    }
  ],
  "architectural_patterns": ["string"],
  "confidence": 0.0
}`

type relationshipEdgeResponse struct {
	Target     string   `json:"target"`
	Kind       string   `json:"kind"`
	Evidence   []string `json:"evidence"`
	Confidence float64  `json:"confidence"`
}

type relationshipResponse struct {
	Edges                 []relationshipEdgeResponse `json:"edges"`
	ArchitecturalPatterns []string                   `json:"architectural_patterns"`
	Confidence            float64                    `json:"confidence"`
}

// RelationshipAgent runs the relationship-extraction pass. It only emits edges
// whose target resolves to a known component or an explicit external placeholder;
// anything else is dropped, not an error.
type RelationshipAgent struct {
	client      contracts_provider.IGenerativeClient
	model       string
	temperature float32
}

// NewRelationshipAgent builds the relationship-extraction pass on the given backend.
func NewRelationshipAgent(client contracts_provider.IGenerativeClient, model string, temperature float32) contracts.IAnalysisAgent {
	return &RelationshipAgent{client: client, model: model, temperature: temperature}
}

func (a *RelationshipAgent) Kind() models.AnalysisKind {
	return models.KindRelationships
}

func (a *RelationshipAgent) Analyze(ctx context.Context, component *models.Component, related []*models.Component, components map[string]*models.Component) *models.AnalysisResult {
	known := knownComponentNames(components)

	prompt := fmt.Sprintf(`Analyze relationships for component '%s' in this %s code:

%s%s

Known components in this system: %s

Focus on import statements, function and method calls, API endpoints consumed
or provided, and configuration dependencies. Provide specific code evidence
for each relationship.`,
		component.Name, component.Language, excerptForPrompt(component),
		relatedContext(related), strings.Join(known, ", "))

	response, err := a.client.Generate(ctx, provider_models.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: relationshipSystemPrompt,
		MaxTokens:    2048,
		Temperature:  a.temperature,
		Model:        a.model,
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("relationship analysis failed, using fallback")
		return models.NewFallbackResult(component.ID, models.KindRelationships)
	}

	var parsed relationshipResponse
	if err := decodeResponse(response.Content, &parsed); err != nil {
		logrus.WithFields(logrus.Fields{"component": component.ID, "error": err}).
			Warn("relationship response failed schema validation, using fallback")
		return models.NewFallbackResult(component.ID, models.KindRelationships)
	}

	index := componentIndex(components)
	index[strings.ToLower(component.ID)] = component.ID
	index[strings.ToLower(component.Name)] = component.ID
	passConfidence := clampConfidence(parsed.Confidence)

	edges := make([]models.RelationshipEdge, 0, len(parsed.Edges))
	for _, raw := range parsed.Edges {
		kind := models.RelationKind(raw.Kind)
		if !models.ValidRelationKind(kind) {
			continue
		}

		targetID, ok := resolveTarget(raw.Target, index)
		if !ok {
			// Unresolved target: dropped silently.
			continue
		}
		if targetID == component.ID {
			continue
		}

		confidence := raw.Confidence
		if confidence <= 0 {
			confidence = passConfidence
		}

		edges = append(edges, models.RelationshipEdge{
			SourceID:   component.ID,
			TargetID:   targetID,
			Kind:       kind,
			Evidence:   raw.Evidence,
			Origin:     models.OriginAgent,
			Confidence: confidence,
		})
	}

	return &models.AnalysisResult{
		ComponentID: component.ID,
		Kind:        models.KindRelationships,
		Payload: &models.RelationshipPayload{
			Edges:                 edges,
			ArchitecturalPatterns: parsed.ArchitecturalPatterns,
		},
		Confidence: passConfidence,
		Origin:     models.OriginAgent,
		Timestamp:  time.Now(),
	}
}

// resolveTarget maps a reported target to a known component ID, or keeps it
// as-is when explicitly tagged external.
func resolveTarget(target string, index map[string]string) (string, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	if strings.HasPrefix(strings.ToLower(target), models.ExternalTargetPrefix) {
		name := strings.TrimSpace(target[len(models.ExternalTargetPrefix):])
		if name == "" {
			return "", false
		}
		return models.ExternalTargetPrefix + name, true
	}
	if id, ok := index[strings.ToLower(target)]; ok {
		return id, true
	}
	return "", false
}
