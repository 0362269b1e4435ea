package arch_analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/arch_analyzer/models"
)

func TestReconciler_HigherConfidenceWins(t *testing.T) {
	reconciler := NewReconciler()

	// Static and agent both report A imports B; static has 0.9 vs agent 0.7
	edges := []models.RelationshipEdge{
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginStatic, Confidence: 0.9, Evidence: []string{"import of b in a.go"}},
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginAgent, Confidence: 0.7, Evidence: []string{"a references b's API"}},
	}

	merged := reconciler.Reconcile(edges)
	require.Len(t, merged, 1)
	assert.Equal(t, 0.9, merged[0].Confidence)
	assert.Equal(t, models.OriginStatic, merged[0].Origin)
	// Evidence from both origins is preserved
	assert.ElementsMatch(t, []string{"import of b in a.go", "a references b's API"}, merged[0].Evidence)
}

func TestReconciler_WinnerEvidenceLeads(t *testing.T) {
	reconciler := NewReconciler()

	// The winning edge arrives second; its evidence must still come first,
	// with the losing edge's appended after it.
	edges := []models.RelationshipEdge{
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginAgent, Confidence: 0.7, Evidence: []string{"a references b's API"}},
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginStatic, Confidence: 0.9, Evidence: []string{"import of b in a.go"}},
	}

	merged := reconciler.Reconcile(edges)
	require.Len(t, merged, 1)
	assert.Equal(t, models.OriginStatic, merged[0].Origin)
	assert.Equal(t, []string{"import of b in a.go", "a references b's API"}, merged[0].Evidence)
}

func TestReconciler_StaticWinsConfidenceTie(t *testing.T) {
	reconciler := NewReconciler()

	edges := []models.RelationshipEdge{
		{SourceID: "a", TargetID: "b", Kind: models.RelationCalls, Origin: models.OriginAgent, Confidence: 0.9},
		{SourceID: "a", TargetID: "b", Kind: models.RelationCalls, Origin: models.OriginStatic, Confidence: 0.9},
	}

	merged := reconciler.Reconcile(edges)
	require.Len(t, merged, 1)
	assert.Equal(t, models.OriginStatic, merged[0].Origin)
}

func TestReconciler_DistinctKindsNeverMerge(t *testing.T) {
	reconciler := NewReconciler()

	edges := []models.RelationshipEdge{
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginStatic, Confidence: 0.9},
		{SourceID: "a", TargetID: "b", Kind: models.RelationCalls, Origin: models.OriginStatic, Confidence: 0.9},
		{SourceID: "a", TargetID: "b", Kind: models.RelationUses, Origin: models.OriginAgent, Confidence: 0.6},
	}

	merged := reconciler.Reconcile(edges)
	assert.Len(t, merged, 3)
}

func TestReconciler_AgentBeatsLowConfidenceStatic(t *testing.T) {
	reconciler := NewReconciler()

	edges := []models.RelationshipEdge{
		{SourceID: "svc", TargetID: "db", Kind: models.RelationUses, Origin: models.OriginStatic, Confidence: 0.5},
		{SourceID: "svc", TargetID: "db", Kind: models.RelationUses, Origin: models.OriginAgent, Confidence: 0.8},
	}

	merged := reconciler.Reconcile(edges)
	require.Len(t, merged, 1)
	assert.Equal(t, 0.8, merged[0].Confidence)
	assert.Equal(t, models.OriginAgent, merged[0].Origin)
}

func TestReconciler_DeterministicOrder(t *testing.T) {
	reconciler := NewReconciler()

	edges := []models.RelationshipEdge{
		{SourceID: "c", TargetID: "a", Kind: models.RelationCalls, Origin: models.OriginStatic, Confidence: 0.9},
		{SourceID: "a", TargetID: "c", Kind: models.RelationImports, Origin: models.OriginStatic, Confidence: 0.9},
		{SourceID: "a", TargetID: "b", Kind: models.RelationImports, Origin: models.OriginStatic, Confidence: 0.9},
	}

	merged := reconciler.Reconcile(edges)
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].SourceID)
	assert.Equal(t, "b", merged[0].TargetID)
	assert.Equal(t, "a", merged[1].SourceID)
	assert.Equal(t, "c", merged[1].TargetID)
	assert.Equal(t, "c", merged[2].SourceID)
}

func componentWithResult(id string, confidence float64, origin models.Origin) *models.Component {
	component := &models.Component{ID: id, Name: id, Path: id + ".go"}
	component.AcceptResult(&models.AnalysisResult{
		ComponentID: id,
		Kind:        models.KindStructural,
		Payload:     &models.StructuralPayload{Purpose: "p"},
		Confidence:  confidence,
		Origin:      origin,
		Timestamp:   time.Now(),
	})
	return component
}

func TestReconciler_AssessHealthLevels(t *testing.T) {
	reconciler := NewReconciler()

	// All high-confidence agent results: good
	good := map[string]*models.Component{
		"a": componentWithResult("a", 0.9, models.OriginAgent),
		"b": componentWithResult("b", 0.85, models.OriginAgent),
	}
	health := reconciler.AssessHealth(good)
	assert.Equal(t, "good", health.HealthLevel)
	assert.Zero(t, health.FallbackResults)

	// All fallback results: poor
	poor := map[string]*models.Component{
		"a": componentWithResult("a", models.FallbackConfidence, models.OriginFallback),
		"b": componentWithResult("b", models.FallbackConfidence, models.OriginFallback),
	}
	health = reconciler.AssessHealth(poor)
	assert.Equal(t, "poor", health.HealthLevel)
	assert.Equal(t, 2, health.FallbackResults)

	// Mixed: fair
	mixed := map[string]*models.Component{
		"a": componentWithResult("a", 0.8, models.OriginAgent),
		"b": componentWithResult("b", models.FallbackConfidence, models.OriginFallback),
	}
	health = reconciler.AssessHealth(mixed)
	assert.Equal(t, "fair", health.HealthLevel)
}

func TestReconciler_RecommendationsMentionFindings(t *testing.T) {
	reconciler := NewReconciler()

	health := models.SystemHealth{FallbackResults: 2, AnalysisConfidence: 0.5}
	analysis := &models.AnalysisSection{
		ResponsibilityConflicts: []models.ResponsibilityConflict{
			{Kind: models.ConflictBusinessCapability, Claim: "billing", Components: []string{"a", "b"}},
		},
		HubComponents:      []string{"core"},
		LayeringViolations: []string{"data -> presentation"},
	}

	recommendations := reconciler.Recommendations(health, analysis)
	require.NotEmpty(t, recommendations)

	joined := ""
	for _, recommendation := range recommendations {
		joined += recommendation + "\n"
	}
	assert.Contains(t, joined, "fallback")
	assert.Contains(t, joined, "billing")
	assert.Contains(t, joined, "core")
	assert.Contains(t, joined, "layering")
}
