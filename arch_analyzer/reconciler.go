package arch_analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archlens/archlens/arch_analyzer/models"
)

// Health thresholds, applied to the blended health score.
const (
	healthPoorThreshold = 0.4
	healthFairThreshold = 0.7
)

// Reconciler merges statically-extracted and agent-reported relationship
// edges into a single consistent edge set and computes the system-level
// health summary.
type Reconciler struct{}

// NewReconciler returns a Reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

type edgeKey struct {
	source string
	target string
	kind   models.RelationKind
}

// Reconcile collapses duplicate edges. Edges agree when (source, target, kind)
// match; the survivor keeps the highest confidence, its own evidence first and
// the losing edge's evidence appended after it. On equal confidence the static
// edge wins, since it is backed by observed code rather than generated text.
// Edges of different kinds between the same pair are never merged. Output
// order is deterministic.
func (r *Reconciler) Reconcile(edges []models.RelationshipEdge) []models.RelationshipEdge {
	merged := make(map[edgeKey]*models.RelationshipEdge, len(edges))
	for _, edge := range edges {
		key := edgeKey{source: edge.SourceID, target: edge.TargetID, kind: edge.Kind}
		existing, ok := merged[key]
		if !ok {
			clone := edge
			clone.Evidence = appendUniqueEvidence(nil, edge.Evidence)
			merged[key] = &clone
			continue
		}

		if edge.Confidence > existing.Confidence ||
			(edge.Confidence == existing.Confidence && edge.Origin == models.OriginStatic && existing.Origin != models.OriginStatic) {
			winner := edge
			winner.Evidence = appendUniqueEvidence(appendUniqueEvidence(nil, edge.Evidence), existing.Evidence)
			merged[key] = &winner
		} else {
			existing.Evidence = appendUniqueEvidence(existing.Evidence, edge.Evidence)
		}
	}

	result := make([]models.RelationshipEdge, 0, len(merged))
	for _, edge := range merged {
		result = append(result, *edge)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SourceID != result[j].SourceID {
			return result[i].SourceID < result[j].SourceID
		}
		if result[i].TargetID != result[j].TargetID {
			return result[i].TargetID < result[j].TargetID
		}
		return result[i].Kind < result[j].Kind
	})
	return result
}

func appendUniqueEvidence(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}
	for _, e := range incoming {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		existing = append(existing, e)
	}
	return existing
}

// AssessHealth scores the run from the accepted per-component results.
// The score blends average result confidence with the share of components
// that did not fall back.
func (r *Reconciler) AssessHealth(components map[string]*models.Component) models.SystemHealth {
	var (
		confidenceSum float64
		resultCount   int
		fallbackCount int
	)
	for _, component := range components {
		for _, result := range component.Results {
			confidenceSum += result.Confidence
			resultCount++
			if result.Origin == models.OriginFallback {
				fallbackCount++
			}
		}
	}

	health := models.SystemHealth{
		FallbackResults: fallbackCount,
		TotalComponents: len(components),
	}
	if resultCount == 0 {
		health.HealthLevel = "poor"
		return health
	}

	health.AnalysisConfidence = confidenceSum / float64(resultCount)
	completeness := 1 - float64(fallbackCount)/float64(resultCount)
	health.OverallScore = 0.6*health.AnalysisConfidence + 0.4*completeness

	switch {
	case health.OverallScore < healthPoorThreshold:
		health.HealthLevel = "poor"
	case health.OverallScore < healthFairThreshold:
		health.HealthLevel = "fair"
	default:
		health.HealthLevel = "good"
	}
	return health
}

// Recommendations derives actionable follow-ups from the health summary and
// the system-level findings.
func (r *Reconciler) Recommendations(health models.SystemHealth, analysis *models.AnalysisSection) []string {
	var recommendations []string

	if health.FallbackResults > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d analysis results used fallback defaults; re-run with a reachable generative backend for higher fidelity",
			health.FallbackResults))
	}
	if health.AnalysisConfidence > 0 && health.AnalysisConfidence < healthFairThreshold {
		recommendations = append(recommendations,
			"overall analysis confidence is low; review the generated model manually before relying on it")
	}
	for _, conflict := range analysis.ResponsibilityConflicts {
		recommendations = append(recommendations, fmt.Sprintf(
			"components %s all claim %s %q; consider consolidating ownership",
			strings.Join(conflict.Components, ", "), conflictLabel(conflict.Kind), conflict.Claim))
	}
	for _, hub := range analysis.HubComponents {
		recommendations = append(recommendations, fmt.Sprintf(
			"component %q is a coupling hub; consider splitting its responsibilities", hub))
	}
	if len(analysis.LayeringViolations) > 0 {
		recommendations = append(recommendations,
			"layering violations detected; lower layers should not depend on higher ones")
	}
	return recommendations
}

func conflictLabel(kind string) string {
	if kind == models.ConflictDataOwnership {
		return "data entity"
	}
	return "business capability"
}
