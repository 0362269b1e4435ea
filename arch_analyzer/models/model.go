package models

import "time"

// AnalysisKind identifies one of the specialized analysis passes.
type AnalysisKind string

const (
	KindStructural       AnalysisKind = "structural"
	KindRelationships    AnalysisKind = "relationships"
	KindResponsibilities AnalysisKind = "responsibilities"
)

// AllAnalysisKinds returns the analysis passes in the order they are reported.
func AllAnalysisKinds() []AnalysisKind {
	return []AnalysisKind{KindStructural, KindRelationships, KindResponsibilities}
}

// Origin tags where a result or an edge came from.
type Origin string

const (
	OriginStatic   Origin = "static"
	OriginAgent    Origin = "agent"
	OriginFallback Origin = "fallback"
)

// RelationKind is the type of a directed relationship between two components.
type RelationKind string

const (
	RelationUses       RelationKind = "uses"
	RelationDependsOn  RelationKind = "depends_on"
	RelationImplements RelationKind = "implements"
	RelationExtends    RelationKind = "extends"
	RelationContains   RelationKind = "contains"
	RelationCalls      RelationKind = "calls"
	RelationImports    RelationKind = "imports"
)

// ValidRelationKind reports whether kind is one of the supported relation kinds.
func ValidRelationKind(kind RelationKind) bool {
	switch kind {
	case RelationUses, RelationDependsOn, RelationImplements, RelationExtends,
		RelationContains, RelationCalls, RelationImports:
		return true
	}
	return false
}

// ExternalTargetPrefix marks a relationship target that is outside the analyzed
// component set (a library, a remote service).
const ExternalTargetPrefix = "external:"

// Component is a discovered architecturally-relevant source unit. Identity is
// immutable for the lifetime of a run; only Results is appended to.
type Component struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Language    string `json:"language"`
	Excerpt     string `json:"-"`
	ContentHash string `json:"content_hash"`

	// Raw import and call lists supplied by the parsing collaborator.
	Imports []string `json:"-"`
	Calls   []string `json:"-"`

	Results map[AnalysisKind]*AnalysisResult `json:"results"`
}

// AcceptResult records the accepted analysis result for a kind. There is at
// most one accepted result per kind; a later accept replaces the earlier one.
func (c *Component) AcceptResult(result *AnalysisResult) {
	if c.Results == nil {
		c.Results = make(map[AnalysisKind]*AnalysisResult)
	}
	c.Results[result.Kind] = result
}

// RelationshipEdge is a directed, typed link between two components with
// supporting evidence. Multiple edges with the same (source, target, kind) but
// different origin may coexist until reconciliation collapses them.
type RelationshipEdge struct {
	SourceID   string       `json:"source"`
	TargetID   string       `json:"target"`
	Kind       RelationKind `json:"kind"`
	Evidence   []string     `json:"evidence"`
	Origin     Origin       `json:"origin"`
	Confidence float64      `json:"confidence"`
}

// StructuralPayload is the result of the structural-understanding pass.
type StructuralPayload struct {
	Purpose            string   `json:"purpose"`
	C4Level            string   `json:"c4_level"`
	InterfacesProvided []string `json:"interfaces_provided"`
	InterfacesConsumed []string `json:"interfaces_consumed"`
	DataEntities       []string `json:"data_entities"`
	BusinessRules      []string `json:"business_rules"`
	TechnicalConcerns  []string `json:"technical_concerns"`
	ArchitecturalLayer string   `json:"architectural_layer"`
}

// RelationshipPayload is the result of the relationship-extraction pass.
type RelationshipPayload struct {
	Edges                 []RelationshipEdge `json:"edges"`
	ArchitecturalPatterns []string           `json:"architectural_patterns"`
}

// ResponsibilityPayload is the result of the responsibility-classification pass.
type ResponsibilityPayload struct {
	BusinessCapabilities  []string `json:"business_capabilities"`
	TechnicalCapabilities []string `json:"technical_capabilities"`
	QualityAttributes     []string `json:"quality_attributes"`
	Stakeholders          []string `json:"stakeholders"`
	DataOwned             []string `json:"data_owned"`
}

// AnalysisResult is one accepted analysis outcome for a component.
type AnalysisResult struct {
	ComponentID string       `json:"component_id"`
	Kind        AnalysisKind `json:"kind"`
	Payload     interface{}  `json:"payload"`
	Confidence  float64      `json:"confidence"`
	Origin      Origin       `json:"origin"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Structural returns the typed payload of a structural result.
func (r *AnalysisResult) Structural() (*StructuralPayload, bool) {
	p, ok := r.Payload.(*StructuralPayload)
	return p, ok
}

// Relationships returns the typed payload of a relationship result.
func (r *AnalysisResult) Relationships() (*RelationshipPayload, bool) {
	p, ok := r.Payload.(*RelationshipPayload)
	return p, ok
}

// Responsibilities returns the typed payload of a responsibility result.
func (r *AnalysisResult) Responsibilities() (*ResponsibilityPayload, bool) {
	p, ok := r.Payload.(*ResponsibilityPayload)
	return p, ok
}

// Clone returns a deep copy of the result. A result served out of a cache
// must not share payload state with the stored entry.
func (r *AnalysisResult) Clone() *AnalysisResult {
	clone := *r
	switch payload := r.Payload.(type) {
	case *StructuralPayload:
		copied := *payload
		copied.InterfacesProvided = cloneStrings(payload.InterfacesProvided)
		copied.InterfacesConsumed = cloneStrings(payload.InterfacesConsumed)
		copied.DataEntities = cloneStrings(payload.DataEntities)
		copied.BusinessRules = cloneStrings(payload.BusinessRules)
		copied.TechnicalConcerns = cloneStrings(payload.TechnicalConcerns)
		clone.Payload = &copied
	case *RelationshipPayload:
		copied := RelationshipPayload{
			Edges:                 make([]RelationshipEdge, len(payload.Edges)),
			ArchitecturalPatterns: cloneStrings(payload.ArchitecturalPatterns),
		}
		for i, edge := range payload.Edges {
			edge.Evidence = cloneStrings(edge.Evidence)
			copied.Edges[i] = edge
		}
		clone.Payload = &copied
	case *ResponsibilityPayload:
		copied := ResponsibilityPayload{
			BusinessCapabilities:  cloneStrings(payload.BusinessCapabilities),
			TechnicalCapabilities: cloneStrings(payload.TechnicalCapabilities),
			QualityAttributes:     cloneStrings(payload.QualityAttributes),
			Stakeholders:          cloneStrings(payload.Stakeholders),
			DataOwned:             cloneStrings(payload.DataOwned),
		}
		clone.Payload = &copied
	}
	return &clone
}

// RebindTo reassigns the result to a component whose content is byte-identical
// to the one it was computed for. Relationship edges are re-sourced at the new
// component; an edge whose target is the new component itself is dropped.
func (r *AnalysisResult) RebindTo(componentID string) {
	r.ComponentID = componentID
	if payload, ok := r.Relationships(); ok {
		kept := payload.Edges[:0]
		for _, edge := range payload.Edges {
			if edge.TargetID == componentID {
				continue
			}
			edge.SourceID = componentID
			kept = append(kept, edge)
		}
		payload.Edges = kept
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

// FallbackConfidence is the fixed confidence assigned to fallback results.
const FallbackConfidence = 0.3

// NewFallbackResult builds the minimal, clearly-marked result used when an
// analysis pass could not be completed. Collections are empty, confidence is
// forced low and the origin is fallback.
func NewFallbackResult(componentID string, kind AnalysisKind) *AnalysisResult {
	var payload interface{}
	switch kind {
	case KindStructural:
		payload = &StructuralPayload{}
	case KindRelationships:
		payload = &RelationshipPayload{}
	case KindResponsibilities:
		payload = &ResponsibilityPayload{}
	}
	return &AnalysisResult{
		ComponentID: componentID,
		Kind:        kind,
		Payload:     payload,
		Confidence:  FallbackConfidence,
		Origin:      OriginFallback,
		Timestamp:   time.Now(),
	}
}
