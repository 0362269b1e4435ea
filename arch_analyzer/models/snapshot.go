package models

import "time"

// CrossCuttingConcern is a technical concern recurring across two or more
// components, e.g. authentication or logging.
type CrossCuttingConcern struct {
	Name       string   `json:"name"`
	Components []string `json:"components"`
}

// ResponsibilityConflict records two or more components claiming the same
// business capability or data ownership.
type ResponsibilityConflict struct {
	Kind       string   `json:"kind"` // business_capability or data_ownership
	Claim      string   `json:"claim"`
	Components []string `json:"components"`
}

const (
	ConflictBusinessCapability = "business_capability"
	ConflictDataOwnership      = "data_ownership"
)

// SystemHealth summarizes confidence and conflict metrics for the whole run.
type SystemHealth struct {
	OverallScore       float64 `json:"overall_score"`
	HealthLevel        string  `json:"health_level"` // good, fair, poor
	AnalysisConfidence float64 `json:"analysis_confidence"`
	FallbackResults    int     `json:"fallback_results"`
	TotalComponents    int     `json:"total_components"`
}

// AnalysisSection folds the system-level pass outputs into the snapshot.
type AnalysisSection struct {
	SystemHealth            SystemHealth             `json:"system_health"`
	ArchitecturalPatterns   []string                 `json:"architectural_patterns"`
	Recommendations         []string                 `json:"recommendations"`
	CrossCuttingConcerns    []CrossCuttingConcern    `json:"cross_cutting_concerns"`
	ResponsibilityConflicts []ResponsibilityConflict `json:"responsibility_conflicts"`
	HubComponents           []string                 `json:"hub_components"`
	LayeringViolations      []string                 `json:"layering_violations"`
}

// SnapshotMetadata carries run metadata. LLMEnhanced is false as soon as any
// analysis result fell back, so partial-quality output is distinguishable from
// full-quality output without being an error.
type SnapshotMetadata struct {
	RunID           string    `json:"run_id"`
	ProjectName     string    `json:"project_name"`
	TotalComponents int       `json:"total_components"`
	LLMEnhanced     bool      `json:"llm_enhanced"`
	FallbackCount   int       `json:"fallback_count"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ArchitectureSnapshot is the complete, reconciled architecture model for one
// run. It is built once by the orchestrator and read-only afterwards.
type ArchitectureSnapshot struct {
	Metadata      SnapshotMetadata      `json:"metadata"`
	Components    map[string]*Component `json:"components"`
	Relationships []RelationshipEdge    `json:"relationships"`
	Analysis      AnalysisSection       `json:"analysis"`
}
