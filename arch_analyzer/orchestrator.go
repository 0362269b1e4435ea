package arch_analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/archlens/archlens/arch_analyzer/contracts"
	"github.com/archlens/archlens/arch_analyzer/models"
)

// RunState tracks which phase of the pipeline a run is in. Transitions are
// strictly forward; a run ends in Completed or CompletedWithDegradation.
type RunState string

const (
	StateInit                    RunState = "Init"
	StatePerComponentAnalysis    RunState = "PerComponentAnalysis"
	StateSystemRelationships     RunState = "SystemRelationships"
	StateCrossCuttingConcerns    RunState = "CrossCuttingConcerns"
	StateResponsibilityConflicts RunState = "ResponsibilityConflicts"
	StateAggregate               RunState = "Aggregate"
	StateCompleted               RunState = "Completed"
	StateCompletedWithDegraded   RunState = "CompletedWithDegradation"
)

// ErrNoComponents is returned when a run is started with an empty component
// set. It is the only per-run input condition treated as fatal.
var ErrNoComponents = errors.New("no components to analyze")

const (
	defaultConcurrency  = 4
	maxRelatedPerPrompt = 3
)

// Options tunes one orchestrator run.
type Options struct {
	ProjectName       string
	Concurrency       int
	ForceRefresh      bool
	GenerativeEnabled bool
}

// Orchestrator drives the full analysis pipeline: per-component agent passes
// with caching, static extraction, edge reconciliation and the system-level
// passes, aggregated into one architecture snapshot.
type Orchestrator struct {
	agents     []contracts.IAnalysisAgent
	cache      *AnalysisCache
	extractor  *StaticRelationshipExtractor
	reconciler *Reconciler
	options    Options

	stateMutex sync.Mutex
	state      RunState

	backendCalls atomic.Int64
}

// NewOrchestrator wires the pipeline. The agent list is run for every
// component; the cache may be memory-only.
func NewOrchestrator(agents []contracts.IAnalysisAgent, cache *AnalysisCache, options Options) *Orchestrator {
	if options.Concurrency <= 0 {
		options.Concurrency = defaultConcurrency
	}
	return &Orchestrator{
		agents:     agents,
		cache:      cache,
		extractor:  NewStaticRelationshipExtractor(),
		reconciler: NewReconciler(),
		options:    options,
		state:      StateInit,
	}
}

// State returns the current pipeline phase.
func (o *Orchestrator) State() RunState {
	o.stateMutex.Lock()
	defer o.stateMutex.Unlock()
	return o.state
}

// BackendCalls reports how many agent invocations actually reached the
// generative backend (cache misses) during the last run.
func (o *Orchestrator) BackendCalls() int64 {
	return o.backendCalls.Load()
}

func (o *Orchestrator) transition(state RunState) {
	o.stateMutex.Lock()
	o.state = state
	o.stateMutex.Unlock()
	logrus.WithField("state", state).Debug("pipeline state transition")
}

// Run executes the pipeline over the parsed component set and returns the
// reconciled snapshot. Individual analysis failures degrade the result but
// never abort the run; only an empty component set is fatal.
func (o *Orchestrator) Run(ctx context.Context, components map[string]*models.Component) (*models.ArchitectureSnapshot, error) {
	if len(components) == 0 {
		return nil, ErrNoComponents
	}
	o.backendCalls.Store(0)

	o.transition(StatePerComponentAnalysis)
	if err := o.runComponentPasses(ctx, components); err != nil {
		return nil, err
	}

	o.transition(StateSystemRelationships)
	edges := o.extractor.Extract(components)
	edges = append(edges, agentEdges(components)...)
	edges = o.reconciler.Reconcile(edges)
	patterns := collectPatterns(components)
	hubs := hubComponents(components, edges)
	violations := layeringViolations(components, edges)

	o.transition(StateCrossCuttingConcerns)
	concerns := crossCuttingConcerns(components)

	o.transition(StateResponsibilityConflicts)
	conflicts := responsibilityConflicts(components)

	o.transition(StateAggregate)
	analysis := models.AnalysisSection{
		ArchitecturalPatterns:   patterns,
		CrossCuttingConcerns:    concerns,
		ResponsibilityConflicts: conflicts,
		HubComponents:           hubs,
		LayeringViolations:      violations,
	}
	analysis.SystemHealth = o.reconciler.AssessHealth(components)
	analysis.Recommendations = o.reconciler.Recommendations(analysis.SystemHealth, &analysis)

	snapshot := &models.ArchitectureSnapshot{
		Metadata: models.SnapshotMetadata{
			RunID:           uuid.NewString(),
			ProjectName:     o.options.ProjectName,
			TotalComponents: len(components),
			LLMEnhanced:     o.options.GenerativeEnabled && analysis.SystemHealth.FallbackResults == 0,
			FallbackCount:   analysis.SystemHealth.FallbackResults,
			GeneratedAt:     time.Now(),
		},
		Components:    components,
		Relationships: edges,
		Analysis:      analysis,
	}

	if analysis.SystemHealth.FallbackResults > 0 {
		o.transition(StateCompletedWithDegraded)
	} else {
		o.transition(StateCompleted)
	}
	return snapshot, nil
}

// runComponentPasses fans the component set out over a bounded worker pool
// and runs every agent pass for each component.
func (o *Orchestrator) runComponentPasses(ctx context.Context, components map[string]*models.Component) error {
	jobs := make(chan *models.Component)
	var wg sync.WaitGroup

	workers := o.options.Concurrency
	if workers > len(components) {
		workers = len(components)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for component := range jobs {
				o.analyzeComponent(ctx, component, relatedComponents(component, components), components)
			}
		}()
	}

	var cancelled bool
	for _, component := range sortedComponents(components) {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		jobs <- component
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		return ctx.Err()
	}
	return nil
}

// analyzeComponent runs the agent passes for one component concurrently,
// consulting the cache first. Fallback results are cached too, so a rerun
// over unchanged content does not retry fruitlessly; force refresh is the
// escape hatch.
func (o *Orchestrator) analyzeComponent(ctx context.Context, component *models.Component, related []*models.Component, components map[string]*models.Component) {
	results := make([]*models.AnalysisResult, len(o.agents))

	var wg sync.WaitGroup
	for i, agent := range o.agents {
		if !o.options.ForceRefresh {
			if cached, found := o.cache.Get(component.ContentHash, agent.Kind()); found {
				// The entry may have been computed for a different component
				// with byte-identical content.
				cached.RebindTo(component.ID)
				results[i] = cached
				continue
			}
		}

		wg.Add(1)
		go func(slot int, agent contracts.IAnalysisAgent) {
			defer wg.Done()
			o.backendCalls.Add(1)
			result := agent.Analyze(ctx, component, related, components)
			if err := o.cache.Put(component.ContentHash, agent.Kind(), result); err != nil {
				logrus.WithError(err).Warn("failed to store analysis result in cache")
			}
			results[slot] = result
		}(i, agent)
	}
	wg.Wait()

	for _, result := range results {
		if result != nil {
			component.AcceptResult(result)
		}
	}
}

// relatedComponents picks prompt context: siblings from the same directory.
func relatedComponents(component *models.Component, components map[string]*models.Component) []*models.Component {
	dir := filepath.Dir(component.Path)
	var related []*models.Component
	for _, candidate := range sortedComponents(components) {
		if candidate.ID == component.ID {
			continue
		}
		if filepath.Dir(candidate.Path) == dir {
			related = append(related, candidate)
			if len(related) == maxRelatedPerPrompt {
				break
			}
		}
	}
	return related
}

func sortedComponents(components map[string]*models.Component) []*models.Component {
	sorted := make([]*models.Component, 0, len(components))
	for _, component := range components {
		sorted = append(sorted, component)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// agentEdges collects the raw edges every relationship pass reported.
func agentEdges(components map[string]*models.Component) []models.RelationshipEdge {
	var edges []models.RelationshipEdge
	for _, component := range components {
		result, ok := component.Results[models.KindRelationships]
		if !ok {
			continue
		}
		if payload, ok := result.Relationships(); ok {
			edges = append(edges, payload.Edges...)
		}
	}
	return edges
}

// collectPatterns aggregates the architectural patterns the relationship
// passes named, deduplicated case-insensitively and sorted.
func collectPatterns(components map[string]*models.Component) []string {
	seen := make(map[string]string)
	for _, component := range components {
		result, ok := component.Results[models.KindRelationships]
		if !ok {
			continue
		}
		payload, ok := result.Relationships()
		if !ok {
			continue
		}
		for _, pattern := range payload.ArchitecturalPatterns {
			pattern = strings.TrimSpace(pattern)
			if pattern == "" {
				continue
			}
			key := strings.ToLower(pattern)
			if _, dup := seen[key]; !dup {
				seen[key] = pattern
			}
		}
	}

	patterns := make([]string, 0, len(seen))
	for _, pattern := range seen {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	return patterns
}

// crossCuttingConcerns surfaces technical concerns that recur in two or more
// components.
func crossCuttingConcerns(components map[string]*models.Component) []models.CrossCuttingConcern {
	byConcern := make(map[string][]string)
	labels := make(map[string]string)
	for _, component := range sortedComponents(components) {
		result, ok := component.Results[models.KindStructural]
		if !ok {
			continue
		}
		payload, ok := result.Structural()
		if !ok {
			continue
		}
		for _, concern := range payload.TechnicalConcerns {
			concern = strings.TrimSpace(concern)
			if concern == "" {
				continue
			}
			key := strings.ToLower(concern)
			byConcern[key] = append(byConcern[key], component.ID)
			labels[key] = concern
		}
	}

	var concerns []models.CrossCuttingConcern
	for key, ids := range byConcern {
		if len(ids) < 2 {
			continue
		}
		concerns = append(concerns, models.CrossCuttingConcern{Name: labels[key], Components: ids})
	}
	sort.Slice(concerns, func(i, j int) bool { return concerns[i].Name < concerns[j].Name })
	return concerns
}

// responsibilityConflicts finds business capabilities and data entities
// claimed by more than one component.
func responsibilityConflicts(components map[string]*models.Component) []models.ResponsibilityConflict {
	capabilities := make(map[string][]string)
	dataOwners := make(map[string][]string)
	labels := make(map[string]string)

	for _, component := range sortedComponents(components) {
		result, ok := component.Results[models.KindResponsibilities]
		if !ok {
			continue
		}
		payload, ok := result.Responsibilities()
		if !ok {
			continue
		}
		for _, capability := range payload.BusinessCapabilities {
			capability = strings.TrimSpace(capability)
			if capability == "" {
				continue
			}
			key := strings.ToLower(capability)
			capabilities[key] = append(capabilities[key], component.ID)
			labels[key] = capability
		}
		for _, entity := range payload.DataOwned {
			entity = strings.TrimSpace(entity)
			if entity == "" {
				continue
			}
			key := strings.ToLower(entity)
			dataOwners[key] = append(dataOwners[key], component.ID)
			labels[key] = entity
		}
	}

	var conflicts []models.ResponsibilityConflict
	for key, ids := range capabilities {
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, models.ResponsibilityConflict{
			Kind:       models.ConflictBusinessCapability,
			Claim:      labels[key],
			Components: ids,
		})
	}
	for key, ids := range dataOwners {
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, models.ResponsibilityConflict{
			Kind:       models.ConflictDataOwnership,
			Claim:      labels[key],
			Components: ids,
		})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].Kind != conflicts[j].Kind {
			return conflicts[i].Kind < conflicts[j].Kind
		}
		return conflicts[i].Claim < conflicts[j].Claim
	})
	return conflicts
}

// hubComponents flags components whose reconciled degree is both absolutely
// high and well above the average, which usually signals excessive coupling.
func hubComponents(components map[string]*models.Component, edges []models.RelationshipEdge) []string {
	if len(components) == 0 || len(edges) == 0 {
		return nil
	}

	degree := make(map[string]int)
	for _, edge := range edges {
		degree[edge.SourceID]++
		if _, known := components[edge.TargetID]; known {
			degree[edge.TargetID]++
		}
	}

	total := 0
	for _, d := range degree {
		total += d
	}
	average := float64(total) / float64(len(components))

	var hubs []string
	for id := range components {
		if d := degree[id]; d >= 3 && float64(d) >= 2*average {
			hubs = append(hubs, id)
		}
	}
	sort.Strings(hubs)
	return hubs
}

var layerRank = map[string]int{
	"infrastructure": 0,
	"data":           1,
	"business":       2,
	"presentation":   3,
}

// layeringViolations reports edges that point from a lower architectural
// layer to a higher one. Components without a classified layer are skipped.
func layeringViolations(components map[string]*models.Component, edges []models.RelationshipEdge) []string {
	layerOf := func(id string) (int, bool) {
		component, ok := components[id]
		if !ok {
			return 0, false
		}
		result, ok := component.Results[models.KindStructural]
		if !ok {
			return 0, false
		}
		payload, ok := result.Structural()
		if !ok {
			return 0, false
		}
		rank, ok := layerRank[strings.ToLower(payload.ArchitecturalLayer)]
		return rank, ok
	}

	var violations []string
	for _, edge := range edges {
		sourceRank, ok := layerOf(edge.SourceID)
		if !ok {
			continue
		}
		targetRank, ok := layerOf(edge.TargetID)
		if !ok {
			continue
		}
		if sourceRank < targetRank {
			violations = append(violations, edge.SourceID+" -> "+edge.TargetID)
		}
	}
	sort.Strings(violations)
	return violations
}
