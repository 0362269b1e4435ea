package contracts

import (
	"context"

	"github.com/archlens/archlens/arch_analyzer/models"
)

// IAnalysisAgent is one specialized, side-effect-free analysis pass over a
// single component. Analyze never fails: when the backend call or schema
// validation fails it returns a fallback result instead, so one component can
// never abort the run. related is a small prompt-context subset; components is
// the full run set, which relationship targets resolve against.
type IAnalysisAgent interface {
	Kind() models.AnalysisKind
	Analyze(ctx context.Context, component *models.Component, related []*models.Component, components map[string]*models.Component) *models.AnalysisResult
}
