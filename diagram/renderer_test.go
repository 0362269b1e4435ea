package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archlens/archlens/arch_analyzer/models"
)

func testSnapshot() *models.ArchitectureSnapshot {
	api := &models.Component{ID: "internal/api/handler.go", Name: "handler", Path: "internal/api/handler.go"}
	api.AcceptResult(&models.AnalysisResult{
		ComponentID: api.ID,
		Kind:        models.KindStructural,
		Payload:     &models.StructuralPayload{Purpose: "serves HTTP requests", C4Level: "component"},
		Confidence:  0.8,
		Origin:      models.OriginAgent,
	})
	store := &models.Component{ID: "internal/storage/store.go", Name: "store", Path: "internal/storage/store.go"}

	return &models.ArchitectureSnapshot{
		Metadata: models.SnapshotMetadata{ProjectName: "demo"},
		Components: map[string]*models.Component{
			api.ID:   api,
			store.ID: store,
		},
		Relationships: []models.RelationshipEdge{
			{SourceID: api.ID, TargetID: store.ID, Kind: models.RelationCalls, Origin: models.OriginStatic, Confidence: 0.9},
			{SourceID: store.ID, TargetID: "external:postgres", Kind: models.RelationUses, Origin: models.OriginAgent, Confidence: 0.7},
		},
	}
}

func TestPlantUMLRenderer(t *testing.T) {
	renderer := NewPlantUMLRenderer()
	assert.Equal(t, ".puml", renderer.FileExtension())

	output := renderer.Render(testSnapshot())

	assert.True(t, strings.HasPrefix(output, "@startuml"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(output), "@enduml"))
	assert.Contains(t, output, "title demo - Component Diagram")
	assert.Contains(t, output, `component "handler"`)
	assert.Contains(t, output, `component "store"`)
	assert.Contains(t, output, "serves HTTP requests")
	assert.Contains(t, output, `component "postgres"`)
	assert.Contains(t, output, "<<external>>")
	assert.Contains(t, output, ": calls")
	assert.Contains(t, output, ": uses")
}

func TestMermaidRenderer(t *testing.T) {
	renderer := NewMermaidRenderer()
	assert.Equal(t, ".mmd", renderer.FileExtension())

	output := renderer.Render(testSnapshot())

	assert.True(t, strings.HasPrefix(output, "graph TD"))
	assert.Contains(t, output, "handler")
	assert.Contains(t, output, "-->|calls|")
	assert.Contains(t, output, "-->|uses|")
	assert.Contains(t, output, "postgres")
}

func TestComponentAliases_UniqueAndSanitized(t *testing.T) {
	one := &models.Component{ID: "pkg/a/util.go", Name: "util", Path: "pkg/a/util.go"}
	two := &models.Component{ID: "pkg/b/util.go", Name: "util", Path: "pkg/b/util.go"}

	snapshot := &models.ArchitectureSnapshot{
		Components: map[string]*models.Component{one.ID: one, two.ID: two},
	}

	aliases := componentAliases(snapshot)
	require.Len(t, aliases, 2)
	assert.NotEqual(t, aliases[one.ID], aliases[two.ID])
	for _, alias := range aliases {
		assert.NotContains(t, alias, "/")
		assert.NotContains(t, alias, ".")
	}
}
