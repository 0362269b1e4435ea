package arch_analyzer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/archlens/archlens/arch_analyzer/models"
)

// StaticConfidence is the fixed confidence of statically-extracted edges.
// Static extraction sees the real import and call sites, so its edges outrank
// generative ones but still leave room for corroborating evidence.
const StaticConfidence = 0.9

// StaticRelationshipExtractor derives relationship edges from the import and
// call lists the parser collected. It never talks to a backend and never
// fails: references it cannot resolve to a known component are dropped.
type StaticRelationshipExtractor struct{}

// NewStaticRelationshipExtractor returns an extractor over parsed components.
func NewStaticRelationshipExtractor() *StaticRelationshipExtractor {
	return &StaticRelationshipExtractor{}
}

// Extract resolves every import and call reference of every component against
// the component set and returns the resulting edges. Self-references and
// duplicates within one component are collapsed.
func (e *StaticRelationshipExtractor) Extract(components map[string]*models.Component) []models.RelationshipEdge {
	index := buildReferenceIndex(components)

	var edges []models.RelationshipEdge
	for _, component := range components {
		seen := make(map[string]bool)

		for _, imported := range component.Imports {
			targetID, ok := index.resolve(imported)
			if !ok || targetID == component.ID {
				continue
			}
			key := targetID + "/" + string(models.RelationImports)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, models.RelationshipEdge{
				SourceID:   component.ID,
				TargetID:   targetID,
				Kind:       models.RelationImports,
				Evidence:   []string{fmt.Sprintf("import of %q in %s", imported, component.Path)},
				Origin:     models.OriginStatic,
				Confidence: StaticConfidence,
			})
		}

		for _, called := range component.Calls {
			targetID, ok := index.resolve(called)
			if !ok || targetID == component.ID {
				continue
			}
			key := targetID + "/" + string(models.RelationCalls)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, models.RelationshipEdge{
				SourceID:   component.ID,
				TargetID:   targetID,
				Kind:       models.RelationCalls,
				Evidence:   []string{fmt.Sprintf("call to %q in %s", called, component.Path)},
				Origin:     models.OriginStatic,
				Confidence: StaticConfidence,
			})
		}
	}
	return edges
}

// referenceIndex maps the spellings under which a component may be referenced
// (ID, name, path without extension, path segments) to its ID.
type referenceIndex struct {
	byKey map[string]string
}

func buildReferenceIndex(components map[string]*models.Component) *referenceIndex {
	index := &referenceIndex{byKey: make(map[string]string, 4*len(components))}
	for id, component := range components {
		index.add(component.ID, id)
		index.add(component.Name, id)

		trimmed := strings.TrimSuffix(component.Path, filepath.Ext(component.Path))
		index.add(trimmed, id)
		index.add(filepath.ToSlash(trimmed), id)
		index.add(strings.ReplaceAll(filepath.ToSlash(trimmed), "/", "."), id)
	}
	return index
}

func (i *referenceIndex) add(key, id string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	i.byKey[key] = id
}

// resolve matches a raw import path or call target against the index, trying
// the full reference first and then its trailing segments so that both
// "pkg/storage" and "myproject.pkg.storage" find the storage component.
func (i *referenceIndex) resolve(reference string) (string, bool) {
	reference = strings.ToLower(strings.TrimSpace(strings.Trim(reference, `"'`)))
	if reference == "" {
		return "", false
	}
	if id, ok := i.byKey[reference]; ok {
		return id, true
	}

	normalized := strings.ReplaceAll(reference, ".", "/")
	if id, ok := i.byKey[normalized]; ok {
		return id, true
	}

	segments := strings.Split(normalized, "/")
	for start := 1; start < len(segments); start++ {
		if id, ok := i.byKey[strings.Join(segments[start:], "/")]; ok {
			return id, true
		}
	}
	if last := segments[len(segments)-1]; last != reference {
		if id, ok := i.byKey[last]; ok {
			return id, true
		}
	}
	return "", false
}
