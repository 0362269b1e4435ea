package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/archlens/archlens/arch_analyzer/models"
)

// Renderer turns an architecture snapshot into diagram source text.
type Renderer interface {
	Name() string
	FileExtension() string
	Render(snapshot *models.ArchitectureSnapshot) string
}

// PlantUMLRenderer emits C4-flavored PlantUML component diagrams.
type PlantUMLRenderer struct{}

// NewPlantUMLRenderer returns the PlantUML renderer.
func NewPlantUMLRenderer() Renderer {
	return &PlantUMLRenderer{}
}

func (r *PlantUMLRenderer) Name() string          { return "plantuml" }
func (r *PlantUMLRenderer) FileExtension() string { return ".puml" }

func (r *PlantUMLRenderer) Render(snapshot *models.ArchitectureSnapshot) string {
	var builder strings.Builder
	builder.WriteString("@startuml\n")
	fmt.Fprintf(&builder, "title %s - Component Diagram\n\n", snapshot.Metadata.ProjectName)

	aliases := componentAliases(snapshot)
	for _, id := range sortedComponentIDs(snapshot) {
		component := snapshot.Components[id]
		purpose := componentPurpose(component)
		if purpose != "" {
			fmt.Fprintf(&builder, "component %q as %s <<%s>>\n", component.Name, aliases[id], purpose)
		} else {
			fmt.Fprintf(&builder, "component %q as %s\n", component.Name, aliases[id])
		}
	}

	externals := externalTargets(snapshot)
	if len(externals) > 0 {
		builder.WriteString("\n")
		for _, external := range externals {
			fmt.Fprintf(&builder, "component %q as %s <<external>>\n", external, aliases[models.ExternalTargetPrefix+external])
		}
	}

	builder.WriteString("\n")
	for _, edge := range snapshot.Relationships {
		source, ok := aliases[edge.SourceID]
		if !ok {
			continue
		}
		target, ok := aliases[edge.TargetID]
		if !ok {
			continue
		}
		fmt.Fprintf(&builder, "%s --> %s : %s\n", source, target, edge.Kind)
	}

	builder.WriteString("@enduml\n")
	return builder.String()
}

// MermaidRenderer emits Mermaid flowchart diagrams, which render inline on
// most git hosting.
type MermaidRenderer struct{}

// NewMermaidRenderer returns the Mermaid renderer.
func NewMermaidRenderer() Renderer {
	return &MermaidRenderer{}
}

func (r *MermaidRenderer) Name() string          { return "mermaid" }
func (r *MermaidRenderer) FileExtension() string { return ".mmd" }

func (r *MermaidRenderer) Render(snapshot *models.ArchitectureSnapshot) string {
	var builder strings.Builder
	builder.WriteString("graph TD\n")

	aliases := componentAliases(snapshot)
	for _, id := range sortedComponentIDs(snapshot) {
		component := snapshot.Components[id]
		fmt.Fprintf(&builder, "    %s[%q]\n", aliases[id], component.Name)
	}
	for _, external := range externalTargets(snapshot) {
		fmt.Fprintf(&builder, "    %s((%q))\n", aliases[models.ExternalTargetPrefix+external], external)
	}

	for _, edge := range snapshot.Relationships {
		source, ok := aliases[edge.SourceID]
		if !ok {
			continue
		}
		target, ok := aliases[edge.TargetID]
		if !ok {
			continue
		}
		fmt.Fprintf(&builder, "    %s -->|%s| %s\n", source, edge.Kind, target)
	}
	return builder.String()
}

// componentAliases assigns identifier-safe aliases to components and external
// targets. Aliases only need to be unique within one rendering.
func componentAliases(snapshot *models.ArchitectureSnapshot) map[string]string {
	aliases := make(map[string]string, len(snapshot.Components))
	used := make(map[string]bool)

	assign := func(key, base string) {
		alias := sanitizeAlias(base)
		candidate := alias
		for i := 2; used[candidate]; i++ {
			candidate = fmt.Sprintf("%s_%d", alias, i)
		}
		used[candidate] = true
		aliases[key] = candidate
	}

	for _, id := range sortedComponentIDs(snapshot) {
		assign(id, snapshot.Components[id].Name)
	}
	for _, external := range externalTargets(snapshot) {
		assign(models.ExternalTargetPrefix+external, "ext_"+external)
	}
	return aliases
}

func sanitizeAlias(name string) string {
	var builder strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	alias := builder.String()
	if alias == "" {
		alias = "component"
	}
	return alias
}

func sortedComponentIDs(snapshot *models.ArchitectureSnapshot) []string {
	ids := make([]string, 0, len(snapshot.Components))
	for id := range snapshot.Components {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// externalTargets collects the distinct external relationship targets, with
// the prefix stripped, in sorted order.
func externalTargets(snapshot *models.ArchitectureSnapshot) []string {
	seen := make(map[string]bool)
	for _, edge := range snapshot.Relationships {
		if strings.HasPrefix(edge.TargetID, models.ExternalTargetPrefix) {
			seen[strings.TrimPrefix(edge.TargetID, models.ExternalTargetPrefix)] = true
		}
	}
	externals := make([]string, 0, len(seen))
	for external := range seen {
		externals = append(externals, external)
	}
	sort.Strings(externals)
	return externals
}

func componentPurpose(component *models.Component) string {
	result, ok := component.Results[models.KindStructural]
	if !ok {
		return ""
	}
	payload, ok := result.Structural()
	if !ok || payload.Purpose == "" {
		return ""
	}
	purpose := payload.Purpose
	if len(purpose) > 60 {
		purpose = purpose[:57] + "..."
	}
	return purpose
}
