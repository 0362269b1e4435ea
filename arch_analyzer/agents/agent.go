package agents

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/archlens/archlens/arch_analyzer/models"
)

const (
	// DefaultAgentConfidence is assumed when the backend omits a confidence score.
	DefaultAgentConfidence = 0.8

	// Prompt size limits keep one oversized file from starving the context window.
	maxExcerptChars        = 6000
	maxRelatedComponents   = 3
	maxRelatedExcerptChars = 500
	maxKnownComponents     = 40
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// decodeResponse extracts the JSON object from a backend response. Models wrap
// answers in markdown fences or surround them with prose often enough that
// both forms have to be tolerated.
func decodeResponse(content string, v interface{}) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if err := json.Unmarshal([]byte(content), v); err == nil {
		return nil
	}

	match := jsonObjectPattern.FindString(content)
	if match == "" {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(match), v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// clampConfidence normalizes a reported confidence into [0,1], substituting
// the default when the field was omitted.
func clampConfidence(value float64) float64 {
	if value <= 0 {
		return DefaultAgentConfidence
	}
	if value > 1 {
		return 1
	}
	return value
}

// excerptForPrompt bounds the component's source excerpt.
func excerptForPrompt(component *models.Component) string {
	excerpt := component.Excerpt
	if len(excerpt) > maxExcerptChars {
		excerpt = excerpt[:maxExcerptChars]
	}
	return excerpt
}

// relatedContext renders a short cross-component context block from up to
// three related components.
func relatedContext(related []*models.Component) string {
	if len(related) == 0 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("\n\nContext from related components:\n")
	for i, component := range related {
		if i >= maxRelatedComponents {
			break
		}
		excerpt := component.Excerpt
		if len(excerpt) > maxRelatedExcerptChars {
			excerpt = excerpt[:maxRelatedExcerptChars]
		}
		fmt.Fprintf(&builder, "\n--- %s ---\n%s\n", component.Name, excerpt)
	}
	return builder.String()
}

// componentIndex maps component identifiers and names to IDs so relationship
// targets resolve against the whole run, not just the prompt-context subset.
func componentIndex(components map[string]*models.Component) map[string]string {
	index := make(map[string]string, 2*len(components))
	for _, c := range components {
		index[strings.ToLower(c.ID)] = c.ID
		index[strings.ToLower(c.Name)] = c.ID
	}
	return index
}

// knownComponentNames lists component names for the prompt, sorted and capped
// so a large repo does not flood the context window.
func knownComponentNames(components map[string]*models.Component) []string {
	seen := make(map[string]bool, len(components))
	names := make([]string, 0, len(components))
	for _, c := range components {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		names = append(names, c.Name)
	}
	sort.Strings(names)
	if len(names) > maxKnownComponents {
		names = names[:maxKnownComponents]
	}
	return names
}
