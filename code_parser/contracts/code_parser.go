package contracts

import "github.com/archlens/archlens/arch_analyzer/models"

// ICodeParser discovers the architecturally-relevant components of a source
// tree and extracts the raw import and call references used by static
// relationship extraction.
type ICodeParser interface {
	DiscoverComponents(rootDir string) (map[string]*models.Component, error)
}
