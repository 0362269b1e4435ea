package code_parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/archlens/archlens/arch_analyzer/models"
	"github.com/archlens/archlens/code_parser/contracts"
	"github.com/archlens/archlens/utils"
)

const (
	// Files over 100 KB are skipped; they are almost always generated.
	maxFileSize = 100 * 1024

	// excerptBytes bounds the source excerpt attached to each component.
	excerptBytes = 4000
)

// languageSpec pairs a tree-sitter grammar with the queries that extract
// import targets and call sites from it.
type languageSpec struct {
	language    *sitter.Language
	importQuery string
	callQuery   string
}

var languageSpecs = map[string]languageSpec{
	"go": {
		language:    golang.GetLanguage(),
		importQuery: `(import_spec path: (interpreted_string_literal) @import)`,
		callQuery:   `(call_expression function: (selector_expression) @call)`,
	},
	"python": {
		language: python.GetLanguage(),
		importQuery: `[
			(import_statement name: (dotted_name) @import)
			(import_from_statement module_name: (dotted_name) @import)
		]`,
		callQuery: `(call function: (attribute) @call)`,
	},
	"javascript": {
		language:    javascript.GetLanguage(),
		importQuery: `(import_statement source: (string) @import)`,
		callQuery:   `(call_expression function: (member_expression) @call)`,
	},
}

var extensionLanguages = map[string]string{
	".go":  "go",
	".py":  "python",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
}

// CodeParser walks a source tree and turns each supported source file into a
// component with its raw import and call references.
type CodeParser struct {
	targetLanguages map[string]bool
}

// NewCodeParser creates a parser. An empty language list means every
// supported language is included.
func NewCodeParser(targetLanguages []string) contracts.ICodeParser {
	targets := make(map[string]bool, len(targetLanguages))
	for _, language := range targetLanguages {
		targets[strings.ToLower(strings.TrimSpace(language))] = true
	}
	return &CodeParser{targetLanguages: targets}
}

// DiscoverComponents walks rootDir and builds the component set. Unsupported
// and ignored files are skipped silently; unreadable files fail the walk.
func (p *CodeParser) DiscoverComponents(rootDir string) (map[string]*models.Component, error) {
	ignorePatterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, err
	}

	components := make(map[string]*models.Component)

	err = filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relativePath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		relativePath = filepath.ToSlash(relativePath)

		if utils.IsDefaultIgnored(relativePath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		language, supported := p.languageFor(relativePath)
		if !supported {
			return nil
		}
		if utils.IsIgnored(relativePath, ignorePatterns) {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info: %s, error: %w", relativePath, err)
		}
		if fileInfo.Size() > maxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
		}

		component, err := p.buildComponent(relativePath, language, content)
		if err != nil {
			return err
		}
		components[component.ID] = component
		return nil
	})
	if err != nil {
		return nil, err
	}

	return components, nil
}

func (p *CodeParser) languageFor(relativePath string) (string, bool) {
	language, ok := extensionLanguages[strings.ToLower(filepath.Ext(relativePath))]
	if !ok {
		return "", false
	}
	if len(p.targetLanguages) > 0 && !p.targetLanguages[language] {
		return "", false
	}
	return language, true
}

func (p *CodeParser) buildComponent(relativePath, language string, content []byte) (*models.Component, error) {
	spec := languageSpecs[language]

	parser := sitter.NewParser()
	parser.SetLanguage(spec.language)
	tree := parser.Parse(nil, content)

	imports, err := captureQuery(spec.importQuery, spec.language, tree, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract imports from %s: %w", relativePath, err)
	}
	calls, err := captureQuery(spec.callQuery, spec.language, tree, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract calls from %s: %w", relativePath, err)
	}

	for i, imported := range imports {
		imports[i] = strings.Trim(imported, `"'`)
	}

	excerpt := content
	if len(excerpt) > excerptBytes {
		excerpt = excerpt[:excerptBytes]
	}

	// The hash keys the analysis cache, so it covers exactly the bytes the
	// analysis passes see; edits past the excerpt boundary leave entries valid.
	digest := sha256.Sum256(excerpt)

	name := filepath.Base(relativePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &models.Component{
		ID:          relativePath,
		Name:        name,
		Path:        relativePath,
		Language:    language,
		Excerpt:     string(excerpt),
		ContentHash: hex.EncodeToString(digest[:]),
		Imports:     dedupe(imports),
		Calls:       dedupe(calls),
	}, nil
}

// captureQuery runs one tree-sitter query and returns the captured node text.
func captureQuery(queryStr string, lang *sitter.Language, tree *sitter.Tree, source []byte) ([]string, error) {
	query, err := sitter.NewQuery([]byte(queryStr), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to compile query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var captured []string
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			captured = append(captured, capture.Node.Content(source))
		}
	}
	return captured, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var result []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		result = append(result, value)
	}
	return result
}
