// Package actiondoc reads check documents: markdown files describing the statements,
// expected values and extracted variables of one query action.
package actiondoc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter     = errors.New("invalid front matter")
	ErrMissingRequiredSection = errors.New("missing required section")
	ErrInvalidBlock           = errors.New("invalid block")
)

var (
	statementSectionNames = []string{"statements", "statement", "sql"}
	expectedSectionNames  = []string{"expected", "expected values", "validate"}
	extractSectionNames   = []string{"extract", "extract variables", "variables"}
)

// Document is a parsed check document.
type Document struct {
	Path        string
	Title       string
	Name        string
	Description string

	MaxRetries   *int
	RetryPause   *time.Duration
	LegacyExport *bool

	// Statements holds the inline statement list from the front matter.
	Statements []string
	// StatementBlock holds the sql code blocks of the Statements section, one statement per line.
	StatementBlock string

	Expected map[string]string
	Extract  map[string]string
}

// Section represents a markdown section with AST nodes
type Section struct {
	HeadingText string
	Content     []ast.Node
}

// ParseFile parses the document at path. The file name is the fallback document name.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open check document: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc.Path = path

	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return doc, nil
}

// Parse parses a check document.
func Parse(reader io.Reader) (*Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	fm, body, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	source := []byte(body)
	root := md.Parser().Parse(text.NewReader(source))
	title, sections := extractSectionsFromAST(root, source)

	doc := &Document{
		Title:        title,
		Name:         fm.Name,
		Description:  fm.Description,
		MaxRetries:   fm.MaxRetries,
		RetryPause:   fm.RetryPause,
		LegacyExport: fm.LegacyExport,
		Statements:   fm.Statements,
		Expected:     make(map[string]string),
		Extract:      make(map[string]string),
	}

	if doc.Name == "" {
		doc.Name = title
	}

	if section, ok := findSection(sections, statementSectionNames); ok {
		doc.StatementBlock = extractSQLFromASTNodes(section.Content, source)
	}

	if len(doc.Statements) == 0 && strings.TrimSpace(doc.StatementBlock) == "" {
		return nil, fmt.Errorf("%w: statements (front matter or sql block)", ErrMissingRequiredSection)
	}

	if section, ok := findSection(sections, expectedSectionNames); ok {
		if doc.Expected, err = parseValueSection(section, source); err != nil {
			return nil, fmt.Errorf("failed to parse expected values: %w", err)
		}
	}

	if section, ok := findSection(sections, extractSectionNames); ok {
		if doc.Extract, err = parseValueSection(section, source); err != nil {
			return nil, fmt.Errorf("failed to parse extracted variables: %w", err)
		}
	}

	return doc, nil
}

func findSection(sections map[string]Section, names []string) (Section, bool) {
	for _, name := range names {
		if section, ok := sections[name]; ok {
			return section, true
		}
	}

	return Section{}, false
}

// extractSectionsFromAST returns the first level-1 heading and the sections keyed by
// lower-case heading text.
func extractSectionsFromAST(doc ast.Node, content []byte) (string, map[string]Section) {
	sections := make(map[string]Section)

	var (
		title          string
		currentSection *Section
	)

	// Only direct children of the document are section content.
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		heading, ok := node.(*ast.Heading)
		if !ok {
			if currentSection != nil {
				currentSection.Content = append(currentSection.Content, node)
			}

			continue
		}

		if currentSection != nil {
			sections[strings.ToLower(currentSection.HeadingText)] = *currentSection
		}

		headingText := extractTextFromNode(heading, content)

		if heading.Level == 1 && title == "" {
			title = headingText
			currentSection = nil

			continue
		}

		currentSection = &Section{HeadingText: headingText}
	}

	if currentSection != nil {
		sections[strings.ToLower(currentSection.HeadingText)] = *currentSection
	}

	return title, sections
}

// extractSQLFromASTNodes joins all sql code blocks of a section.
func extractSQLFromASTNodes(nodes []ast.Node, content []byte) string {
	var blocks []string

	for _, node := range nodes {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			if strings.EqualFold(strings.TrimSpace(getCodeBlockInfo(n, content)), "sql") {
				blocks = append(blocks, extractCodeBlockContent(n, content))
			}
		case *ast.CodeBlock:
			blocks = append(blocks, extractCodeBlockContent(n, content))
		}
	}

	return strings.Join(blocks, "\n")
}

// parseValueSection reads a column map from a yaml code block or a two-column table.
func parseValueSection(section Section, content []byte) (map[string]string, error) {
	values := make(map[string]string)

	for _, node := range section.Content {
		switch n := node.(type) {
		case *ast.FencedCodeBlock:
			info := strings.ToLower(strings.TrimSpace(getCodeBlockInfo(n, content)))
			if info != "yaml" && info != "yml" {
				continue
			}

			parsed, err := parseYAMLValues(extractCodeBlockContent(n, content))
			if err != nil {
				return nil, err
			}

			for k, v := range parsed {
				values[k] = v
			}
		case *extast.Table:
			parsed, err := parseTableValues(n, content)
			if err != nil {
				return nil, err
			}

			for k, v := range parsed {
				values[k] = v
			}
		}
	}

	return values, nil
}

// parseYAMLValues reads a flat mapping. YAML null becomes the NULL literal.
func parseYAMLValues(yamlContent string) (map[string]string, error) {
	var data map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
	}

	values := make(map[string]string, len(data))

	for key, raw := range data {
		switch v := raw.(type) {
		case nil:
			values[key] = "NULL"
		case map[string]any, []any:
			return nil, fmt.Errorf("%w: value of '%s' must be a scalar", ErrInvalidBlock, key)
		default:
			values[key] = fmt.Sprint(v)
		}
	}

	return values, nil
}

// parseTableValues reads | column | value | rows; cells are taken verbatim.
func parseTableValues(table *extast.Table, content []byte) (map[string]string, error) {
	values := make(map[string]string)

	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*extast.TableRow); !ok {
			continue
		}

		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, extractTextFromNode(cell, content))
		}

		if len(cells) != 2 {
			return nil, fmt.Errorf("%w: table rows need exactly two cells, got %d", ErrInvalidBlock, len(cells))
		}

		values[cells[0]] = cells[1]
	}

	return values, nil
}

func getCodeBlockInfo(codeBlock *ast.FencedCodeBlock, content []byte) string {
	if codeBlock.Info != nil {
		segment := codeBlock.Info.Segment
		return string(content[segment.Start:segment.Stop])
	}

	return ""
}

func extractCodeBlockContent(codeBlock ast.Node, content []byte) string {
	var result strings.Builder

	lines := codeBlock.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		result.Write(line.Value(content))
	}

	return strings.TrimRight(result.String(), "\n")
}

func extractTextFromNode(node ast.Node, content []byte) string {
	var result strings.Builder

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch textNode := n.(type) {
		case *ast.Text:
			result.Write(textNode.Segment.Value(content))
		case *ast.String:
			result.Write(textNode.Value)
		case *ast.AutoLink:
			result.Write(textNode.Label(content))
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}
