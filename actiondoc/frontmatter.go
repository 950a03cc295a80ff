package actiondoc

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

type frontMatter struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	MaxRetries   *int           `yaml:"max_retries"`
	RetryPause   *time.Duration `yaml:"retry_pause"`
	LegacyExport *bool          `yaml:"legacy_export"`
	Statements   []string       `yaml:"statements"`
}

// parseFrontMatter splits the leading --- delimited YAML block from the markdown body.
func parseFrontMatter(content string) (*frontMatter, string, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return &frontMatter{}, content, nil
	}

	endIndex := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			endIndex = i
			break
		}
	}

	if endIndex == -1 {
		return nil, "", fmt.Errorf("%w: missing closing ---", ErrInvalidFrontMatter)
	}

	var fm frontMatter

	frontMatterYAML := strings.Join(lines[1:endIndex], "\n")
	if strings.TrimSpace(frontMatterYAML) != "" {
		if err := yaml.UnmarshalWithOptions([]byte(frontMatterYAML), &fm, yaml.Strict()); err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
		}
	}

	if fm.MaxRetries != nil && *fm.MaxRetries < 0 {
		return nil, "", fmt.Errorf("%w: max_retries must be non-negative", ErrInvalidFrontMatter)
	}

	if fm.RetryPause != nil && *fm.RetryPause < 0 {
		return nil, "", fmt.Errorf("%w: retry_pause must be non-negative", ErrInvalidFrontMatter)
	}

	return &fm, strings.Join(lines[endIndex+1:], "\n"), nil
}
