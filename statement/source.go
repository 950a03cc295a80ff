// Package statement loads the ordered query statements of a check, either from an
// inline list or from a line-oriented resource.
package statement

import (
	"bufio"
	"strings"
)

const (
	// CommentMarker starts a line that is skipped in statement resources.
	CommentMarker = "--"

	queryKeyword     = "select"
	targetSetKeyword = "from"
)

// Source supplies the statements of a check. A non-empty Statements list takes
// priority over Resource.
type Source struct {
	Statements []string
	Resource   Resource
}

// Load returns the statements in source order. The resource is only read when no
// inline statements are given.
func (s *Source) Load() ([]string, error) {
	if len(s.Statements) > 0 {
		statements := make([]string, 0, len(s.Statements))

		for _, stmt := range s.Statements {
			stmt = strings.TrimSpace(stmt)
			if err := Validate(stmt); err != nil {
				return nil, err
			}

			statements = append(statements, stmt)
		}

		return statements, nil
	}

	if s.Resource == nil {
		return nil, ErrNoStatements
	}

	return readResource(s.Resource)
}

func readResource(resource Resource) ([]string, error) {
	reader, err := resource.Open()
	if err != nil {
		return nil, &ResourceError{Name: resource.Name(), Err: err}
	}
	defer reader.Close()

	var statements []string

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentMarker) {
			continue
		}

		if err := Validate(line); err != nil {
			return nil, err
		}

		statements = append(statements, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, &ResourceError{Name: resource.Name(), Err: err}
	}

	return statements, nil
}

// Validate performs the cheap shape check on a statement: it must start with SELECT
// and contain FROM after the first token. The FROM position must exceed
// len("select")+1 so a "from" inside the first token does not count.
func Validate(stmt string) error {
	lower := strings.ToLower(stmt)

	if !strings.HasPrefix(lower, queryKeyword) {
		return &MalformedStatementError{Statement: stmt, Keyword: "SELECT"}
	}

	if strings.Index(lower, targetSetKeyword) <= len(queryKeyword)+1 {
		return &MalformedStatementError{Statement: stmt, Keyword: "FROM"}
	}

	return nil
}
