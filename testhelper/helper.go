// Package testhelper collects small helpers shared by package tests.
package testhelper

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shibukawa/sqlverify/dbquery"
)

var (
	whiteSpaces = regexp.MustCompile(`(\s+)`)
	leadingTabs = regexp.MustCompile(`^(\t+)`)
)

func replaceTab(match string) string {
	return strings.Repeat("    ", strings.Count(match, "\t"))
}

// TrimIndent removes the indentation of the first content line from every line of a
// raw string literal that starts with a newline. Remaining leading tabs become spaces.
func TrimIndent(t *testing.T, src string) string {
	t.Helper()

	lines := strings.Split(src, "\n")

	var indent string
	if len(lines) > 1 {
		indent = whiteSpaces.FindString(lines[1])
	}

	for i, line := range lines {
		line = strings.TrimPrefix(line, indent)
		lines[i] = leadingTabs.ReplaceAllStringFunc(line, replaceTab)
	}

	return strings.Join(lines[1:], "\n")
}

// WriteFile writes content below dir, creating parent directories, and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}

	return path
}

// OpenSQLite opens a file backed SQLite database in a temporary directory and runs
// the setup statements. The database is closed when the test ends.
func OpenSQLite(t *testing.T, setup ...string) *sql.DB {
	t.Helper()

	db, err := dbquery.Open(context.Background(), "sqlite3", filepath.Join(t.TempDir(), "test.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to run setup statement %q: %v", stmt, err)
		}
	}

	return db
}
