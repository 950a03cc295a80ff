package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/sqlverify"
	"github.com/shibukawa/sqlverify/dbquery"
	"github.com/shibukawa/sqlverify/testhelper"
)

const (
	seedUserDoc = "# Seeded user\n\n## Statements\n\n```sql\nselect id, name from users where name = '${tenantUser}'\n```\n\n## Expected\n\n| column | value |\n|--------|-------|\n| NAME | ${tenantUser} |\n\n## Extract\n\n```yaml\nID: userId\n```\n"
	userIDDoc   = "# User id\n\n## Statements\n\n```sql\nselect ${userId} as id, ${ID} as legacy from users\n```\n\n## Expected\n\n```yaml\nID: 1\nLEGACY: 1\n```\n"
	wrongDoc    = "# Wrong\n\n## Statements\n\n```sql\nselect name from users\n```\n\n## Expected\n\n```yaml\nNAME: nobody\n```\n"
)

func TestMain(m *testing.M) {
	color.NoColor = true

	m.Run()
}

// setupProject creates a SQLite database, a config file and a checks directory.
func setupProject(t *testing.T, docs map[string]string) (configPath, checksDir string) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := dbquery.Open(context.Background(), "sqlite", dbPath, time.Second)
	assert.NoError(t, err)

	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)",
		"INSERT INTO users VALUES (1, 'alice')",
	} {
		_, err := db.Exec(stmt)
		assert.NoError(t, err)
	}

	assert.NoError(t, db.Close())

	checksDir = filepath.Join(dir, "checks")
	for name, content := range docs {
		testhelper.WriteFile(t, checksDir, name, content)
	}

	configPath = testhelper.WriteFile(t, dir, "sqlverify.yaml", fmt.Sprintf(`input_dir: %s
databases:
  development:
    driver: sqlite
    connection: %s
defaults:
  retry_pause: 1ms
  query_timeout: 5s
variables:
  tenantUser: alice
`, checksDir, dbPath))

	return configPath, checksDir
}

func newTestContext(configPath string, out *bytes.Buffer) *Context {
	return &Context{
		Config: configPath,
		Logger: zap.NewNop(),
		Stdout: out,
	}
}

func TestRunCmd(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		configPath, _ := setupProject(t, map[string]string{
			"01_seed.md": seedUserDoc,
			"02_id.md":   userIDDoc,
		})

		var out bytes.Buffer

		err := (&RunCmd{Environment: "development"}).Run(newTestContext(configPath, &out))
		assert.NoError(t, err)
		assert.Contains(t, out.String(), "PASS Seeded user")
		assert.Contains(t, out.String(), "PASS User id")
		assert.Contains(t, out.String(), "Checks: 2 total, 2 passed, 0 failed")
	})

	t.Run("failed check", func(t *testing.T) {
		configPath, checksDir := setupProject(t, map[string]string{
			"01_wrong.md": wrongDoc,
		})

		var out bytes.Buffer

		err := (&RunCmd{Paths: []string{checksDir}, Environment: "development"}).Run(newTestContext(configPath, &out))
		assert.IsError(t, err, sqlverify.ErrChecksFailed)
		assert.Contains(t, out.String(), "FAIL Wrong")
		assert.Contains(t, out.String(), "[validation]")
		assert.Contains(t, out.String(), "+ expected: nobody")
		assert.Contains(t, out.String(), "- actual:   alice")
	})

	t.Run("run pattern", func(t *testing.T) {
		configPath, _ := setupProject(t, map[string]string{
			"01_seed.md":  seedUserDoc,
			"02_wrong.md": wrongDoc,
		})

		var out bytes.Buffer

		err := (&RunCmd{Environment: "development", RunPattern: "01"}).Run(newTestContext(configPath, &out))
		assert.NoError(t, err)
		assert.Contains(t, out.String(), "Checks: 1 total, 1 passed, 0 failed")
	})

	t.Run("quiet", func(t *testing.T) {
		configPath, _ := setupProject(t, map[string]string{"01_seed.md": seedUserDoc})

		var out bytes.Buffer

		ctx := newTestContext(configPath, &out)
		ctx.Quiet = true

		err := (&RunCmd{Environment: "development"}).Run(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "", out.String())
	})

	t.Run("unknown environment", func(t *testing.T) {
		configPath, _ := setupProject(t, map[string]string{"01_seed.md": seedUserDoc})

		var out bytes.Buffer

		err := (&RunCmd{Environment: "production"}).Run(newTestContext(configPath, &out))
		assert.IsError(t, err, sqlverify.ErrEnvironmentNotFound)
	})
}

func TestRunCmd_ResolveDatabase(t *testing.T) {
	config := &sqlverify.Config{
		Databases: map[string]sqlverify.Database{
			"development": {Driver: "sqlite", Connection: "dev.db"},
		},
	}

	db, err := (&RunCmd{Environment: "development"}).resolveDatabase(config)
	assert.NoError(t, err)
	assert.Equal(t, sqlverify.Database{Driver: "sqlite", Connection: "dev.db"}, db)

	db, err = (&RunCmd{DB: "postgres://localhost/app", Type: "postgres"}).resolveDatabase(config)
	assert.NoError(t, err)
	assert.Equal(t, sqlverify.Database{Driver: "postgres", Connection: "postgres://localhost/app"}, db)

	_, err = (&RunCmd{Type: "postgres"}).resolveDatabase(config)
	assert.IsError(t, err, ErrEmptyConnectionString)

	_, err = (&RunCmd{DB: "app.db"}).resolveDatabase(config)
	assert.IsError(t, err, ErrEmptyDatabaseType)
}

func TestCheckCmd(t *testing.T) {
	configPath, checksDir := setupProject(t, map[string]string{
		"01_seed.md":   seedUserDoc,
		"02_broken.md": "# Broken\n\n## Statements\n\n```sql\nupdate users set name = 'x'\n```\n",
	})

	var out bytes.Buffer

	err := (&CheckCmd{Paths: []string{checksDir}}).Run(newTestContext(configPath, &out))
	assert.IsError(t, err, sqlverify.ErrChecksFailed)
	assert.Contains(t, out.String(), "PASS Seeded user")
	assert.Contains(t, out.String(), "FAIL Broken")
	assert.Contains(t, out.String(), "Checks: 2 total, 1 passed, 1 failed")
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer

	assert.NoError(t, (&VersionCmd{}).Run(&Context{Stdout: &out}))
	assert.Equal(t, "sqlverify v0.1.0\n", out.String())
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(true, false)
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	logger, err = newLogger(false, true)
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.WarnLevel))
	assert.True(t, logger.Core().Enabled(zap.ErrorLevel))
}
