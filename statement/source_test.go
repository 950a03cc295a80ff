package statement

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

type failingResource struct {
	opened bool
}

func (f *failingResource) Name() string { return "broken.sql" }

func (f *failingResource) Open() (io.ReadCloser, error) {
	f.opened = true
	return nil, os.ErrNotExist
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func (brokenReader) Close() error { return nil }

type brokenStreamResource struct{}

func (brokenStreamResource) Name() string { return "stream.sql" }

func (brokenStreamResource) Open() (io.ReadCloser, error) { return brokenReader{}, nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		stmt    string
		keyword string
	}{
		{name: "simple select", stmt: "select name from users"},
		{name: "upper case", stmt: "SELECT NAME FROM USERS WHERE ID = 1"},
		{name: "mixed case", stmt: "Select count(*) As cnt From orders"},
		{name: "delete", stmt: "delete from users", keyword: "SELECT"},
		{name: "insert", stmt: "INSERT INTO users VALUES (1)", keyword: "SELECT"},
		{name: "no from", stmt: "select 1", keyword: "FROM"},
		{name: "from glued to select", stmt: "selectfrom users", keyword: "FROM"},
		{name: "from right after select", stmt: "select from users", keyword: "FROM"},
		{name: "from inside a later token", stmt: "select c.fromage from cheese c"},
		{name: "column starting with from", stmt: "select fromage from cheese", keyword: "FROM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.stmt)
			if tt.keyword == "" {
				assert.NoError(t, err)
				return
			}

			var malformed *MalformedStatementError
			assert.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.keyword, malformed.Keyword)
			assert.Equal(t, tt.stmt, malformed.Statement)
			assert.IsError(t, err, ErrMalformedStatement)
			assert.Contains(t, err.Error(), tt.stmt)
		})
	}
}

func TestSource_InlineStatementsTakePriority(t *testing.T) {
	resource := &failingResource{}
	source := &Source{
		Statements: []string{"select a from t1", "select b from t2"},
		Resource:   resource,
	}

	statements, err := source.Load()
	assert.NoError(t, err)
	assert.Equal(t, []string{"select a from t1", "select b from t2"}, statements)
	assert.False(t, resource.opened)
}

func TestSource_InlineStatementsAreShapeChecked(t *testing.T) {
	source := &Source{Statements: []string{"select a from t1", "delete from users"}}

	_, err := source.Load()
	assert.IsError(t, err, ErrMalformedStatement)
}

func TestSource_InlineStatementsAreTrimmed(t *testing.T) {
	source := &Source{Statements: []string{" select a from t1", "\tselect b from t2 \n"}}

	statements, err := source.Load()
	assert.NoError(t, err)
	assert.Equal(t, []string{"select a from t1", "select b from t2"}, statements)
}

func TestSource_ReadsResource(t *testing.T) {
	source := &Source{Resource: TextResource{Label: "inline", Text: `
-- the stored user
select name from users where id = 1
   SELECT email FROM users WHERE id = 1

--select nothing
select count(*) as cnt from orders
`}}

	statements, err := source.Load()
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"select name from users where id = 1",
		"SELECT email FROM users WHERE id = 1",
		"select count(*) as cnt from orders",
	}, statements)
}

func TestSource_ReadsFileResource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.sql")
	err := os.WriteFile(path, []byte("-- header\nselect id from users\n"), 0o600)
	assert.NoError(t, err)

	statements, err := (&Source{Resource: FileResource(path)}).Load()
	assert.NoError(t, err)
	assert.Equal(t, []string{"select id from users"}, statements)
}

func TestSource_ResourceMalformedStatement(t *testing.T) {
	source := &Source{Resource: TextResource{Label: "bad", Text: "select a from t\ndelete from users\n"}}

	_, err := source.Load()

	var malformed *MalformedStatementError
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, "delete from users", malformed.Statement)
}

func TestSource_ResourceAccessErrors(t *testing.T) {
	_, err := (&Source{Resource: &failingResource{}}).Load()
	assert.IsError(t, err, ErrResourceAccess)
	assert.IsError(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "broken.sql")

	_, err = (&Source{Resource: brokenStreamResource{}}).Load()
	assert.IsError(t, err, ErrResourceAccess)
	assert.Contains(t, err.Error(), "disk gone")

	_, err = (&Source{Resource: FileResource(filepath.Join(t.TempDir(), "missing.sql"))}).Load()
	assert.IsError(t, err, ErrResourceAccess)
}

func TestSource_NothingToLoad(t *testing.T) {
	_, err := (&Source{}).Load()
	assert.IsError(t, err, ErrNoStatements)
}
