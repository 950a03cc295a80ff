package statement

import (
	"io"
	"os"
	"strings"
)

// Resource is a line-oriented text source holding statements.
type Resource interface {
	// Name identifies the resource in error messages.
	Name() string
	Open() (io.ReadCloser, error)
}

// FileResource reads statements from a file on disk.
type FileResource string

func (f FileResource) Name() string {
	return string(f)
}

func (f FileResource) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// TextResource serves statements from an in-memory text, e.g. a code block of a check document.
type TextResource struct {
	Label string
	Text  string
}

func (r TextResource) Name() string {
	return r.Label
}

func (r TextResource) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(r.Text)), nil
}
