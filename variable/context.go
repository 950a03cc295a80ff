// Package variable holds the test variables shared between checks and resolves
// ${name} references and function calls against them.
package variable

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"

	"github.com/shibukawa/sqlverify/functions"
)

const (
	// Prefix starts a variable reference.
	Prefix = "${"
	// Suffix ends a variable reference.
	Suffix = "}"
)

var (
	ErrUnknownVariable  = errors.New("unknown variable")
	ErrInvalidReference = errors.New("invalid variable reference")
)

var referencePattern = regexp.MustCompile(`\$\{([^${}]*)\}`)

// Context stores variables by name. It is safe for concurrent use.
type Context struct {
	mu        sync.RWMutex
	vars      map[string]string
	functions *functions.Registry
}

// NewContext creates an empty context. A nil registry falls back to the core library.
func NewContext(registry *functions.Registry) *Context {
	if registry == nil {
		registry = functions.DefaultRegistry()
	}

	return &Context{
		vars:      make(map[string]string),
		functions: registry,
	}
}

// SetVariable stores value under name. A name written as ${name} is stored as name.
func (c *Context) SetVariable(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vars[stripMarkers(name)] = value
}

// SetVariables stores every entry of values.
func (c *Context) SetVariables(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, value := range values {
		c.vars[stripMarkers(name)] = value
	}
}

// IsVariable reports whether token is a single ${name} reference.
func (c *Context) IsVariable(token string) bool {
	token = strings.TrimSpace(token)

	return len(token) > len(Prefix)+len(Suffix) &&
		strings.HasPrefix(token, Prefix) &&
		strings.HasSuffix(token, Suffix) &&
		!strings.ContainsAny(token[len(Prefix):len(token)-len(Suffix)], "${}")
}

// GetVariable resolves a ${name} reference or a bare name.
func (c *Context) GetVariable(token string) (string, error) {
	name := stripMarkers(strings.TrimSpace(token))
	if name == "" {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidReference, token)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.vars[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}

	return value, nil
}

// Variables returns a copy of all variables.
func (c *Context) Variables() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.vars)
}

// IsFunction reports whether token is a call of a registered function.
func (c *Context) IsFunction(token string) bool {
	return c.functions.IsFunction(token)
}

// EvaluateFunction runs the function call held by token.
func (c *Context) EvaluateFunction(token string) (string, error) {
	return c.functions.Evaluate(token, c)
}

// ReplaceDynamicContent replaces ${name} references first and then evaluates the
// embedded function calls.
func (c *Context) ReplaceDynamicContent(text string) (string, error) {
	var unknown []string

	replaced := referencePattern.ReplaceAllStringFunc(text, func(ref string) string {
		value, err := c.GetVariable(ref)
		if err != nil {
			unknown = append(unknown, ref)
			return ref
		}

		return value
	})

	if len(unknown) > 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariable, strings.Join(unknown, ", "))
	}

	return c.functions.ReplaceFunctionsInString(replaced, c)
}

func stripMarkers(name string) string {
	if strings.HasPrefix(name, Prefix) && strings.HasSuffix(name, Suffix) {
		return name[len(Prefix) : len(name)-len(Suffix)]
	}

	return name
}
