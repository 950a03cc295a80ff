// Package functions implements the function calls that can be embedded in
// statements and expected values, e.g. core:concat('a', ${name}).
package functions

import (
	"fmt"
	"regexp"
	"strings"
)

// Env is the evaluation environment handed to functions.
type Env interface {
	// Variables returns a snapshot of the current variables.
	Variables() map[string]string
	// ReplaceDynamicContent resolves variables and nested calls inside an argument.
	ReplaceDynamicContent(text string) (string, error)
}

// Function is a single callable function.
type Function interface {
	Execute(args []string, env Env) (string, error)
}

// Func adapts a plain function to the Function interface.
type Func func(args []string, env Env) (string, error)

// Execute calls f(args, env).
func (f Func) Execute(args []string, env Env) (string, error) {
	return f(args, env)
}

// Library groups functions under a call prefix.
type Library struct {
	Name      string
	Prefix    string
	functions map[string]Function
}

// NewLibrary creates an empty library; prefix is used as "prefix:name(...)".
func NewLibrary(name, prefix string) *Library {
	return &Library{
		Name:      name,
		Prefix:    prefix,
		functions: make(map[string]Function),
	}
}

// Register adds or replaces a function.
func (l *Library) Register(name string, fn Function) {
	l.functions[name] = fn
}

// Lookup returns the named function.
func (l *Library) Lookup(name string) (Function, bool) {
	fn, ok := l.functions[name]
	return fn, ok
}

// Registry holds all libraries known to a variable context.
type Registry struct {
	libraries map[string]*Library
}

// NewRegistry creates a registry with the given libraries.
func NewRegistry(libraries ...*Library) *Registry {
	r := &Registry{libraries: make(map[string]*Library, len(libraries))}
	for _, lib := range libraries {
		r.Add(lib)
	}

	return r
}

// DefaultRegistry returns a registry holding the core library.
func DefaultRegistry() *Registry {
	return NewRegistry(CoreLibrary())
}

// Add registers a library, replacing one with the same prefix.
func (r *Registry) Add(lib *Library) {
	r.libraries[lib.Prefix] = lib
}

// callStart matches "prefix:name(" at the start of a function call.
var callStart = regexp.MustCompile(`([A-Za-z][\w-]*):([A-Za-z]\w*)\(`)

type call struct {
	prefix string
	name   string
	args   string
}

// IsFunction reports whether the whole token is a call of a registered function.
func (r *Registry) IsFunction(token string) bool {
	c, ok := parseCall(strings.TrimSpace(token))
	if !ok {
		return false
	}

	_, err := r.lookup(c.prefix, c.name)

	return err == nil
}

// Evaluate runs the function call held by token.
func (r *Registry) Evaluate(token string, env Env) (string, error) {
	c, ok := parseCall(strings.TrimSpace(token))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidFunctionCall, token)
	}

	return r.execute(c, env)
}

// ReplaceFunctionsInString evaluates every registered function call embedded in text.
// Calls with unknown prefixes are left untouched.
func (r *Registry) ReplaceFunctionsInString(text string, env Env) (string, error) {
	var result strings.Builder

	pos := 0

	for pos < len(text) {
		loc := callStart.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}

		start := pos + loc[0]
		prefix := text[pos+loc[2] : pos+loc[3]]
		name := text[pos+loc[4] : pos+loc[5]]
		open := pos + loc[1] - 1

		if _, known := r.libraries[prefix]; !known {
			result.WriteString(text[pos : pos+loc[1]])
			pos += loc[1]

			continue
		}

		closing := matchingParen(text, open)
		if closing < 0 {
			return "", fmt.Errorf("%w: unbalanced parentheses in %s", ErrInvalidFunctionCall, text[start:])
		}

		value, err := r.execute(call{
			prefix: prefix,
			name:   name,
			args:   text[open+1 : closing],
		}, env)
		if err != nil {
			return "", err
		}

		result.WriteString(text[pos:start])
		result.WriteString(value)
		pos = closing + 1
	}

	result.WriteString(text[pos:])

	return result.String(), nil
}

func (r *Registry) lookup(prefix, name string) (Function, error) {
	lib, ok := r.libraries[prefix]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLibrary, prefix)
	}

	fn, ok := lib.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownFunction, prefix, name)
	}

	return fn, nil
}

func (r *Registry) execute(c call, env Env) (string, error) {
	fn, err := r.lookup(c.prefix, c.name)
	if err != nil {
		return "", err
	}

	rawArgs, err := splitArgs(c.args)
	if err != nil {
		return "", err
	}

	args := make([]string, len(rawArgs))

	for i, raw := range rawArgs {
		resolved, err := env.ReplaceDynamicContent(unquote(raw))
		if err != nil {
			return "", fmt.Errorf("failed to resolve argument %d of %s:%s: %w", i+1, c.prefix, c.name, err)
		}

		args[i] = resolved
	}

	value, err := fn.Execute(args, env)
	if err != nil {
		return "", fmt.Errorf("%s:%s: %w", c.prefix, c.name, err)
	}

	return value, nil
}

// parseCall parses a token that consists of exactly one function call.
func parseCall(token string) (call, bool) {
	loc := callStart.FindStringSubmatchIndex(token)
	if loc == nil || loc[0] != 0 {
		return call{}, false
	}

	open := loc[1] - 1

	closing := matchingParen(token, open)
	if closing != len(token)-1 {
		return call{}, false
	}

	return call{
		prefix: token[loc[2]:loc[3]],
		name:   token[loc[4]:loc[5]],
		args:   token[open+1 : closing],
	}, true
}

// matchingParen returns the index of the parenthesis closing the one at open,
// ignoring parentheses inside single-quoted strings, or -1.
func matchingParen(text string, open int) int {
	depth := 0
	quoted := false

	for i := open; i < len(text); i++ {
		switch text[i] {
		case '\'':
			quoted = !quoted
		case '(':
			if !quoted {
				depth++
			}
		case ')':
			if !quoted {
				depth--
				if depth == 0 {
					return i
				}
			}
		}
	}

	return -1
}

// splitArgs splits a comma separated argument list at top level.
func splitArgs(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var (
		args    []string
		current strings.Builder
		depth   int
		quoted  bool
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]

		switch {
		case ch == '\'':
			quoted = !quoted
		case quoted:
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()

			continue
		}

		current.WriteByte(ch)
	}

	if quoted || depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced arguments '%s'", ErrInvalidFunctionCall, text)
	}

	args = append(args, strings.TrimSpace(current.String()))

	return args, nil
}

func unquote(arg string) string {
	if len(arg) >= 2 && arg[0] == '\'' && arg[len(arg)-1] == '\'' {
		return arg[1 : len(arg)-1]
	}

	return arg
}
