package functions

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// stubEnv resolves ${name} only; nested calls go back through the registry.
type stubEnv struct {
	vars     map[string]string
	registry *Registry
}

func (e *stubEnv) Variables() map[string]string { return e.vars }

func (e *stubEnv) ReplaceDynamicContent(text string) (string, error) {
	for name, value := range e.vars {
		text = strings.ReplaceAll(text, "${"+name+"}", value)
	}

	if strings.Contains(text, "${") {
		return "", errors.New("unknown variable in " + text)
	}

	return e.registry.ReplaceFunctionsInString(text, e)
}

func newStubEnv(vars map[string]string) *stubEnv {
	return &stubEnv{vars: vars, registry: DefaultRegistry()}
}

func TestRegistry_IsFunction(t *testing.T) {
	registry := DefaultRegistry()

	tests := []struct {
		token    string
		expected bool
	}{
		{"core:concat('a', 'b')", true},
		{"  core:randomUUID()  ", true},
		{"core:upperCase(core:lowerCase('X'))", true},
		{"core:unknown('a')", false},
		{"other:concat('a')", false},
		{"core:concat('a') core:concat('b')", false},
		{"core:concat('a'", false},
		{"Alice", false},
		{"${name}", false},
		{"12:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.expected, registry.IsFunction(tt.token))
		})
	}
}

func TestRegistry_Evaluate(t *testing.T) {
	env := newStubEnv(map[string]string{"name": "alice", "greeting": "Hello"})

	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{name: "concat", token: "core:concat('Hello', ', ', 'World')", expected: "Hello, World"},
		{name: "variables in args", token: "core:concat(${greeting}, ' ', ${name})", expected: "Hello alice"},
		{name: "variables in quoted args", token: "core:concat('${greeting}!')", expected: "Hello!"},
		{name: "nested call", token: "core:upperCase(core:concat('a', ${name}))", expected: "AALICE"},
		{name: "comma inside quotes", token: "core:concat('a,b', 'c')", expected: "a,bc"},
		{name: "parenthesis inside quotes", token: "core:concat('(x', ')')", expected: "(x)"},
		{name: "length", token: "core:stringLength('Grüße')", expected: "5"},
		{name: "lower", token: "core:lowerCase('MiXeD')", expected: "mixed"},
		{name: "sum", token: "core:sum('0.1', '0.2', 3)", expected: "3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := env.registry.Evaluate(tt.token, env)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestRegistry_EvaluateErrors(t *testing.T) {
	env := newStubEnv(map[string]string{})

	_, err := env.registry.Evaluate("core:missing()", env)
	assert.IsError(t, err, ErrUnknownFunction)

	_, err = env.registry.Evaluate("nope:concat('a')", env)
	assert.IsError(t, err, ErrUnknownLibrary)

	_, err = env.registry.Evaluate("not a call", env)
	assert.IsError(t, err, ErrInvalidFunctionCall)

	_, err = env.registry.Evaluate("core:concat('a)", env)
	assert.IsError(t, err, ErrInvalidFunctionCall)

	_, err = env.registry.Evaluate("core:concat(${unknown})", env)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1")
}

func TestRegistry_ReplaceFunctionsInString(t *testing.T) {
	env := newStubEnv(map[string]string{"id": "42"})

	out, err := env.registry.ReplaceFunctionsInString(
		"select name from users where code = 'core:upperCase('abc')' and id = core:sum(${id}, 1)", env)
	assert.NoError(t, err)
	assert.Equal(t, "select name from users where code = 'ABC' and id = 43", out)

	out, err = env.registry.ReplaceFunctionsInString("select x::text, pg:now() from t", env)
	assert.NoError(t, err)
	assert.Equal(t, "select x::text, pg:now() from t", out)

	_, err = env.registry.ReplaceFunctionsInString("select core:concat('a' from t", env)
	assert.IsError(t, err, ErrInvalidFunctionCall)
}

func TestRegistry_CustomLibrary(t *testing.T) {
	lib := NewLibrary("custom", "my")
	lib.Register("twice", Func(func(args []string, _ Env) (string, error) {
		return args[0] + args[0], nil
	}))

	registry := NewRegistry(CoreLibrary(), lib)
	env := &stubEnv{vars: map[string]string{}, registry: registry}

	assert.True(t, registry.IsFunction("my:twice('ab')"))

	value, err := registry.Evaluate("my:twice(core:upperCase('ab'))", env)
	assert.NoError(t, err)
	assert.Equal(t, "ABAB", value)
}

func TestSubstring(t *testing.T) {
	value, err := substring([]string{"Hallo,TestFramework", "6"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "TestFramework", value)

	value, err = substring([]string{"This is a test", "0"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "This is a test", value)

	value, err = substring([]string{"Hallo,TestFramework", "6", "10"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "Test", value)

	value, err = substring([]string{"This is a test", "0", "4"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "This", value)

	_, err = substring([]string{"Test", "-1"}, nil)
	assert.IsError(t, err, ErrIndexOutOfRange)

	_, err = substring([]string{"Test", "1", "10"}, nil)
	assert.IsError(t, err, ErrIndexOutOfRange)

	_, err = substring([]string{"Test", "x"}, nil)
	assert.IsError(t, err, ErrInvalidFunctionUsage)

	_, err = substring(nil, nil)
	assert.IsError(t, err, ErrInvalidFunctionUsage)
}

func TestRandomFunctions(t *testing.T) {
	id, err := randomUUID(nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 36, len(id))

	number, err := randomNumber([]string{"8"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 8, len(number))
	assert.NotEqual(t, byte('0'), number[0])

	_, err = randomNumber([]string{"0"}, nil)
	assert.IsError(t, err, ErrInvalidFunctionUsage)
}

func TestCurrentDate(t *testing.T) {
	prev := Now
	Now = func() time.Time { return time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC) }

	t.Cleanup(func() { Now = prev })

	value, err := currentDate(nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29", value)

	value, err = currentDate([]string{"02.01.2006 15:04"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, "29.02.2024 13:45", value)
}

func TestEval(t *testing.T) {
	env := newStubEnv(map[string]string{"tenant": "acme", "count": "3"})

	value, err := env.registry.Evaluate(`core:eval('vars.tenant + "-" + vars.count')`, env)
	assert.NoError(t, err)
	assert.Equal(t, "acme-3", value)

	value, err = env.registry.Evaluate(`core:eval('size(vars.tenant) > 3')`, env)
	assert.NoError(t, err)
	assert.Equal(t, "true", value)

	_, err = env.registry.Evaluate(`core:eval('vars.tenant +')`, env)
	assert.IsError(t, err, ErrExpressionEvaluation)
}
