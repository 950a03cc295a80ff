package functions

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/cel-go/cel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CorePrefix is the call prefix of the core library.
const CorePrefix = "core"

const defaultDateLayout = "2006-01-02"

var randomSource = rand.New(rand.NewSource(time.Now().UnixNano()))

// Now is the clock used by currentDate.
var Now = time.Now

// CoreLibrary returns the built-in library.
func CoreLibrary() *Library {
	lib := NewLibrary("core", CorePrefix)

	lib.Register("concat", Func(concat))
	lib.Register("substring", Func(substring))
	lib.Register("upperCase", Func(upperCase))
	lib.Register("lowerCase", Func(lowerCase))
	lib.Register("stringLength", Func(stringLength))
	lib.Register("randomUUID", Func(randomUUID))
	lib.Register("randomNumber", Func(randomNumber))
	lib.Register("currentDate", Func(currentDate))
	lib.Register("sum", Func(sum))
	lib.Register("eval", Func(eval))

	return lib
}

func concat(args []string, _ Env) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: concat requires at least one parameter", ErrInvalidFunctionUsage)
	}

	return strings.Join(args, ""), nil
}

// substring(value, begin[, end]) works on characters, not bytes.
func substring(args []string, _ Env) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("%w: substring requires a value and a begin index", ErrInvalidFunctionUsage)
	}

	runes := []rune(args[0])

	begin, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("%w: invalid begin index '%s'", ErrInvalidFunctionUsage, args[1])
	}

	end := len(runes)

	if len(args) > 2 {
		end, err = strconv.Atoi(args[2])
		if err != nil {
			return "", fmt.Errorf("%w: invalid end index '%s'", ErrInvalidFunctionUsage, args[2])
		}
	}

	if begin < 0 || end > len(runes) || begin > end {
		return "", fmt.Errorf("%w: begin %d, end %d, length %d", ErrIndexOutOfRange, begin, end, len(runes))
	}

	return string(runes[begin:end]), nil
}

func upperCase(args []string, _ Env) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: upperCase requires exactly one parameter", ErrInvalidFunctionUsage)
	}

	return cases.Upper(language.Und).String(args[0]), nil
}

func lowerCase(args []string, _ Env) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: lowerCase requires exactly one parameter", ErrInvalidFunctionUsage)
	}

	return cases.Lower(language.Und).String(args[0]), nil
}

func stringLength(args []string, _ Env) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: stringLength requires exactly one parameter", ErrInvalidFunctionUsage)
	}

	return strconv.Itoa(utf8.RuneCountInString(args[0])), nil
}

func randomUUID(_ []string, _ Env) (string, error) {
	return uuid.NewString(), nil
}

// randomNumber(length) returns length digits without a leading zero.
func randomNumber(args []string, _ Env) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: randomNumber requires the number length", ErrInvalidFunctionUsage)
	}

	length, err := strconv.Atoi(args[0])
	if err != nil || length <= 0 {
		return "", fmt.Errorf("%w: invalid number length '%s'", ErrInvalidFunctionUsage, args[0])
	}

	var b strings.Builder

	b.WriteByte(byte('1' + randomSource.Intn(9)))

	for i := 1; i < length; i++ {
		b.WriteByte(byte('0' + randomSource.Intn(10)))
	}

	return b.String(), nil
}

// currentDate([layout]) formats the current time with a Go layout.
func currentDate(args []string, _ Env) (string, error) {
	layout := defaultDateLayout
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}

	return Now().Format(layout), nil
}

func sum(args []string, _ Env) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: sum requires at least one parameter", ErrInvalidFunctionUsage)
	}

	total := decimal.Zero

	for _, arg := range args {
		d, err := decimal.NewFromString(arg)
		if err != nil {
			return "", fmt.Errorf("%w: '%s' is not a number", ErrInvalidFunctionUsage, arg)
		}

		total = total.Add(d)
	}

	return total.String(), nil
}

// eval(expression) evaluates a CEL expression; variables are available as vars.
func eval(args []string, env Env) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: eval requires exactly one expression", ErrInvalidFunctionUsage)
	}

	celEnv, err := cel.NewEnv(
		cel.Variable("vars", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExpressionEvaluation, err)
	}

	ast, issues := celEnv.Compile(args[0])
	if issues.Err() != nil {
		return "", fmt.Errorf("%w: failed to compile expression '%s': %w", ErrExpressionEvaluation, args[0], issues.Err())
	}

	program, err := celEnv.Program(ast)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create program for expression '%s': %w", ErrExpressionEvaluation, args[0], err)
	}

	out, _, err := program.Eval(map[string]any{
		"vars": env.Variables(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to evaluate expression '%s': %w", ErrExpressionEvaluation, args[0], err)
	}

	return fmt.Sprint(out.Value()), nil
}
