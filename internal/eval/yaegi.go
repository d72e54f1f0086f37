package eval

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// SourceSentinel makes a code block evaluate its piped payload as source
// instead of binding it as data: `cat gen.go |> (@)`.
const SourceSentinel = "@"

// GoEvaluator interprets code blocks with yaegi. A single interpreter lives
// for the whole session so bindings made in one block are visible to later
// ones.
type GoEvaluator struct {
	mu     sync.Mutex
	interp *interp.Interpreter
}

func NewGoEvaluator() (*GoEvaluator, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	return &GoEvaluator{interp: i}, nil
}

func (e *GoEvaluator) EvaluateStatement(ctx context.Context, source string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.interp.EvalWithContext(ctx, source)
	if err != nil {
		return "", err
	}
	return formatValue(v), nil
}

func (e *GoEvaluator) EvaluateExpression(ctx context.Context, source string, piped Input) (string, error) {
	if strings.TrimSpace(source) == SourceSentinel {
		return e.EvaluateStatement(ctx, payloadSource(piped))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Bind the payload to `in`, then apply the block to it. The block must
	// be a function taking the payload's type.
	var program strings.Builder
	program.WriteString("in := ")
	program.WriteString(payloadLiteral(piped))
	program.WriteString("\n(")
	program.WriteString(source)
	program.WriteString(")(in)")

	v, err := e.interp.EvalWithContext(ctx, program.String())
	if err != nil {
		return "", err
	}
	return formatValue(v), nil
}

func payloadSource(piped Input) string {
	if piped.Lines != nil {
		return strings.Join(piped.Lines, "\n")
	}
	return piped.Line
}

func payloadLiteral(piped Input) string {
	if piped.Lines != nil {
		quoted := make([]string, len(piped.Lines))
		for i, line := range piped.Lines {
			quoted[i] = strconv.Quote(line)
		}
		return "[]string{" + strings.Join(quoted, ", ") + "}"
	}
	return strconv.Quote(piped.Line)
}

func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if strs, ok := v.Interface().([]string); ok {
			return strings.Join(strs, "\n")
		}
	}
	return fmt.Sprintf("%v", v.Interface())
}
