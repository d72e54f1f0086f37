package eval

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvaluator(t *testing.T) *GoEvaluator {
	t.Helper()
	e, err := NewGoEvaluator()
	require.NoError(t, err)
	return e
}

func TestEvaluateStatement(t *testing.T) {
	e := newEvaluator(t)

	out, err := e.EvaluateStatement(context.Background(), "1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "3", out)
}

func TestEvaluateStatementString(t *testing.T) {
	e := newEvaluator(t)

	out, err := e.EvaluateStatement(context.Background(), `"hello"`)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestBindingsPersistAcrossBlocks(t *testing.T) {
	e := newEvaluator(t)
	ctx := context.Background()

	_, err := e.EvaluateStatement(ctx, "x := 10")
	require.NoError(t, err)

	out, err := e.EvaluateStatement(ctx, "x * 2")
	require.NoError(t, err)
	assert.Equal(t, "20", out)
}

func TestEvaluateExpressionAppliesPayload(t *testing.T) {
	e := newEvaluator(t)

	out, err := e.EvaluateExpression(context.Background(),
		`func(s string) string { return strings.ToUpper(s) }`,
		Input{Line: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", out)
}

func TestEvaluateExpressionLines(t *testing.T) {
	e := newEvaluator(t)

	out, err := e.EvaluateExpression(context.Background(),
		`func(in []string) string { return strings.Join(in, ",") }`,
		Input{Lines: []string{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", out)
}

func TestSourceSentinelEvaluatesPayload(t *testing.T) {
	e := newEvaluator(t)

	out, err := e.EvaluateExpression(context.Background(), "@", Input{Line: "6 * 7"})
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestEvaluateError(t *testing.T) {
	e := newEvaluator(t)

	_, err := e.EvaluateStatement(context.Background(), "not valid go (")
	assert.Error(t, err)
}

func TestEvaluateTimeout(t *testing.T) {
	e := newEvaluator(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.EvaluateStatement(ctx, "for {}")
	assert.Error(t, err)
}
