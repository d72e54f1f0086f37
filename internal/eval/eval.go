// Package eval defines the code-block evaluator the pipeline executor
// delegates to. Code stages carry Go source; the evaluator runs it and hands
// back a printable value.
package eval

import "context"

// Input is the piped payload bound to a code block. When Lines is non-nil
// the payload is bound as a []string, otherwise as the single string Line.
type Input struct {
	Line  string
	Lines []string
}

// Evaluator runs the source of a code stage.
//
// EvaluateStatement runs a standalone block (the head of a pipeline, or the
// only stage). EvaluateExpression treats the block as a function and applies
// it to the piped payload.
type Evaluator interface {
	EvaluateStatement(ctx context.Context, source string) (string, error)
	EvaluateExpression(ctx context.Context, source string, piped Input) (string, error)
}
