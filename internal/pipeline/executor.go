// Package pipeline executes classified lines: it folds the stage sequence
// left to right, threading each stage's output into the next and stopping
// the fold at the first failure.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tansholt/gosh/internal/builtin"
	"github.com/tansholt/gosh/internal/eval"
	"github.com/tansholt/gosh/internal/parser"
)

// Result is what one submitted line produced. Output is the text the shell
// still has to print; it is empty when the last stage already streamed to
// the terminal.
type Result struct {
	Output   string
	Failed   bool
	ExitCode int
}

type Executor struct {
	registry *builtin.Registry
	eval     eval.Evaluator
	logger   *zap.Logger

	// Terminal writers for the last stage of a pipeline. Overridable in
	// tests.
	Stdout io.Writer
	Stderr io.Writer
}

func NewExecutor(registry *builtin.Registry, evaluator eval.Evaluator, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		registry: registry,
		eval:     evaluator,
		logger:   logger,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Execute runs one submitted buffer. Linebreaks split the buffer into
// pipelines that run in order; the results are concatenated.
func (e *Executor) Execute(ctx context.Context, s *builtin.Session, line string) Result {
	stages := parser.ClassifyLine(line)
	e.logger.Debug("executing line", zap.String("line", line), zap.Int("stages", len(stages)))

	var texts []string
	result := Result{}

	start := 0
	for i := 0; i <= len(stages); i++ {
		if i < len(stages) && stages[i].Kind() != parser.KindLinebreak {
			continue
		}
		segment := stages[start:i]
		start = i + 1
		if len(segment) == 0 {
			continue
		}

		outcome, exitCode := e.runPipeline(ctx, s, segment)
		if outcome.Text != "" {
			texts = append(texts, outcome.Text)
		}
		// A failure anywhere in the buffer marks the whole result failed; a
		// later succeeding segment must not wash it out.
		result.Failed = result.Failed || outcome.Failed
		if outcome.Failed || !result.Failed {
			result.ExitCode = exitCode
		}
		if s.ExitRequested {
			break
		}
	}

	result.Output = strings.Join(texts, "\n")
	return result
}

// runPipeline folds one linebreak-free stage sequence.
func (e *Executor) runPipeline(ctx context.Context, s *builtin.Session, stages []parser.Stage) (Outcome, int) {
	payload := Ok("")
	hasPayload := false
	exitCode := 0

	last := lastEffective(stages)

	for i, stage := range stages {
		if payload.Failed {
			break
		}

		switch st := stage.(type) {
		case parser.Whitespace, parser.Linebreak, parser.Pipe:
			continue

		case parser.Command:
			payload, exitCode = e.runCommand(ctx, s, st, payload, hasPayload, i == last)
			hasPayload = true

		case parser.Code:
			payload = e.runCode(ctx, st, payload, hasPayload)
			if payload.Failed {
				exitCode = 1
			}
			hasPayload = true

		case parser.Redirect:
			payload = e.runRedirect(s, st, payload)
			if payload.Failed {
				exitCode = 1
			}
			hasPayload = true
		}
	}

	return payload, exitCode
}

func lastEffective(stages []parser.Stage) int {
	for i := len(stages) - 1; i >= 0; i-- {
		if !parser.IsPresentational(stages[i]) && stages[i].Kind() != parser.KindPipe {
			return i
		}
	}
	return -1
}

func (e *Executor) runCommand(ctx context.Context, s *builtin.Session, cmd parser.Command, payload Outcome, hasPayload bool, terminal bool) (Outcome, int) {
	// Stage tokens keep their quote and escape markers for rendering; the
	// invoked process sees the denoted text.
	name := parser.Literal(cmd.Name)
	args := lo.FilterMap(cmd.Args, func(a string, _ int) (string, bool) {
		if strings.TrimSpace(a) == "" {
			return "", false
		}
		return parser.Literal(a), true
	})
	if hasPayload && payload.Text != "" {
		args = append(args, payload.Text)
	}

	if c, ok := e.registry.Lookup(name); ok {
		return e.runBuiltin(ctx, s, c, args, terminal)
	}

	if terminal {
		stdout := &flagWriter{w: e.Stdout}
		stderr := &flagWriter{w: e.Stderr}
		code, err := launch(ctx, s, name, args, stdout, stderr)
		if err != nil {
			return Fail(err.Error()), code
		}
		if code != 0 {
			if stderr.wrote {
				return Fail(""), code
			}
			return Fail(fmt.Sprintf("%s: exit status %d", name, code)), code
		}
		return Ok(""), 0
	}

	var stdout, stderr bytes.Buffer
	code, err := launch(ctx, s, name, args, &stdout, &stderr)
	if err != nil {
		return Fail(err.Error()), code
	}
	if stderr.Len() > 0 {
		return Fail(trimTrailingNewline(stderr.String())), code
	}
	if code != 0 {
		return Fail(fmt.Sprintf("%s: exit status %d", name, code)), code
	}
	return Ok(trimTrailingNewline(stdout.String())), 0
}

func (e *Executor) runBuiltin(ctx context.Context, s *builtin.Session, c builtin.Command, args []string, terminal bool) (Outcome, int) {
	if terminal {
		stdout := &flagWriter{w: e.Stdout}
		if err := c.Run(ctx, s, args, stdout, e.Stderr); err != nil {
			return Fail(fmt.Sprintf("%s: %v", c.Name, err)), 1
		}
		return Ok(""), 0
	}

	var stdout, stderr bytes.Buffer
	if err := c.Run(ctx, s, args, &stdout, &stderr); err != nil {
		return Fail(fmt.Sprintf("%s: %v", c.Name, err)), 1
	}
	return Ok(trimTrailingNewline(stdout.String())), 0
}

func (e *Executor) runCode(ctx context.Context, st parser.Code, payload Outcome, hasPayload bool) Outcome {
	source := stripBlock(st.Source)

	var out string
	var err error
	if hasPayload {
		out, err = e.eval.EvaluateExpression(ctx, source, payloadInput(payload.Text))
	} else {
		out, err = e.eval.EvaluateStatement(ctx, source)
	}
	if err != nil {
		return Fail(err.Error())
	}
	return Ok(out)
}

func (e *Executor) runRedirect(s *builtin.Session, st parser.Redirect, payload Outcome) Outcome {
	if st.Path == "" {
		return Fail("missing redirect target")
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if st.Append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := os.OpenFile(s.Resolve(parser.Literal(st.Path)), flags, 0644)
	if err != nil {
		return Fail(err.Error())
	}
	defer f.Close()

	text := payload.Text
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := f.WriteString(text); err != nil {
		return Fail(err.Error())
	}
	return Ok("")
}

// stripBlock removes the outer parentheses a code stage keeps for
// re-rendering. Unterminated blocks have no closing paren to strip.
func stripBlock(source string) string {
	source = strings.TrimPrefix(source, "(")
	source = strings.TrimSuffix(source, ")")
	return source
}

func payloadInput(text string) eval.Input {
	if strings.Contains(text, "\n") {
		return eval.Input{Lines: strings.Split(text, "\n")}
	}
	return eval.Input{Line: text}
}

func trimTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}

// flagWriter records whether anything was written, so a terminal stage can
// report an empty outcome instead of re-printing streamed output.
type flagWriter struct {
	w     io.Writer
	wrote bool
}

func (f *flagWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		f.wrote = true
	}
	return f.w.Write(p)
}
