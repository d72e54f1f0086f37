package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tansholt/gosh/internal/builtin"
	"github.com/tansholt/gosh/internal/eval"
)

type stubEval struct {
	stmt func(source string) (string, error)
	expr func(source string, in eval.Input) (string, error)
}

func (s stubEval) EvaluateStatement(_ context.Context, source string) (string, error) {
	if s.stmt == nil {
		return source, nil
	}
	return s.stmt(source)
}

func (s stubEval) EvaluateExpression(_ context.Context, source string, in eval.Input) (string, error) {
	if s.expr == nil {
		return in.Line, nil
	}
	return s.expr(source, in)
}

type harness struct {
	exec    *Executor
	session *builtin.Session
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T, ev eval.Evaluator) *harness {
	t.Helper()
	h := &harness{session: &builtin.Session{Dir: t.TempDir()}}
	h.exec = NewExecutor(builtin.NewRegistry(), ev, nil)
	h.exec.Stdout = &h.stdout
	h.exec.Stderr = &h.stderr
	return h
}

func (h *harness) run(line string) Result {
	return h.exec.Execute(context.Background(), h.session, line)
}

func TestTerminalCommandStreamsToStdout(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("echo hi")
	assert.False(t, result.Failed)
	assert.Equal(t, "", result.Output)
	assert.Equal(t, "hi\n", h.stdout.String())
}

func TestBlankLineDoesNothing(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("")
	assert.False(t, result.Failed)
	assert.Equal(t, "", result.Output)
	assert.Equal(t, "", h.stdout.String())
}

func TestRedirectWritesFile(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("echo hello world >> out.txt")
	require.False(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(h.session.Dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
	// Redirected output never reaches the terminal.
	assert.Equal(t, "", h.stdout.String())
}

func TestRedirectAppends(t *testing.T) {
	h := newHarness(t, stubEval{})

	require.False(t, h.run("echo one >>> log.txt").Failed)
	require.False(t, h.run("echo two >>> log.txt").Failed)

	data, err := os.ReadFile(filepath.Join(h.session.Dir, "log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestRedirectWithWhitespaceRunBeforePath(t *testing.T) {
	h := newHarness(t, stubEval{})

	// The space run between the marker and the path is presentation; the
	// payload lands in out.txt and nothing after the marker executes.
	result := h.run("echo hi >>  out.txt")
	require.False(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(h.session.Dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
	assert.Equal(t, "", h.stdout.String())
}

func TestRedirectWithoutTarget(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("echo hi >>")
	assert.True(t, result.Failed)
	assert.Contains(t, result.Output, "redirect")
}

func TestCodeTransformsPipedPayload(t *testing.T) {
	h := newHarness(t, stubEval{
		expr: func(_ string, in eval.Input) (string, error) {
			return strings.ToUpper(in.Line), nil
		},
	})

	result := h.run("echo hello world |> (upper) >> result.txt")
	require.False(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(h.session.Dir, "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD\n", string(data))
}

func TestHeadCodeBlockEvaluatesAsStatement(t *testing.T) {
	var sawStatement string
	h := newHarness(t, stubEval{
		stmt: func(source string) (string, error) {
			sawStatement = source
			return "10", nil
		},
	})

	result := h.run("(10)")
	assert.False(t, result.Failed)
	assert.Equal(t, "10", result.Output)
	// The executor strips the block's outer parentheses.
	assert.Equal(t, "10", sawStatement)
}

func TestCommandNotFound(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("definitely-not-a-command-xyz")
	assert.True(t, result.Failed)
	assert.Contains(t, result.Output, "command not found")
	assert.Equal(t, 127, result.ExitCode)
}

func TestSilentNonZeroExitGetsStatusLine(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("false")
	assert.True(t, result.Failed)
	assert.Equal(t, "false: exit status 1", result.Output)
	assert.Equal(t, 1, result.ExitCode)
}

func TestErrorShortCircuitsPipeline(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("definitely-not-a-command-xyz |> echo after")
	assert.True(t, result.Failed)
	assert.Contains(t, result.Output, "command not found")
	// The downstream stage never ran.
	assert.Equal(t, "", h.stdout.String())
}

func TestCdPersistsAcrossLines(t *testing.T) {
	h := newHarness(t, stubEval{})
	sub := filepath.Join(h.session.Dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	require.False(t, h.run("cd sub").Failed)
	require.False(t, h.run("pwd").Failed)
	assert.Equal(t, sub+"\n", h.stdout.String())
}

func TestLinebreakSeparatesPipelines(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("echo a\necho b")
	assert.False(t, result.Failed)
	assert.Equal(t, "a\nb\n", h.stdout.String())
}

func TestExitStopsRemainingPipelines(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("exit\necho after")
	assert.False(t, result.Failed)
	assert.True(t, h.session.ExitRequested)
	assert.Equal(t, "", h.stdout.String())
}

func TestWhitespaceRunArgsAreDropped(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("echo a   b")
	assert.False(t, result.Failed)
	assert.Equal(t, "a b\n", h.stdout.String())
}

func TestQuotedArgumentLosesItsMarkers(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run(`echo "hello world"`)
	assert.False(t, result.Failed)
	assert.Equal(t, "hello world\n", h.stdout.String())
}

func TestEscapedSpaceArgumentIsUnescaped(t *testing.T) {
	h := newHarness(t, stubEval{})
	target := filepath.Join(h.session.Dir, "my file.txt")
	require.NoError(t, os.WriteFile(target, []byte("contents\n"), 0644))

	result := h.run(`cat my\ file.txt`)
	assert.False(t, result.Failed)
	assert.Equal(t, "contents\n", h.stdout.String())
}

func TestRedirectPathMayBeQuoted(t *testing.T) {
	h := newHarness(t, stubEval{})

	require.False(t, h.run(`echo hi >> "my file.txt"`).Failed)

	data, err := os.ReadFile(filepath.Join(h.session.Dir, "my file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))
}

func TestFailedSegmentKeepsResultFailed(t *testing.T) {
	h := newHarness(t, stubEval{})

	result := h.run("false\necho ok")
	assert.True(t, result.Failed)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, "false: exit status 1", result.Output)
	// The second segment still ran.
	assert.Equal(t, "ok\n", h.stdout.String())
}

func TestCodeErrorBecomesFailure(t *testing.T) {
	h := newHarness(t, stubEval{
		stmt: func(string) (string, error) {
			return "", assert.AnError
		},
	})

	result := h.run("(boom)")
	assert.True(t, result.Failed)
	assert.Equal(t, 1, result.ExitCode)
}
