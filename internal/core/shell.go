package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/tansholt/gosh/internal/builtin"
	"github.com/tansholt/gosh/internal/config"
	"github.com/tansholt/gosh/internal/eval"
	"github.com/tansholt/gosh/internal/history"
	"github.com/tansholt/gosh/internal/pipeline"
	"github.com/tansholt/gosh/internal/styles"
)

const historySize = 500

// timeoutEvaluator bounds every code block evaluation with the configured
// timeout, so a runaway block cannot hang the shell.
type timeoutEvaluator struct {
	inner   eval.Evaluator
	timeout time.Duration
}

func (t timeoutEvaluator) EvaluateStatement(ctx context.Context, source string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.EvaluateStatement(ctx, source)
}

func (t timeoutEvaluator) EvaluateExpression(ctx context.Context, source string, piped eval.Input) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.EvaluateExpression(ctx, source, piped)
}

// RunInteractiveShell reads, executes and records lines until the user
// leaves with exit or Ctrl+D. It returns the exit code the session asked
// for.
func RunInteractiveShell(
	ctx context.Context,
	cfg config.Config,
	store *history.Store,
	evaluator eval.Evaluator,
	logger *zap.Logger,
) (int, error) {
	session, err := builtin.NewSession(store)
	if err != nil {
		return 1, err
	}

	registry := builtin.NewRegistry()
	executor := pipeline.NewExecutor(registry, timeoutEvaluator{inner: evaluator, timeout: cfg.EvalTimeout}, logger)
	completer := newShellCompleter(session, registry)

	chanSIGINT := make(chan os.Signal, 1)
	signal.Notify(chanSIGINT, os.Interrupt)
	defer signal.Stop(chanSIGINT)

	go func() {
		for {
			// The editor handles Ctrl+C itself; a SIGINT from a child
			// process group must not kill the shell.
			<-chanSIGINT
		}
	}()

	logger.Info("starting interactive session", zap.String("session_id", session.ID))

	for {
		historyCommands := recentCommands(store, logger)

		line, err := ReadLine(cfg.Prompt, historyCommands, completer, cfg.TabWidth, logger)
		if err != nil {
			if errors.Is(err, ErrInterrupted) {
				logger.Debug("input interrupted by user")
				continue
			}
			if errors.Is(err, ErrEndOfInput) {
				logger.Debug("end of input, exiting")
				break
			}
			logger.Error("error reading input", zap.Error(err))
			return 1, err
		}

		logger.Debug("received line", zap.String("line", line))

		// Every submitted line goes to history, blank ones included, so the
		// in-session history mirrors what was typed.
		entry, histErr := store.Append(line, session.Dir, session.ID)
		if histErr != nil {
			logger.Warn("error recording history entry", zap.Error(histErr))
		}

		result := executor.Execute(ctx, session, line)
		printResult(result)

		if entry != nil {
			if _, err := store.Finish(entry, result.ExitCode); err != nil {
				logger.Warn("error finishing history entry", zap.Error(err))
			}
		}

		if session.ExitRequested {
			logger.Debug("exit requested", zap.Int("code", session.ExitCode))
			break
		}
	}

	return session.ExitCode, nil
}

// RunScript executes lines from r without the interactive editor. Used for
// -c strings and piped stdin.
func RunScript(
	ctx context.Context,
	cfg config.Config,
	store *history.Store,
	evaluator eval.Evaluator,
	logger *zap.Logger,
	r io.Reader,
) (int, error) {
	session, err := builtin.NewSession(store)
	if err != nil {
		return 1, err
	}

	executor := pipeline.NewExecutor(builtin.NewRegistry(), timeoutEvaluator{inner: evaluator, timeout: cfg.EvalTimeout}, logger)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lastExit := 0
	for scanner.Scan() {
		result := executor.Execute(ctx, session, scanner.Text())
		printResult(result)
		lastExit = result.ExitCode

		if session.ExitRequested {
			return session.ExitCode, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 1, err
	}

	return lastExit, nil
}

func printResult(result pipeline.Result) {
	if result.Output == "" {
		return
	}
	if result.Failed {
		fmt.Println(styles.ERROR(result.Output))
		return
	}
	fmt.Println(styles.RESULT(result.Output))
}

// recentCommands returns the lines offered for history navigation, most
// recent first.
func recentCommands(store *history.Store, logger *zap.Logger) []string {
	entries, err := store.Recent("", historySize)
	if err != nil {
		logger.Warn("error getting recent history entries", zap.Error(err))
		return nil
	}

	commands := make([]string, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		commands[len(entries)-1-i] = entries[i].Command
	}
	return commands
}
