package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/tansholt/gosh/internal/builtin"
)

// ErrCommandNotFound distinguishes a missing binary from a binary that ran
// and failed, so the shell can phrase the error accordingly.
var ErrCommandNotFound = errors.New("command not found")

// launch runs an external command in the session's working directory and
// streams its output line by line into the sinks. It returns the exit code
// and whether anything was written to the error sink.
func launch(ctx context.Context, s *builtin.Session, name string, args []string, stdout, stderr io.Writer) (int, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return 127, fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = s.Dir

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return 1, err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return 1, err
	}

	if err := cmd.Start(); err != nil {
		return 1, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go copyLines(&wg, outPipe, stdout)
	go copyLines(&wg, errPipe, stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

func copyLines(wg *sync.WaitGroup, r io.Reader, w io.Writer) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
}
