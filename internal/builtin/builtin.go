// Package builtin implements the commands the shell handles itself instead
// of launching a process. Builtins operate on the session's working
// directory, never on the process-wide one, so concurrent pipelines cannot
// race on os.Chdir.
package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/tansholt/gosh/internal/history"
)

// Session is the mutable state shared by every pipeline of one interactive
// session.
type Session struct {
	ID        string
	Dir       string
	StartedAt time.Time

	History *history.Store

	ExitRequested bool
	ExitCode      int
}

func NewSession(store *history.Store) (*Session, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        uuid.NewString(),
		Dir:       dir,
		StartedAt: time.Now(),
		History:   store,
	}, nil
}

// Resolve turns a user-supplied path into an absolute one relative to the
// session's working directory, expanding a leading tilde.
func (s *Session) Resolve(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.Dir, path)
}

// Func runs one builtin. Output goes to stdout, diagnostics to stderr; a
// returned error is reported by the executor with the builtin's name
// prefixed.
type Func func(ctx context.Context, s *Session, args []string, stdout, stderr io.Writer) error

type Command struct {
	Name    string
	Summary string
	Run     Func
}

// Registry holds the builtins in a stable order so help and completion
// listings do not shuffle between runs.
type Registry struct {
	commands []Command
	byName   map[string]Command
}

func NewRegistry() *Registry {
	r := &Registry{byName: map[string]Command{}}
	for _, c := range defaultCommands() {
		r.register(c)
	}
	return r
}

func (r *Registry) register(c Command) {
	r.commands = append(r.commands, c)
	r.byName[c.Name] = c
}

// Lookup returns the builtin with the given name, if any.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the builtin names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.commands))
	for i, c := range r.commands {
		names[i] = c.Name
	}
	return names
}

func defaultCommands() []Command {
	return []Command{
		{Name: "cd", Summary: "change the working directory", Run: runCd},
		{Name: "pwd", Summary: "print the working directory", Run: runPwd},
		{Name: "ls", Summary: "list directory contents", Run: runLs},
		{Name: "cat", Summary: "print file contents", Run: runCat},
		{Name: "cp", Summary: "copy a file", Run: runCp},
		{Name: "mv", Summary: "move or rename a file", Run: runMv},
		{Name: "rm", Summary: "remove files", Run: runRm},
		{Name: "mkdir", Summary: "create a directory", Run: runMkdir},
		{Name: "rmdir", Summary: "remove an empty directory", Run: runRmdir},
		{Name: "touch", Summary: "create a file or update its timestamp", Run: runTouch},
		{Name: "echo", Summary: "print its arguments", Run: runEcho},
		{Name: "history", Summary: "show submitted lines", Run: runHistory},
		{Name: "help", Summary: "list builtins", Run: runHelp},
		{Name: "exit", Summary: "leave the shell", Run: runExit},
	}
}

func runCd(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	target := "~"
	if len(args) > 0 {
		target = args[0]
	}
	dir := s.Resolve(target)

	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", dir)
	}

	s.Dir = dir
	return nil
}

func runPwd(_ context.Context, s *Session, _ []string, stdout, _ io.Writer) error {
	_, err := fmt.Fprintln(stdout, s.Dir)
	return err
}

func runEcho(_ context.Context, _ *Session, args []string, stdout, _ io.Writer) error {
	_, err := fmt.Fprintln(stdout, strings.Join(args, " "))
	return err
}

func runExit(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	s.ExitRequested = true
	if len(args) > 0 {
		code, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%s: numeric argument required", args[0])
		}
		s.ExitCode = code
	}
	return nil
}

func runHelp(_ context.Context, _ *Session, _ []string, stdout, _ io.Writer) error {
	for _, c := range defaultCommands() {
		if _, err := fmt.Fprintf(stdout, "%-8s %s\n", c.Name, c.Summary); err != nil {
			return err
		}
	}
	return nil
}

func runHistory(_ context.Context, s *Session, args []string, stdout, _ io.Writer) error {
	if s.History == nil {
		return nil
	}

	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("%s: positive count required", args[0])
		}
		limit = n
	}

	entries, err := s.History.Recent("", limit)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(stdout, "%5d  %-14s %s\n", e.ID, humanize.Time(e.CreatedAt), e.Command); err != nil {
			return err
		}
	}
	return nil
}
