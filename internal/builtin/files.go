package builtin

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
)

func runLs(_ context.Context, s *Session, args []string, stdout, _ io.Writer) error {
	dir := s.Dir
	if len(args) > 0 {
		dir = s.Resolve(args[0])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	names := lo.Map(entries, func(e os.DirEntry, _ int) string {
		if e.IsDir() {
			return e.Name() + "/"
		}
		return e.Name()
	})

	for _, name := range names {
		if _, err := fmt.Fprintln(stdout, name); err != nil {
			return err
		}
	}
	return nil
}

func runCat(_ context.Context, s *Session, args []string, stdout, _ io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing file operand")
	}
	for _, arg := range args {
		f, err := os.Open(s.Resolve(arg))
		if err != nil {
			return err
		}
		_, err = io.Copy(stdout, f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func runCp(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("expected source and destination")
	}
	src, dst := s.Resolve(args[0]), s.Resolve(args[1])

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", args[0])
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func runMv(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("expected source and destination")
	}
	return os.Rename(s.Resolve(args[0]), s.Resolve(args[1]))
}

func runRm(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing file operand")
	}
	for _, arg := range args {
		path := s.Resolve(arg)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s: is a directory", arg)
		}
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}

func runMkdir(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing directory operand")
	}
	for _, arg := range args {
		if err := os.MkdirAll(s.Resolve(arg), 0755); err != nil {
			return err
		}
	}
	return nil
}

func runRmdir(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing directory operand")
	}
	for _, arg := range args {
		if err := os.Remove(s.Resolve(arg)); err != nil {
			return err
		}
	}
	return nil
}

func runTouch(_ context.Context, s *Session, args []string, _, _ io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing file operand")
	}
	now := time.Now()
	for _, arg := range args {
		path := s.Resolve(arg)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return err
		}
		f.Close()
		if err := os.Chtimes(path, now, now); err != nil {
			return err
		}
	}
	return nil
}
