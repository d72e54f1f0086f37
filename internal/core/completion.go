package core

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tansholt/gosh/internal/builtin"
)

// shellCompleter offers builtin names and filesystem entries as tab
// completion candidates. Relative paths are resolved against the session's
// working directory, which the session mutates as the user runs cd.
type shellCompleter struct {
	session  *builtin.Session
	registry *builtin.Registry
}

func newShellCompleter(session *builtin.Session, registry *builtin.Registry) *shellCompleter {
	return &shellCompleter{session: session, registry: registry}
}

func (c *shellCompleter) Candidates(prefix string) []string {
	var candidates []string

	// Builtin names only make sense when the token has no path separator.
	if !strings.ContainsRune(prefix, '/') {
		candidates = append(candidates, c.registry.Names()...)
	}

	candidates = append(candidates, c.pathCandidates(prefix)...)
	return candidates
}

// pathCandidates lists the entries of the directory the prefix points into,
// keeping the directory part of the token so the candidate can replace the
// whole token. Directories get a trailing slash.
func (c *shellCompleter) pathCandidates(prefix string) []string {
	dirPart := ""
	if i := strings.LastIndexByte(prefix, '/'); i >= 0 {
		dirPart = prefix[:i+1]
	}

	entries, err := os.ReadDir(c.session.Resolve(emptyToDot(dirPart)))
	if err != nil {
		return nil
	}

	candidates := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := dirPart + entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		candidates = append(candidates, name)
	}
	return candidates
}

func emptyToDot(dir string) string {
	if dir == "" {
		return "."
	}
	return filepath.Clean(dir)
}
