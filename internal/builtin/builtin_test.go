package builtin

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *Session {
	t.Helper()
	return &Session{Dir: t.TempDir()}
}

func run(t *testing.T, s *Session, name string, args ...string) (string, error) {
	t.Helper()
	cmd, ok := NewRegistry().Lookup(name)
	require.True(t, ok, "unknown builtin %s", name)
	var stdout, stderr bytes.Buffer
	err := cmd.Run(context.Background(), s, args, &stdout, &stderr)
	return stdout.String(), err
}

func TestCdChangesSessionDirOnly(t *testing.T) {
	s := testSession(t)
	sub := filepath.Join(s.Dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	before, err := os.Getwd()
	require.NoError(t, err)

	_, err = run(t, s, "cd", "sub")
	require.NoError(t, err)
	assert.Equal(t, sub, s.Dir)

	// The process working directory is untouched.
	after, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCdRejectsFiles(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "f"), nil, 0644))

	_, err := run(t, s, "cd", "f")
	assert.Error(t, err)
}

func TestPwd(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "pwd")
	require.NoError(t, err)
	assert.Equal(t, s.Dir+"\n", out)
}

func TestEcho(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "echo", "hello", "world")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}

func TestLsMarksDirectories(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "d"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "f"), nil, 0644))

	out, err := run(t, s, "ls")
	require.NoError(t, err)
	assert.Equal(t, "d/\nf\n", out)
}

func TestCatConcatenates(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "a"), []byte("one\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "b"), []byte("two\n"), 0644))

	out, err := run(t, s, "cat", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", out)
}

func TestCpAndRm(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "src"), []byte("data"), 0644))

	_, err := run(t, s, "cp", "src", "dst")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(s.Dir, "dst"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	_, err = run(t, s, "rm", "src")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(s.Dir, "src"))
}

func TestRmRefusesDirectories(t *testing.T) {
	s := testSession(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir, "d"), 0755))

	_, err := run(t, s, "rm", "d")
	assert.Error(t, err)
	assert.DirExists(t, filepath.Join(s.Dir, "d"))
}

func TestMkdirRmdirTouch(t *testing.T) {
	s := testSession(t)

	_, err := run(t, s, "mkdir", "nested/dir")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(s.Dir, "nested", "dir"))

	_, err = run(t, s, "touch", "nested/dir/f")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(s.Dir, "nested", "dir", "f"))

	_, err = run(t, s, "rm", "nested/dir/f")
	require.NoError(t, err)
	_, err = run(t, s, "rmdir", "nested/dir")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(s.Dir, "nested", "dir"))
}

func TestExitSetsFlagAndCode(t *testing.T) {
	s := testSession(t)

	_, err := run(t, s, "exit", "3")
	require.NoError(t, err)
	assert.True(t, s.ExitRequested)
	assert.Equal(t, 3, s.ExitCode)
}

func TestHelpListsEveryBuiltin(t *testing.T) {
	s := testSession(t)
	out, err := run(t, s, "help")
	require.NoError(t, err)
	for _, name := range NewRegistry().Names() {
		assert.Contains(t, out, name)
	}
}

func TestRegistryNamesStableOrder(t *testing.T) {
	assert.Equal(t, NewRegistry().Names(), NewRegistry().Names())
}
