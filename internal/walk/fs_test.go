package walk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sofind/sofind/internal/walk"

	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mkfile(t, dir, "libfoo.so")
	mkfile(t, dir, "readme.txt")
	mkfile(t, dir, "sub/libbar.so.1")
	mkfile(t, dir, "sub/deeper/libbaz.so")

	// a symlinked directory must not be followed, its content would
	// otherwise be yielded twice (or forever on a cycle)
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "link")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "sub", "cycle")))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer func() {
		_ = root.Close()
	}()

	var got []string
	for entry, err := range walk.Roots(t.Context(), root) {
		require.NoError(t, err)
		got = append(got, entry.Path())

		info, err := entry.Stat()
		require.NoError(t, err)
		require.True(t, info.Mode().IsRegular())

		f, err := entry.Open()
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	require.ElementsMatch(t, []string{
		filepath.Join(dir, "libfoo.so"),
		filepath.Join(dir, "readme.txt"),
		filepath.Join(dir, "sub", "libbar.so.1"),
		filepath.Join(dir, "sub", "deeper", "libbaz.so"),
	}, got)
}

func TestFSEmptyDir(t *testing.T) {
	t.Parallel()

	root, err := os.OpenRoot(t.TempDir())
	require.NoError(t, err)
	defer func() {
		_ = root.Close()
	}()

	for entry, err := range walk.Roots(t.Context(), root) {
		require.NoError(t, err)
		require.Fail(t, "unexpected entry", entry.Path())
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mkfile(t, dir, "libfoo.so")
	mkfile(t, dir, "libfoo.so.6")
	mkfile(t, dir, "libfoo.so.6.0.1")
	mkfile(t, dir, "notes.txt")
	mkfile(t, dir, "solong.md")

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer func() {
		_ = root.Close()
	}()

	var testCases = []struct {
		scenario string
		patterns []string
		then     []string
	}{
		{"so pattern", []string{"*.so*"}, []string{
			filepath.Join(dir, "libfoo.so"),
			filepath.Join(dir, "libfoo.so.6"),
			filepath.Join(dir, "libfoo.so.6.0.1"),
		}},
		{"several patterns", []string{"*.txt", "*.md"}, []string{
			filepath.Join(dir, "notes.txt"),
			filepath.Join(dir, "solong.md"),
		}},
		{"no patterns pass everything", nil, []string{
			filepath.Join(dir, "libfoo.so"),
			filepath.Join(dir, "libfoo.so.6"),
			filepath.Join(dir, "libfoo.so.6.0.1"),
			filepath.Join(dir, "notes.txt"),
			filepath.Join(dir, "solong.md"),
		}},
		{"nothing matches", []string{"*.dylib"}, nil},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			var got []string
			for entry, err := range walk.Match(walk.Roots(t.Context(), root), tt.patterns) {
				require.NoError(t, err)
				got = append(got, entry.Path())
			}
			require.ElementsMatch(t, tt.then, got)
		})
	}
}

func TestFSRestartable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mkfile(t, dir, "a.so")
	mkfile(t, dir, "b.so")

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer func() {
		_ = root.Close()
	}()

	count := func() int {
		n := 0
		for _, err := range walk.Roots(t.Context(), root) {
			require.NoError(t, err)
			n++
		}
		return n
	}
	require.Equal(t, 2, count())
	require.Equal(t, 2, count(), "a fresh walk starts from scratch")
}

func mkfile(t *testing.T, root, name string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}
