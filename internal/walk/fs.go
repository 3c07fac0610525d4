package walk

import (
	"context"
	"io"
	"io/fs"
	"iter"
	"os"
	"path"
	"path/filepath"
)

// Entry is a single regular file found during a walk.
type Entry interface {
	// Path is the full path of the file, prefixed with the walk root.
	Path() string
	Open() (io.ReadCloser, error)
	Stat() (fs.FileInfo, error)
}

// Roots is a convenience wrapper around FS for os.Root. See FS for details.
func Roots(ctx context.Context, roots ...*os.Root) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for _, root := range roots {
			for entry, err := range FS(ctx, root.FS(), root.Name()) {
				if !yield(entry, err) {
					return
				}
			}
		}
	}
}

// FS recursively walks the filesystem rooted at root and yields a handle for
// every regular file found, or an error if file information retrieval fails.
// Each Entry's Path() is prefixed with name of a filesystem. In most cases
// it'll be an absolute path to the file. It does not follow symlinks, so a
// symlink cycle cannot make the walk loop. Every reachable regular file is
// yielded exactly once; the sequence is single-pass but a fresh call walks
// again from scratch.
func FS(ctx context.Context, root fs.FS, name string) iter.Seq2[Entry, error] {
	if root == nil {
		panic("root is nil")
	}

	return func(yield func(Entry, error) bool) {
		fn := func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			var entry = fsEntry{
				root:    root,
				abspath: filepath.Join(name, path),
				path:    path,
			}
			var yieldErr error
			if err != nil {
				yieldErr = err
			} else {
				info, err := d.Info()
				if err != nil {
					entry.infoErr = err
					yieldErr = err
				} else {
					if !info.Mode().IsRegular() {
						return nil
					}
					entry.info = info
					yieldErr = nil
				}
			}

			if !yield(entry, yieldErr) {
				return fs.SkipAll
			}
			return nil
		}
		_ = fs.WalkDir(root, ".", fn)
	}
}

// Match filters seq down to entries whose base name matches at least one of
// the patterns. Entries carrying an error are passed through unfiltered, so
// unreadable directory entries are still reported downstream. Patterns must
// be valid path globs (see Config.Validate); an invalid pattern never
// matches. With no patterns everything passes.
func Match(seq iter.Seq2[Entry, error], patterns []string) iter.Seq2[Entry, error] {
	if len(patterns) == 0 {
		return seq
	}
	return func(yield func(Entry, error) bool) {
		for entry, err := range seq {
			if err == nil && !matchBase(patterns, entry.Path()) {
				continue
			}
			if !yield(entry, err) {
				return
			}
		}
	}
}

func matchBase(patterns []string, p string) bool {
	base := filepath.Base(p)
	for _, pattern := range patterns {
		if ok, err := path.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// fsEntry implements Entry for a filesystem
// it uses root.Open to open the file
type fsEntry struct {
	root    fs.FS
	abspath string
	path    string
	info    fs.FileInfo
	infoErr error
}

// returns the absolute path to the file
func (e fsEntry) Path() string {
	return e.abspath
}

func (e fsEntry) Open() (io.ReadCloser, error) {
	if e.infoErr != nil {
		return nil, e.infoErr
	}
	return e.root.Open(e.path)
}

func (e fsEntry) Stat() (fs.FileInfo, error) {
	return e.info, e.infoErr
}
