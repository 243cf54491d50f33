// Package adapter contains the filesystem and archive adapters used by the
// skipguard CLI.
package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the patcher relies on.
// It hides direct `os` access so the domain logic can be tested against an
// in-memory filesystem.
type SourceFSAdapter interface {
	// ReadFile loads a file and returns its full contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// OverwriteFile truncates an existing file and writes content into it.
	// The file keeps its identity and permissions. Missing files are an error.
	OverwriteFile(ctx context.Context, path m.Path, content []byte) error

	// FileInfo returns metadata for a path.
	FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error)

	// Open returns a random-access handle, used for reading archives.
	Open(ctx context.Context, path m.Path) (afero.File, error)

	// Expand resolves a command-line argument into concrete paths. An
	// existing file or a plain path is returned as-is; otherwise glob
	// patterns (including **) are expanded and sorted.
	Expand(ctx context.Context, pattern string) ([]m.Path, error)
}

// LocalSourceFSAdapter is the afero backed SourceFSAdapter.
type LocalSourceFSAdapter struct {
	fs afero.Fs
}

// NewLocalSourceFSAdapter constructs an adapter on top of the OS filesystem.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return NewSourceFSAdapter(afero.NewOsFs())
}

// NewSourceFSAdapter constructs an adapter on top of the provided afero.Fs.
func NewSourceFSAdapter(fs afero.Fs) *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{fs: fs}
}

// ReadFile loads file contents.
func (a *LocalSourceFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return afero.ReadFile(a.fs, string(path))
}

// OverwriteFile truncates path and writes content.
func (a *LocalSourceFSAdapter) OverwriteFile(ctx context.Context, path m.Path, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := a.fs.OpenFile(string(path), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}

	n, err := f.Write(content)
	if err == nil && n < len(content) {
		err = io.ErrShortWrite
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}

// FileInfo returns os.FileInfo metadata for the given path.
func (a *LocalSourceFSAdapter) FileInfo(ctx context.Context, path m.Path) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return a.fs.Stat(string(path))
}

// Open opens path for reading.
func (a *LocalSourceFSAdapter) Open(ctx context.Context, path m.Path) (afero.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return a.fs.Open(string(path))
}

// Expand resolves pattern into a sorted list of matching files.
func (a *LocalSourceFSAdapter) Expand(ctx context.Context, pattern string) ([]m.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !hasMeta(pattern) {
		return []m.Path{m.Path(pattern)}, nil
	}

	// A file may be named like a pattern, e.g. test_[x].py.
	if info, err := a.FileInfo(ctx, m.Path(pattern)); err == nil && !info.IsDir() {
		return []m.Path{m.Path(pattern)}, nil
	}

	slashed := filepath.ToSlash(pattern)
	base, rest := doublestar.SplitPattern(slashed)

	fsys := afero.NewIOFS(a.fs)
	if base != "." {
		fsys = afero.NewIOFS(afero.NewBasePathFs(a.fs, filepath.FromSlash(base)))
	}

	matches, err := doublestar.Glob(fsys, rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}

	sort.Strings(matches)

	paths := make([]m.Path, 0, len(matches))
	for _, match := range matches {
		if base == "." {
			paths = append(paths, m.Path(filepath.FromSlash(match)))
			continue
		}

		paths = append(paths, m.Path(filepath.Join(filepath.FromSlash(base), filepath.FromSlash(match))))
	}

	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
