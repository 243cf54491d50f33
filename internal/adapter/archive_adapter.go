package adapter

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

const zipMIME = "application/zip"

// ErrNotZip is returned when an archive is not a zip file (or a zip based
// format such as jar, apk or aar).
var ErrNotZip = errors.New("not a zip archive")

// Archive is an opened zip archive.
type Archive interface {
	// Names lists member names in archive order.
	Names() []string
	// OpenNested reads the named member fully and opens it as a zip.
	OpenNested(ctx context.Context, name string) (Archive, error)
	Close() error
}

// ArchiveAdapter opens zip archives from the filesystem.
type ArchiveAdapter interface {
	OpenArchive(ctx context.Context, path m.Path) (Archive, error)
}

// LocalArchiveAdapter reads archives through a SourceFSAdapter.
type LocalArchiveAdapter struct {
	fs SourceFSAdapter
}

// NewLocalArchiveAdapter constructs a LocalArchiveAdapter.
func NewLocalArchiveAdapter(fs SourceFSAdapter) *LocalArchiveAdapter {
	return &LocalArchiveAdapter{fs: fs}
}

// OpenArchive opens the zip at path after sniffing its content type.
func (a *LocalArchiveAdapter) OpenArchive(ctx context.Context, path m.Path) (Archive, error) {
	f, err := a.fs.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}

	slog.Debug("detected archive type", "path", path, "mime", mime.String())

	if !isZipFamily(mime) {
		_ = f.Close()
		return nil, fmt.Errorf("%s is %s: %w", path, mime.String(), ErrNotZip)
	}

	reader, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return &zipArchive{reader: reader, closer: f, name: string(path)}, nil
}

func isZipFamily(mime *mimetype.MIME) bool {
	for t := mime; t != nil; t = t.Parent() {
		if t.Is(zipMIME) {
			return true
		}
	}

	return false
}

type zipArchive struct {
	reader *zip.Reader
	closer io.Closer
	name   string
}

func (z *zipArchive) Names() []string {
	names := make([]string, 0, len(z.reader.File))
	for _, f := range z.reader.File {
		names = append(names, f.Name)
	}

	return names
}

func (z *zipArchive) OpenNested(ctx context.Context, name string) (Archive, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *zip.File

	for _, f := range z.reader.File {
		if f.Name == name {
			entry = f
			break
		}
	}

	if entry == nil {
		return nil, fmt.Errorf("open %s within %s: %w", name, z.name, fs.ErrNotExist)
	}

	member, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s within %s: %w", name, z.name, err)
	}

	defer func() { _ = member.Close() }()

	content, err := io.ReadAll(member)
	if err != nil {
		return nil, fmt.Errorf("read %s within %s: %w", name, z.name, err)
	}

	if mime := mimetype.Detect(content); !isZipFamily(mime) {
		return nil, fmt.Errorf("%s within %s is %s: %w", name, z.name, mime.String(), ErrNotZip)
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open %s within %s: %w", name, z.name, err)
	}

	return &zipArchive{reader: reader, name: name}, nil
}

func (z *zipArchive) Close() error {
	if z.closer == nil {
		return nil
	}

	return z.closer.Close()
}
