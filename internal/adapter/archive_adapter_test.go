package adapter

import (
	"archive/zip"
	"bytes"
	"context"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string][]byte, order ...string) []byte {
	t.Helper()

	var buf bytes.Buffer

	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(files[name])
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestLocalArchiveAdapter_OpenArchive(t *testing.T) {
	ctx := context.Background()

	nested := zipBytes(t, map[string][]byte{"lib/python3.7/_ssl.so": []byte("elf")}, "lib/python3.7/_ssl.so")
	outer := zipBytes(t, map[string][]byte{
		"README":           []byte("hello"),
		"pythonhome.1.zip": nested,
		"broken.zip":       []byte("not a zip at all"),
	}, "README", "pythonhome.1.zip", "broken.zip")

	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, "/support.zip", outer, 0o644))
	require.NoError(t, afero.WriteFile(memFs, "/notes.txt", []byte("plain text"), 0o644))

	a := NewLocalArchiveAdapter(NewSourceFSAdapter(memFs))

	t.Run("lists members in order", func(t *testing.T) {
		archive, err := a.OpenArchive(ctx, "/support.zip")
		require.NoError(t, err)

		defer func() { _ = archive.Close() }()

		assert.Equal(t, []string{"README", "pythonhome.1.zip", "broken.zip"}, archive.Names())
	})

	t.Run("opens nested archive", func(t *testing.T) {
		archive, err := a.OpenArchive(ctx, "/support.zip")
		require.NoError(t, err)

		defer func() { _ = archive.Close() }()

		inner, err := archive.OpenNested(ctx, "pythonhome.1.zip")
		require.NoError(t, err)
		assert.Equal(t, []string{"lib/python3.7/_ssl.so"}, inner.Names())
		assert.NoError(t, inner.Close())
	})

	t.Run("nested member that is not a zip", func(t *testing.T) {
		archive, err := a.OpenArchive(ctx, "/support.zip")
		require.NoError(t, err)

		defer func() { _ = archive.Close() }()

		_, err = archive.OpenNested(ctx, "broken.zip")
		require.ErrorIs(t, err, ErrNotZip)
	})

	t.Run("nested member that does not exist", func(t *testing.T) {
		archive, err := a.OpenArchive(ctx, "/support.zip")
		require.NoError(t, err)

		defer func() { _ = archive.Close() }()

		_, err = archive.OpenNested(ctx, "pythonhome.9.zip")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("outer file that is not a zip", func(t *testing.T) {
		_, err := a.OpenArchive(ctx, "/notes.txt")
		require.ErrorIs(t, err, ErrNotZip)
	})
}
