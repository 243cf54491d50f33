package domain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skipguard.dev/pkg/skipguard/internal/adapter"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

// countingFS records writes so tests can assert a file was not rewritten.
type countingFS struct {
	adapter.SourceFSAdapter
	writes int
}

func (c *countingFS) OverwriteFile(ctx context.Context, path m.Path, content []byte) error {
	c.writes++
	return c.SourceFSAdapter.OverwriteFile(ctx, path, content)
}

func newMemPatcher(t *testing.T, files map[string]string) (Patcher, afero.Fs, *countingFS) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	counting := &countingFS{SourceFSAdapter: adapter.NewSourceFSAdapter(fs)}

	return NewPatcher(counting), fs, counting
}

func readMem(t *testing.T, fs afero.Fs, name string) string {
	t.Helper()

	content, err := afero.ReadFile(fs, name)
	require.NoError(t, err)

	return string(content)
}

func TestPatcher_Patch(t *testing.T) {
	ctx := context.Background()

	t.Run("rewrites file with guards", func(t *testing.T) {
		p, fs, counting := newMemPatcher(t, map[string]string{
			"/src/test_sub.py": "def test():\n    subprocess.Popen(['ls'])\n    pass",
		})

		result, err := p.Patch(ctx, "/src/test_sub.py", subprocessProfile())
		require.NoError(t, err)

		assert.Equal(t, m.Patched, result.Status)
		assert.Equal(t, 1, result.Guards)
		assert.True(t, result.ImportInserted)
		assert.Equal(t, 1, counting.writes)
		assert.Equal(t,
			"import unittest\ndef test():\n"+
				`    raise unittest.SkipTest("Skipping because subprocess not available")`+
				"\n    subprocess.Popen(['ls'])\n    pass",
			readMem(t, fs, "/src/test_sub.py"),
		)
	})

	t.Run("file without markers is not rewritten", func(t *testing.T) {
		original := "def test():\n    assert True\n"
		p, fs, counting := newMemPatcher(t, map[string]string{"/src/test_ok.py": original})

		result, err := p.Patch(ctx, "/src/test_ok.py", subprocessProfile())
		require.NoError(t, err)

		assert.Equal(t, m.Unchanged, result.Status)
		assert.Zero(t, counting.writes)
		assert.Equal(t, original, readMem(t, fs, "/src/test_ok.py"))
	})

	t.Run("invalid utf-8 is silently skipped", func(t *testing.T) {
		original := "    subprocess.Popen(\xff\xfe)\n"
		p, fs, counting := newMemPatcher(t, map[string]string{"/src/latin1.py": original})

		result, err := p.Patch(ctx, "/src/latin1.py", subprocessProfile())
		require.NoError(t, err)

		assert.Equal(t, m.SkippedUndecodable, result.Status)
		assert.Zero(t, counting.writes)
		assert.Equal(t, original, readMem(t, fs, "/src/latin1.py"))
	})

	t.Run("excluded suffix is never read", func(t *testing.T) {
		p, _, counting := newMemPatcher(t, nil)

		profile := subprocessProfile()
		profile.ExcludeSuffixes = []string{"script_helper.py"}

		result, err := p.Patch(ctx, "/src/support/script_helper.py", profile)
		require.NoError(t, err)

		assert.Equal(t, m.SkippedExcluded, result.Status)
		assert.Zero(t, counting.writes)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		p, _, _ := newMemPatcher(t, nil)

		_, err := p.Patch(ctx, "/src/missing.py", subprocessProfile())
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("write failure propagates", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(base, "/src/test_sub.py", []byte("    subprocess.Popen(x)\n"), 0o644))

		p := NewPatcher(adapter.NewSourceFSAdapter(afero.NewReadOnlyFs(base)))

		_, err := p.Patch(ctx, "/src/test_sub.py", subprocessProfile())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write")
	})
}

func TestPatcher_Patch_PreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test_perm.py")
	require.NoError(t, os.WriteFile(path, []byte("import unittest\n  subprocess.Popen(x)\n"), 0o600))
	require.NoError(t, os.Chmod(path, 0o640))

	before, err := os.Stat(path)
	require.NoError(t, err)

	p := NewPatcher(adapter.NewLocalSourceFSAdapter())
	_, err = p.Patch(context.Background(), m.Path(path), subprocessProfile())
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Mode(), after.Mode())
	assert.True(t, os.SameFile(before, after))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"import unittest\n"+`  raise unittest.SkipTest("Skipping because subprocess not available")`+"\n  subprocess.Popen(x)\n",
		string(content),
	)
}

func TestPatcher_Preview(t *testing.T) {
	original := "import unittest\ndef test():\n    subprocess.Popen(['ls'])\n"
	p, fs, counting := newMemPatcher(t, map[string]string{"/src/test_sub.py": original})

	result, err := p.Preview(context.Background(), "/src/test_sub.py", subprocessProfile())
	require.NoError(t, err)

	assert.Equal(t, m.Patched, result.Status)
	assert.Zero(t, counting.writes)
	assert.Equal(t, original, readMem(t, fs, "/src/test_sub.py"))

	assert.Contains(t, result.Diff, "--- /src/test_sub.py")
	assert.Contains(t, result.Diff, "+++ /src/test_sub.py (patched)")
	assert.Contains(t, result.Diff, `+    raise unittest.SkipTest("Skipping because subprocess not available")`)
}

func TestPatcher_AndroidProfile(t *testing.T) {
	registry, err := NewProfileRegistry()
	require.NoError(t, err)

	android, err := registry.Lookup(ProfileAndroid)
	require.NoError(t, err)

	source := "import unittest\n" +
		"class T(unittest.TestCase):\n" +
		"    def test_size(self):\n" +
		"        size = os.get_terminal_size()\n" +
		"        code = 'import os; os.get_terminal_size()'\n" +
		"        out = subprocess.check_output(['id'])\n"

	p, fs, _ := newMemPatcher(t, map[string]string{"/lib/test/test_os.py": source})

	result, err := p.Patch(context.Background(), "/lib/test/test_os.py", android)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Guards)
	assert.False(t, result.ImportInserted)

	guard := `        raise unittest.SkipTest("Skipping this test for Python within an Android app")`
	assert.Equal(t,
		"import unittest\n"+
			"class T(unittest.TestCase):\n"+
			"    def test_size(self):\n"+
			guard+"\n"+
			"        size = os.get_terminal_size()\n"+
			"        code = 'import os; os.get_terminal_size()'\n"+
			guard+"\n"+
			"        out = subprocess.check_output(['id'])\n",
		readMem(t, fs, "/lib/test/test_os.py"),
	)

	result, err = p.Patch(context.Background(), "/lib/test/support/script_helper.py", android)
	require.NoError(t, err)
	assert.Equal(t, m.SkippedExcluded, result.Status)
}
