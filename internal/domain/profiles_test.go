package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

func TestProfileRegistry_Builtins(t *testing.T) {
	registry, err := NewProfileRegistry()
	require.NoError(t, err)

	names := make([]string, 0)
	for _, p := range registry.List() {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{ProfileAndroid, ProfileSubprocess}, names)

	sub, err := registry.Lookup(ProfileSubprocess)
	require.NoError(t, err)
	assert.Equal(t, "Skipping because subprocess not available", sub.SkipMessage)
	assert.Equal(t, []m.Marker{m.Contains("subprocess.Popen(")}, sub.Markers)

	android, err := registry.Lookup(ProfileAndroid)
	require.NoError(t, err)
	assert.Equal(t, []string{"script_helper.py"}, android.ExcludeSuffixes)
	assert.NotEmpty(t, android.Markers)
}

func TestProfileRegistry_UnknownProfile(t *testing.T) {
	registry, err := NewProfileRegistry()
	require.NoError(t, err)

	_, err = registry.Lookup("ios")
	require.ErrorIs(t, err, ErrUnknownProfile)
	assert.Contains(t, err.Error(), "android, subprocess")
}

func TestProfileRegistry_CustomProfiles(t *testing.T) {
	t.Run("custom profile overrides builtin", func(t *testing.T) {
		registry, err := NewProfileRegistry(m.Profile{
			Name:        ProfileSubprocess,
			Markers:     []m.Marker{m.Contains("Popen("), m.Contains("Popen("), {}},
			SkipMessage: "no processes",
		})
		require.NoError(t, err)

		p, err := registry.Lookup(ProfileSubprocess)
		require.NoError(t, err)
		assert.Equal(t, "no processes", p.SkipMessage)
		assert.Equal(t, []m.Marker{m.Contains("Popen(")}, p.Markers)
	})

	t.Run("new profile is listed", func(t *testing.T) {
		registry, err := NewProfileRegistry(m.Profile{
			Name:            " ios ",
			Markers:         []m.Marker{m.Contains("os.fork(")},
			SkipMessage:     "no fork on iOS",
			ExcludeSuffixes: []string{"", "conftest.py"},
		})
		require.NoError(t, err)

		p, err := registry.Lookup("ios")
		require.NoError(t, err)
		assert.Equal(t, []string{"conftest.py"}, p.ExcludeSuffixes)
		assert.Len(t, registry.List(), 3)
	})

	t.Run("profile without markers is rejected", func(t *testing.T) {
		_, err := NewProfileRegistry(m.Profile{Name: "empty"})
		require.ErrorIs(t, err, ErrInvalidProfile)
	})

	t.Run("guard template must carry one message verb", func(t *testing.T) {
		for _, template := range []string{"pytest.skip()", "skip(%q, %q)", "skip(%d)", "skip(%"} {
			_, err := NewProfileRegistry(m.Profile{
				Name:          "pytest",
				Markers:       []m.Marker{m.Contains("os.fork(")},
				SkipMessage:   "no",
				GuardTemplate: template,
			})
			require.ErrorIs(t, err, ErrInvalidProfile, template)
		}
	})

	t.Run("guard template with one verb is accepted", func(t *testing.T) {
		for _, template := range []string{"pytest.skip(%q)", "raise SkipTest('100%% %s')"} {
			registry, err := NewProfileRegistry(m.Profile{
				Name:          "pytest",
				Markers:       []m.Marker{m.Contains("os.fork(")},
				SkipMessage:   "no",
				GuardTemplate: template,
			})
			require.NoError(t, err, template)

			p, err := registry.Lookup("pytest")
			require.NoError(t, err)
			assert.NotContains(t, guardStatement(p), "%!")
		}
	})

	t.Run("profile without name is rejected", func(t *testing.T) {
		_, err := NewProfileRegistry(m.Profile{Markers: []m.Marker{m.Contains("x")}})
		require.ErrorIs(t, err, ErrInvalidProfile)
	})
}
