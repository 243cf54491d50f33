package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

// Built-in profile names.
const (
	ProfileSubprocess = "subprocess"
	ProfileAndroid    = "android"

	DefaultProfile = ProfileAndroid
)

// BuiltinProfiles returns the profiles shipped with the tool.
func BuiltinProfiles() []m.Profile {
	return []m.Profile{
		{
			Name:        ProfileSubprocess,
			Description: "tests that spawn subprocesses through subprocess.Popen",
			Markers:     []m.Marker{m.Contains("subprocess.Popen(")},
			SkipMessage: "Skipping because subprocess not available",
		},
		{
			Name:        ProfileAndroid,
			Description: "statements that cannot run for Python inside an Android app",
			Markers: []m.Marker{
				// distutils is hacked to link every extension against libpython.
				m.Contains("# others arguments have defaults"),
				// directories are created as 02700, not 0700.
				m.Contains("# Get and set the current umask value for testing mode bits."),
				m.Contains("then check that the filter works on individual files"),
				m.Contains("subprocess.run("),
				m.Contains("subprocess.check_output("),
				m.Contains("subprocess.check_call("),
				m.Contains(" spawn("),
				m.Contains("platform.popen("),
				m.Contains("os.popen("),
				m.Contains("os.spawnl("),
				m.Contains("with Popen("),
				m.Contains("pydoc._start_server"),
				m.Contains("= self.decide_itimer_count()"),
				m.Contains(" self.assertEqual(set(os.listdir()), set(os.listdir(os.sep)))"),
				{Contains: " os.get_terminal_size()", Unless: []string{" os.get_terminal_size()'"}},
				m.Contains(" self.assertEqual(exitcode, self.exitcode)"),
				m.Contains(" os.spawnv("),
				// gr_name and pw_gecos come back as None.
				m.Contains("self.assertIsInstance(value.gr_name, str)"),
				m.Contains("self.assertIsInstance(e.pw_gecos, str)"),
				// hangs in test_socketserver.
				m.Contains("test.support.get_attribute(signal, 'pthread_kill')"),
			},
			SkipMessage:     "Skipping this test for Python within an Android app",
			ExcludeSuffixes: []string{"script_helper.py"},
		},
	}
}

// ProfileRegistry resolves profiles by name.
type ProfileRegistry interface {
	Lookup(name string) (m.Profile, error)
	List() []m.Profile
}

type profileRegistry struct {
	profiles map[string]m.Profile
}

// NewProfileRegistry builds a registry from the built-in profiles, with
// custom profiles replacing built-ins of the same name.
func NewProfileRegistry(custom ...m.Profile) (ProfileRegistry, error) {
	registry := &profileRegistry{profiles: make(map[string]m.Profile)}

	for _, p := range BuiltinProfiles() {
		registry.profiles[p.Name] = p
	}

	for _, p := range custom {
		normalized, err := normalizeProfile(p)
		if err != nil {
			return nil, err
		}

		registry.profiles[normalized.Name] = normalized
	}

	return registry, nil
}

func normalizeProfile(p m.Profile) (m.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return m.Profile{}, fmt.Errorf("%w: missing name", ErrInvalidProfile)
	}

	p.Markers = lo.UniqBy(
		lo.Filter(p.Markers, func(mk m.Marker, _ int) bool { return mk.Contains != "" }),
		func(mk m.Marker) string { return mk.Contains + "\x00" + strings.Join(mk.Unless, "\x00") },
	)
	if len(p.Markers) == 0 {
		return m.Profile{}, fmt.Errorf("%w: profile %q has no markers", ErrInvalidProfile, p.Name)
	}

	if p.GuardTemplate != "" && !validGuardTemplate(p.GuardTemplate) {
		return m.Profile{}, fmt.Errorf("%w: profile %q guard_template %q needs exactly one %%q or %%s verb",
			ErrInvalidProfile, p.Name, p.GuardTemplate)
	}

	p.ExcludeSuffixes = lo.Compact(p.ExcludeSuffixes)

	return p, nil
}

// validGuardTemplate reports whether template holds exactly one %q or %s
// verb for the skip message. %% is allowed; any other verb is not.
func validGuardTemplate(template string) bool {
	verbs := 0

	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}

		if i+1 == len(template) {
			return false
		}

		i++

		switch template[i] {
		case '%':
		case 'q', 's':
			verbs++
		default:
			return false
		}
	}

	return verbs == 1
}

// Lookup returns the named profile.
func (r *profileRegistry) Lookup(name string) (m.Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return m.Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(r.names(), ", "))
	}

	return p, nil
}

// List returns all profiles sorted by name.
func (r *profileRegistry) List() []m.Profile {
	names := r.names()

	return lo.Map(names, func(name string, _ int) m.Profile { return r.profiles[name] })
}

func (r *profileRegistry) names() []string {
	names := lo.Keys(r.profiles)
	sort.Strings(names)

	return names
}
