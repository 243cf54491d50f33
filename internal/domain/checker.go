package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"skipguard.dev/pkg/skipguard/internal/adapter"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

// DefaultArchiveSpec looks for the compiled C extensions inside the
// pythonhome zip bundled in a support package.
func DefaultArchiveSpec() m.ArchiveSpec {
	return m.ArchiveSpec{
		NestedContains: "pythonhome.",
		NestedSuffix:   ".zip",
		MemberContains: "lib/python",
		MemberSuffix:   ".so",
		Fragments:      []string{"_lzma.", "_sqlite3.", "_ctypes.", "_ssl.", "_bz2."},
	}
}

// ArchiveChecker verifies that a nested archive carries the expected members.
type ArchiveChecker interface {
	// Check returns ErrNestedArchiveNotFound when no nested archive matches.
	// A report with missing fragments is not an error; see CheckReport.Passed.
	Check(ctx context.Context, archivePath m.Path, spec m.ArchiveSpec) (m.CheckReport, error)
}

type archiveChecker struct {
	adapter.ArchiveAdapter
}

// NewArchiveChecker creates an ArchiveChecker.
func NewArchiveChecker(archiveAdapter adapter.ArchiveAdapter) ArchiveChecker {
	return &archiveChecker{ArchiveAdapter: archiveAdapter}
}

func (c *archiveChecker) Check(ctx context.Context, archivePath m.Path, spec m.ArchiveSpec) (m.CheckReport, error) {
	report := m.CheckReport{Archive: archivePath}

	outer, err := c.OpenArchive(ctx, archivePath)
	if err != nil {
		return report, fmt.Errorf("failed to open %s: %w", archivePath, err)
	}

	defer func() { _ = outer.Close() }()

	nestedName, ok := findNested(outer.Names(), spec)
	if !ok {
		return report, fmt.Errorf("%w: no %s*%s in %s", ErrNestedArchiveNotFound, spec.NestedContains, spec.NestedSuffix, archivePath)
	}

	report.Nested = nestedName

	slog.Debug("found nested archive", "archive", archivePath, "nested", nestedName)

	nested, err := outer.OpenNested(ctx, nestedName)
	if err != nil {
		return report, err
	}

	defer func() { _ = nested.Close() }()

	report.Results = scanFragments(nested.Names(), spec)

	for _, res := range report.Results {
		slog.Info("fragment checked", "fragment", res.Fragment, "member", res.Member, "found", res.Found())
	}

	return report, nil
}

func findNested(names []string, spec m.ArchiveSpec) (string, bool) {
	return lo.Find(names, func(name string) bool {
		return strings.Contains(name, spec.NestedContains) && strings.HasSuffix(name, spec.NestedSuffix)
	})
}

// scanFragments records, for each fragment, the first eligible member that
// contains it.
func scanFragments(names []string, spec m.ArchiveSpec) []m.FragmentResult {
	results := make([]m.FragmentResult, len(spec.Fragments))
	for i, fragment := range spec.Fragments {
		results[i].Fragment = fragment
	}

	for _, name := range names {
		if !strings.Contains(name, spec.MemberContains) || !strings.HasSuffix(name, spec.MemberSuffix) {
			continue
		}

		for i := range results {
			if results[i].Found() {
				continue
			}

			if strings.Contains(name, results[i].Fragment) {
				results[i].Member = name
			}
		}
	}

	return results
}
