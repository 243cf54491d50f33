// Package domain contains the source patcher, the archive checker and the
// workflow that drives them from the CLI.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"skipguard.dev/pkg/skipguard/internal/adapter"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

// Patcher inserts skip guards in front of marked lines.
type Patcher interface {
	// Patch rewrites path in place when at least one line matches.
	Patch(ctx context.Context, path m.Path, profile m.Profile) (m.PatchResult, error)
	// Preview computes the same rewrite without touching the file and
	// returns it as a unified diff.
	Preview(ctx context.Context, path m.Path, profile m.Profile) (m.PatchResult, error)
}

type patcher struct {
	adapter.SourceFSAdapter
}

// NewPatcher creates a Patcher on top of the given filesystem adapter.
func NewPatcher(fsAdapter adapter.SourceFSAdapter) Patcher {
	return &patcher{SourceFSAdapter: fsAdapter}
}

func (p *patcher) Patch(ctx context.Context, path m.Path, profile m.Profile) (m.PatchResult, error) {
	result, content, plan, err := p.plan(ctx, path, profile)
	if err != nil || plan == nil {
		return result, err
	}

	if err := p.OverwriteFile(ctx, path, plan.output); err != nil {
		return result, fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Info("patched file",
		"path", path,
		"profile", profile.Name,
		"guards", result.Guards,
		"import_inserted", result.ImportInserted,
		"bytes_before", len(content),
		"bytes_after", len(plan.output),
	)

	return result, nil
}

func (p *patcher) Preview(ctx context.Context, path m.Path, profile m.Profile) (m.PatchResult, error) {
	result, content, plan, err := p.plan(ctx, path, profile)
	if err != nil || plan == nil {
		return result, err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(content)),
		B:        difflib.SplitLines(string(plan.output)),
		FromFile: string(path),
		ToFile:   string(path) + " (patched)",
		Context:  1,
	})
	if err != nil {
		return result, fmt.Errorf("failed to diff %s: %w", path, err)
	}

	result.Diff = diff

	return result, nil
}

// plan reads path and computes the rewrite. A nil plan with a nil error
// means there is nothing to write; result.Status says why.
func (p *patcher) plan(ctx context.Context, path m.Path, profile m.Profile) (m.PatchResult, []byte, *guardPlan, error) {
	result := m.PatchResult{Path: path, Status: m.Unchanged}

	if suffix, ok := excludedBy(path, profile.ExcludeSuffixes); ok {
		slog.Debug("skipping excluded file", "path", path, "suffix", suffix)

		result.Status = m.SkippedExcluded

		return result, nil, nil, nil
	}

	content, err := p.ReadFile(ctx, path)
	if err != nil {
		return result, nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !utf8.Valid(content) {
		slog.Debug("skipping file that is not valid UTF-8", "path", path)

		result.Status = m.SkippedUndecodable

		return result, content, nil, nil
	}

	plan := planGuards(string(content), profile)
	if plan == nil {
		slog.Debug("no markers found", "path", path, "profile", profile.Name)
		return result, content, nil, nil
	}

	result.Status = m.Patched
	result.Guards = len(plan.matches)
	result.ImportInserted = plan.importInserted

	for _, match := range plan.matches {
		slog.Debug("guarding line", "path", path, "line", match.Index+1, "text", strings.TrimSpace(match.Line))
	}

	return result, content, plan, nil
}

func excludedBy(path m.Path, suffixes []string) (string, bool) {
	for _, suffix := range suffixes {
		if strings.HasSuffix(string(path), suffix) {
			return suffix, true
		}
	}

	return "", false
}
