package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"skipguard.dev/pkg/skipguard/internal/adapter"
	"skipguard.dev/pkg/skipguard/internal/controller"
	m "skipguard.dev/pkg/skipguard/internal/model"
)

// PatchArgs contains the arguments for a patch run.
type PatchArgs struct {
	// Paths are processed in order. Glob patterns are expanded in place.
	Paths   []string
	Profile string
	// Profiles are user defined profiles that override built-ins by name.
	Profiles []m.Profile
	DryRun   bool
	Quiet    bool
}

// CheckArgs contains the arguments for an archive check.
type CheckArgs struct {
	Archive m.Path
	Spec    m.ArchiveSpec
}

// ProfilesArgs contains the arguments for listing profiles.
type ProfilesArgs struct {
	Profiles []m.Profile
	Format   controller.ProfileFormat
}

// Workflow drives the CLI commands.
type Workflow interface {
	Patch(ctx context.Context, args PatchArgs) error
	Check(ctx context.Context, args CheckArgs) error
	Profiles(ctx context.Context, args ProfilesArgs) error
}

type workflow struct {
	adapter.SourceFSAdapter
	controller.UI
	Patcher
	ArchiveChecker
}

// NewWorkflow creates a Workflow with the provided dependencies.
func NewWorkflow(
	fsAdapter adapter.SourceFSAdapter,
	ui controller.UI,
	patcher Patcher,
	checker ArchiveChecker,
) Workflow {
	return &workflow{
		SourceFSAdapter: fsAdapter,
		UI:              ui,
		Patcher:         patcher,
		ArchiveChecker:  checker,
	}
}

// Patch processes every path sequentially. The first read or write error
// aborts the run.
func (w *workflow) Patch(ctx context.Context, args PatchArgs) error {
	registry, err := NewProfileRegistry(args.Profiles...)
	if err != nil {
		return err
	}

	name := args.Profile
	if name == "" {
		name = DefaultProfile
	}

	profile, err := registry.Lookup(name)
	if err != nil {
		return err
	}

	slog.Info("patch run started", "profile", profile.Name, "args", len(args.Paths), "dry_run", args.DryRun)

	var results []m.PatchResult

	for _, arg := range args.Paths {
		paths, err := w.Expand(ctx, arg)
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			slog.Warn("pattern matched no files", "pattern", arg)
		}

		for _, path := range paths {
			result, err := w.patchOne(ctx, path, profile, args.DryRun)
			if err != nil {
				return err
			}

			if args.DryRun {
				w.DisplayPatchResult(ctx, result)
			}

			results = append(results, result)
		}
	}

	if !args.Quiet {
		w.DisplayPatchSummary(ctx, results)
	}

	slog.Info("patch run finished", "files", len(results))

	return nil
}

func (w *workflow) patchOne(ctx context.Context, path m.Path, profile m.Profile, dryRun bool) (m.PatchResult, error) {
	if dryRun {
		return w.Preview(ctx, path, profile)
	}

	return w.Patcher.Patch(ctx, path, profile)
}

// Check runs the archive checker and reports through the UI.
func (w *workflow) Check(ctx context.Context, args CheckArgs) error {
	report, err := w.ArchiveChecker.Check(ctx, args.Archive, args.Spec)
	if errors.Is(err, ErrNestedArchiveNotFound) {
		w.DisplayNestedNotFound(ctx, args.Archive, args.Spec)
		return err
	}

	if err != nil {
		return err
	}

	w.DisplayCheckReport(ctx, report)

	if !report.Passed() {
		missing := lo.CountBy(report.Results, func(res m.FragmentResult) bool { return !res.Found() })

		return fmt.Errorf("%w: %d of %d within %s", ErrMissingFragments, missing, len(report.Results), report.Nested)
	}

	return nil
}

// Profiles lists built-in and configured profiles.
func (w *workflow) Profiles(ctx context.Context, args ProfilesArgs) error {
	registry, err := NewProfileRegistry(args.Profiles...)
	if err != nil {
		return err
	}

	return w.DisplayProfiles(ctx, registry.List(), args.Format)
}
