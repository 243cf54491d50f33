// Package controller renders patch and check results for the CLI.
package controller

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

// ProfileFormat selects how profiles are listed.
type ProfileFormat string

// Available ProfileFormat values.
const (
	FormatTable ProfileFormat = "table"
	FormatYAML  ProfileFormat = "yaml"
)

// UI defines how results reach the user.
type UI interface {
	DisplayPatchResult(ctx context.Context, result m.PatchResult)
	DisplayPatchSummary(ctx context.Context, results []m.PatchResult)
	DisplayNestedNotFound(ctx context.Context, archive m.Path, spec m.ArchiveSpec)
	DisplayCheckReport(ctx context.Context, report m.CheckReport)
	DisplayProfiles(ctx context.Context, profiles []m.Profile, format ProfileFormat) error
}

// NewUI returns the UI used by the CLI. Styling is only applied on a terminal.
func NewUI(cmd *cobra.Command, tty bool) UI {
	ui := NewSimpleUI(cmd)
	ui.styled = tty

	return ui
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
