package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

const (
	passLabel    = "PASS"
	failLabel    = "FAIL"
	missingLabel = "None"
)

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// SimpleUI implements UI by printing to the cobra command's stdout.
type SimpleUI struct {
	cmd    *cobra.Command
	styled bool
}

// NewSimpleUI creates a new SimpleUI without styling.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// DisplayPatchResult prints the diff of a dry run.
func (s *SimpleUI) DisplayPatchResult(ctx context.Context, result m.PatchResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if result.Diff == "" {
		return
	}

	s.printf("%s", result.Diff)

	if !strings.HasSuffix(result.Diff, "\n") {
		s.printf("\n")
	}
}

// DisplayPatchSummary prints a table of the files that were guarded.
func (s *SimpleUI) DisplayPatchSummary(ctx context.Context, results []m.PatchResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\n%s", renderPatchTable(results))
}

func renderPatchTable(results []m.PatchResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Path", "Status", "Guards"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER})

	patched := 0
	guards := 0

	for _, result := range results {
		if result.Status == m.Unchanged {
			continue
		}

		if result.Status == m.Patched {
			patched++
			guards += result.Guards
		}

		table.Append([]string{string(result.Path), result.Status.String(), fmt.Sprintf("%d", result.Guards)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(results)),
		fmt.Sprintf("Patched %d", patched),
		fmt.Sprintf("%d", guards),
	})

	table.Render()

	return tableBuffer.String()
}

// DisplayNestedNotFound prints the abort message of the archive check.
func (s *SimpleUI) DisplayNestedNotFound(ctx context.Context, archive m.Path, spec m.ArchiveSpec) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("No %s*%s in %s. Aborting.\n", spec.NestedContains, spec.NestedSuffix, archive)
}

// DisplayCheckReport prints one PASS/FAIL line per fragment.
func (s *SimpleUI) DisplayCheckReport(ctx context.Context, report m.CheckReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	for _, res := range report.Results {
		label := s.style(passLabel, passStyle)
		member := res.Member

		if !res.Found() {
			label = s.style(failLabel, failStyle)
			member = missingLabel
		}

		s.printf("%s - %s - %s (within %s)\n", label, res.Fragment, member, report.Nested)
	}

	if !report.Passed() {
		s.printf("Missing at least expected one C extension\n")
	}
}

// DisplayProfiles lists profiles as a table or as YAML. The YAML form can be
// pasted into skipguard.yaml as is.
func (s *SimpleUI) DisplayProfiles(ctx context.Context, profiles []m.Profile, format ProfileFormat) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(map[string]map[string][]m.Profile{"profiles": {"custom": profiles}})
		if err != nil {
			return fmt.Errorf("failed to encode profiles: %w", err)
		}

		s.printf("%s", out)

		return nil
	case FormatTable, "":
		s.printf("%s", renderProfilesTable(profiles))
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderProfilesTable(profiles []m.Profile) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Name", "Markers", "Skip message"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, p := range profiles {
		table.Append([]string{p.Name, fmt.Sprintf("%d", len(p.Markers)), p.SkipMessage})
	}

	table.Render()

	return tableBuffer.String()
}

func (s *SimpleUI) style(text string, style lipgloss.Style) string {
	if !s.styled {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
