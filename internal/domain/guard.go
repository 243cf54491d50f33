package domain

import (
	"fmt"
	"regexp"
	"strings"

	m "skipguard.dev/pkg/skipguard/internal/model"
)

var leadingSpaces = regexp.MustCompile("^( +)")

// guardPlan is the computed rewrite of one file.
type guardPlan struct {
	matches        []m.Match
	importInserted bool
	output         []byte
}

// matchesLine reports whether line carries any of the markers.
func matchesLine(line string, markers []m.Marker) bool {
	for _, marker := range markers {
		if !strings.Contains(line, marker.Contains) {
			continue
		}

		excluded := false

		for _, unless := range marker.Unless {
			if strings.Contains(line, unless) {
				excluded = true
				break
			}
		}

		if !excluded {
			return true
		}
	}

	return false
}

// findMatches returns every line that contains a marker, in file order.
func findMatches(lines []string, markers []m.Marker) []m.Match {
	var matches []m.Match

	for i, line := range lines {
		if matchesLine(line, markers) {
			matches = append(matches, m.Match{Index: i, Line: line})
		}
	}

	return matches
}

// indentOf returns the run of leading spaces. Tabs are not indentation.
func indentOf(line string) string {
	return leadingSpaces.FindString(line)
}

// guardStatement renders the statement that raises the skip signal.
func guardStatement(profile m.Profile) string {
	template := profile.GuardTemplate
	if template == "" {
		template = m.DefaultGuardTemplate
	}

	return fmt.Sprintf(template, profile.SkipMessage)
}

func importLine(profile m.Profile) string {
	if profile.ImportLine == "" {
		return m.DefaultImportLine
	}

	return profile.ImportLine
}

// planGuards computes the patched content. A nil plan means no marker
// matched and the file must be left alone.
func planGuards(content string, profile m.Profile) *guardPlan {
	lines := strings.Split(content, "\n")

	matches := findMatches(lines, profile.Markers)
	if len(matches) == 0 {
		return nil
	}

	plan := &guardPlan{matches: matches}
	out := make([]string, 0, len(lines)+len(matches)+1)

	imp := importLine(profile)
	if !strings.Contains(content, imp+"\n") {
		out = append(out, imp)
		plan.importInserted = true
	}

	guard := guardStatement(profile)
	next := 0

	for i, line := range lines {
		if next < len(matches) && matches[next].Index == i {
			out = append(out, indentOf(line)+guard)
			next++
		}

		out = append(out, line)
	}

	plan.output = []byte(strings.Join(out, "\n"))

	return plan
}
