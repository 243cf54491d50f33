package model

// PatchStatus describes what happened to a single file.
type PatchStatus int

const (
	// Unchanged means no marker matched and the file was not written.
	Unchanged PatchStatus = iota
	// Patched means guards were inserted and the file was rewritten.
	Patched
	// SkippedExcluded means the file matched an excluded suffix.
	SkippedExcluded
	// SkippedUndecodable means the file was not valid UTF-8 text.
	SkippedUndecodable
)

func (s PatchStatus) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Patched:
		return "patched"
	case SkippedExcluded:
		return "skipped (excluded)"
	case SkippedUndecodable:
		return "skipped (not text)"
	default:
		return "unknown"
	}
}

// PatchResult is the outcome of patching one file.
type PatchResult struct {
	Path           Path
	Status         PatchStatus
	Guards         int
	ImportInserted bool
	Diff           string // only populated for dry runs
}

// ArchiveSpec describes what the archive checker looks for.
type ArchiveSpec struct {
	NestedContains string   `mapstructure:"nested_contains"`
	NestedSuffix   string   `mapstructure:"nested_suffix"`
	MemberContains string   `mapstructure:"member_contains"`
	MemberSuffix   string   `mapstructure:"member_suffix"`
	Fragments      []string `mapstructure:"fragments"`
}

// FragmentResult records where an expected fragment was found, if anywhere.
type FragmentResult struct {
	Fragment string
	Member   string
}

// Found reports whether a member carrying the fragment was seen.
func (f FragmentResult) Found() bool {
	return f.Member != ""
}

// CheckReport is the outcome of scanning a nested archive.
type CheckReport struct {
	Archive Path
	Nested  string
	Results []FragmentResult
}

// Passed reports whether every fragment was found.
func (r CheckReport) Passed() bool {
	for _, res := range r.Results {
		if !res.Found() {
			return false
		}
	}

	return true
}
