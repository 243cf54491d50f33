package model

// Default values used when a profile leaves a field empty.
const (
	DefaultImportLine    = "import unittest"
	DefaultGuardTemplate = "raise unittest.SkipTest(%q)"
)

// Marker identifies a statement that must not execute in the target
// environment. A line matches when it contains Contains and none of Unless.
type Marker struct {
	Contains string   `mapstructure:"contains" yaml:"contains"`
	Unless   []string `mapstructure:"unless" yaml:"unless,omitempty"`
}

// Profile bundles the markers and guard text for one patching run.
type Profile struct {
	Name            string   `mapstructure:"name" yaml:"name"`
	Description     string   `mapstructure:"description" yaml:"description,omitempty"`
	Markers         []Marker `mapstructure:"markers" yaml:"markers"`
	SkipMessage     string   `mapstructure:"skip_message" yaml:"skip_message"`
	ImportLine      string   `mapstructure:"import_line" yaml:"import_line,omitempty"`
	GuardTemplate   string   `mapstructure:"guard_template" yaml:"guard_template,omitempty"`
	ExcludeSuffixes []string `mapstructure:"exclude_suffixes" yaml:"exclude_suffixes,omitempty"`
}

// Contains is a convenience constructor for a marker without exclusions.
func Contains(substr string) Marker {
	return Marker{Contains: substr}
}
