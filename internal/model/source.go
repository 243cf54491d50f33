// Package model defines the data structures shared by the patcher and the
// archive checker.
package model

// Path represents a file system path.
type Path string

// String returns the path as a plain string.
func (p Path) String() string {
	return string(p)
}

// Match is a line that contains at least one marker.
type Match struct {
	Index int
	Line  string
}
