package domain

import "errors"

var (
	// ErrUnknownProfile is returned when a profile name is not registered.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrInvalidProfile is returned for profiles without markers.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrNestedArchiveNotFound is returned when no nested archive matches.
	ErrNestedArchiveNotFound = errors.New("nested archive not found")
	// ErrMissingFragments is returned when expected members are missing.
	ErrMissingFragments = errors.New("missing expected archive members")
)
