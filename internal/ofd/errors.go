package ofd

import "errors"

// Sentinel errors for package access.
var (
	// ErrNotOFD indicates the input is not a zip archive with an OFD.xml entry.
	ErrNotOFD = errors.New("not an OFD package")

	// ErrMissingPart indicates a part referenced by the package does not exist.
	ErrMissingPart = errors.New("missing package part")

	// ErrPartTooLarge indicates a part or the whole archive exceeds the size limit.
	ErrPartTooLarge = errors.New("package part too large")
)

// Sentinel errors for content parsing.
var (
	ErrBadXML  = errors.New("malformed XML part")
	ErrBadPath = errors.New("malformed path data")
)
