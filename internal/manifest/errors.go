package manifest

import (
	"encoding/hex"
	"fmt"
)

// VersionError reports a decoded version with no known variant or above
// MaxSupportedVersion. It is fatal: no partial interpretation is attempted.
type VersionError struct {
	Got uint32
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("manifest: unsupported version %d (max supported %d)", e.Got, uint32(MaxSupportedVersion))
}

// DecodeError reports a codec parse failure with its underlying cause.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("manifest: decode failed: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// HashMismatchError reports a recomputed hash differing from the declared
// one. It implicates only the named piece: siblings verified earlier stay
// valid, and the caller refetches just this piece.
type HashMismatchError struct {
	// Kind names what was hashed: "chunk", "file", "sub-manifest",
	// "manifest" or "meta-manifest".
	Kind string
	// Index is the position within the kind's table, or -1 when the kind
	// has a single instance.
	Index int
	Want  [32]byte
	Got   [32]byte
}

func (e *HashMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("manifest: %s hash mismatch: want %s, got %s",
			e.Kind, hex.EncodeToString(e.Want[:]), hex.EncodeToString(e.Got[:]))
	}
	return fmt.Sprintf("manifest: %s %d hash mismatch: want %s, got %s",
		e.Kind, e.Index, hex.EncodeToString(e.Want[:]), hex.EncodeToString(e.Got[:]))
}

// StructureError reports a violated table invariant: an out-of-range file
// index, or chunk offsets that gap, overlap, or fail to tile their file.
// It indicates corruption or malicious construction and is never recovered
// from.
type StructureError struct {
	Reason string
}

func (e *StructureError) Error() string {
	return "manifest: invalid structure: " + e.Reason
}

func structuralf(format string, args ...any) error {
	return &StructureError{Reason: fmt.Sprintf(format, args...)}
}
