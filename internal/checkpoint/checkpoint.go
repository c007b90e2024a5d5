// Package checkpoint provides read access to the files of a checkpoint.
//
// Manifest construction consumes a Reader; the package neither writes
// checkpoints nor decides their on-disk layout. A Reader must list files in
// a stable order and return identical content across repeated reads of the
// same checkpoint.
package checkpoint

// FileEntry identifies one checkpoint file.
type FileEntry struct {
	// RelPath is the path relative to the checkpoint root, with forward
	// slashes.
	RelPath string
	// SizeBytes is the file size.
	SizeBytes uint64
}

// Reader gives ordered, random access to checkpoint file contents.
type Reader interface {
	// Files returns the checkpoint files in stable order.
	Files() ([]FileEntry, error)
	// ReadAt fills p with the file's bytes starting at offset. It fails if
	// fewer than len(p) bytes are available.
	ReadAt(relPath string, offset uint64, p []byte) error
}
