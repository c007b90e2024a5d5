package checkpoint

import (
	"fmt"
	"sort"
)

// MemReader is an in-memory Reader, ordered by path. It exists for tests
// and tooling that assemble checkpoints without a filesystem.
type MemReader struct {
	entries []FileEntry
	data    map[string][]byte
}

// NewMemReader builds a reader over the given path-to-content map.
func NewMemReader(files map[string][]byte) *MemReader {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	entries := make([]FileEntry, 0, len(paths))
	data := make(map[string][]byte, len(paths))
	for _, path := range paths {
		content := append([]byte(nil), files[path]...)
		entries = append(entries, FileEntry{RelPath: path, SizeBytes: uint64(len(content))})
		data[path] = content
	}
	return &MemReader{entries: entries, data: data}
}

// Files returns the entries in sorted path order.
func (r *MemReader) Files() ([]FileEntry, error) {
	return r.entries, nil
}

// ReadAt copies an exact byte range of one file into p.
func (r *MemReader) ReadAt(relPath string, offset uint64, p []byte) error {
	content, ok := r.data[relPath]
	if !ok {
		return fmt.Errorf("checkpoint: no such file %q", relPath)
	}
	if offset+uint64(len(p)) > uint64(len(content)) {
		return fmt.Errorf("checkpoint: read past end of %q", relPath)
	}
	copy(p, content[offset:])
	return nil
}
