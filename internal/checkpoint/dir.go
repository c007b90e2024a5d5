package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Dir reads a checkpoint laid out as a plain directory tree. File order is
// the sorted slash-path order, which is stable across reads and hosts.
type Dir struct {
	root string
}

// OpenDir opens a checkpoint directory.
func OpenDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("checkpoint: %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

// Files walks the tree and returns all regular files in sorted path order.
func (d *Dir) Files() ([]FileEntry, error) {
	var entries []FileEntry
	err := filepath.WalkDir(d.root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.Type().IsRegular() {
			return nil
		}
		info, err := de.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{
			RelPath:   filepath.ToSlash(rel),
			SizeBytes: uint64(info.Size()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}

// ReadAt reads an exact byte range of one file.
func (d *Dir) ReadAt(relPath string, offset uint64, p []byte) error {
	file, err := os.Open(filepath.Join(d.root, filepath.FromSlash(relPath)))
	if err != nil {
		return err
	}
	defer file.Close()
	n, err := file.ReadAt(p, int64(offset))
	if errors.Is(err, io.EOF) && n == len(p) {
		return nil
	}
	return err
}
