package manifest

import (
	"sort"

	"github.com/kk-code-lab/statesync/internal/chunkid"
)

// MaxGroupedFileSize is the default ceiling for bundling a file into a
// file group chunk (8 KiB). Files this small always occupy a single chunk,
// so grouping them amortizes per-chunk transfer overhead.
const MaxGroupedFileSize = 8 << 10

// FileGroupChunks maps synthetic wire chunk ids (at or above
// chunkid.FileGroupChunkIDOffset) to the ordered chunk table indices they
// bundle. It is read-only after construction.
type FileGroupChunks struct {
	groups map[uint32][]uint32
	ids    []uint32
}

// NewFileGroupChunks wraps a finished id-to-indices mapping.
func NewFileGroupChunks(groups map[uint32][]uint32) *FileGroupChunks {
	ids := make([]uint32, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &FileGroupChunks{groups: groups, ids: ids}
}

// Len returns the number of groups.
func (f *FileGroupChunks) Len() int {
	return len(f.ids)
}

// IsEmpty reports whether no groups exist.
func (f *FileGroupChunks) IsEmpty() bool {
	return len(f.ids) == 0
}

// IDs returns the group chunk ids in ascending order. The slice is shared;
// callers must not modify it.
func (f *FileGroupChunks) IDs() []uint32 {
	return f.ids
}

// Get returns the chunk table indices bundled under the given id.
func (f *FileGroupChunks) Get(id uint32) ([]uint32, bool) {
	indices, ok := f.groups[id]
	return indices, ok
}

// ForEach visits every group in ascending id order.
func (f *FileGroupChunks) ForEach(fn func(id uint32, indices []uint32)) {
	for _, id := range f.ids {
		fn(id, f.groups[id])
	}
}

// Last returns the largest assigned id, letting a builder pick the next
// free id without scanning. ok is false iff there are no groups.
func (f *FileGroupChunks) Last() (id uint32, ok bool) {
	if len(f.ids) == 0 {
		return 0, false
	}
	return f.ids[len(f.ids)-1], true
}

// GroupPolicy decides whether a file is a bundling candidate.
type GroupPolicy func(f FileInfo) bool

// DefaultGroupPolicy bundles non-empty files below MaxGroupedFileSize.
func DefaultGroupPolicy(f FileInfo) bool {
	return f.SizeBytes > 0 && f.SizeBytes < MaxGroupedFileSize
}

// BuildFileGroups bundles candidate files' whole chunk table slices under
// synthetic chunk ids, packing each group up to DefaultChunkSize bytes.
// Ids are assigned from chunkid.FileGroupChunkIDOffset upward in file
// order. A nil policy means DefaultGroupPolicy.
func BuildFileGroups(m *Manifest, policy GroupPolicy) *FileGroupChunks {
	if policy == nil {
		policy = DefaultGroupPolicy
	}

	groups := make(map[uint32][]uint32)
	id := chunkid.FileGroupChunkIDOffset
	var current []uint32
	var currentBytes uint64

	flush := func() {
		if len(current) == 0 {
			return
		}
		groups[id] = current
		id++
		current = nil
		currentBytes = 0
	}

	// The chunk table is ordered by file, so one pass collects each file's
	// contiguous index range.
	start := 0
	for fi, f := range m.FileTable {
		end := start
		for end < len(m.ChunkTable) && m.ChunkTable[end].FileIndex == uint32(fi) {
			end++
		}
		if policy(f) {
			if currentBytes+f.SizeBytes > DefaultChunkSize {
				flush()
			}
			for ci := start; ci < end; ci++ {
				current = append(current, uint32(ci))
			}
			currentBytes += f.SizeBytes
		}
		start = end
	}
	flush()

	return NewFileGroupChunks(groups)
}
