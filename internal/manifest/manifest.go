// Package manifest models a checkpoint as a file table plus a chunk table
// and computes their version-dependent, domain-separated hashes.
//
// A manifest enumerates every chunk of every checkpoint file. The chunk
// table is ordered by file and then by offset; the wire id of a file chunk
// is its chunk table index plus one, so this order is load-bearing. The
// manifest itself is encoded, split into sub-manifest pieces, and described
// by a small meta-manifest whose hash is the externally trusted checkpoint
// hash from V2 on.
//
// Values built here are immutable once constructed and shared by pointer;
// nothing in this package mutates a manifest after Build returns it.
package manifest

// DefaultChunkSize is the maximum size of a file chunk (1 MiB).
const DefaultChunkSize = 1 << 20

// DefaultSubManifestSize is the maximum size of one piece of the encoded
// manifest (1 MiB). It equals DefaultChunkSize today but is an independent
// wire parameter; never derive one from the other.
const DefaultSubManifestSize = 1 << 20

// FileInfo is an entry of the file table.
type FileInfo struct {
	// RelPath is the file path relative to the checkpoint root, with
	// forward slashes.
	RelPath string
	// SizeBytes is the total file size.
	SizeBytes uint64
	// Hash covers this file's slice of the chunk table. See FileHash.
	Hash [32]byte
}

// ChunkInfo is an entry of the chunk table.
type ChunkInfo struct {
	// FileIndex is the index of the owning file in the file table.
	FileIndex uint32
	// SizeBytes is the chunk size. Every chunk of a file except the last
	// has the full chunk size.
	SizeBytes uint32
	// Offset is the chunk's byte offset within the file.
	Offset uint64
	// Hash covers the raw chunk content. See ChunkHash.
	Hash [32]byte
}

// ByteRange returns the half-open byte range [start, end) this chunk
// occupies within its file.
func (c ChunkInfo) ByteRange() (start, end uint64) {
	return c.Offset, c.Offset + uint64(c.SizeBytes)
}

// Manifest describes one checkpoint. A file's chunk entries are contiguous
// in the chunk table, ordered by offset, and tile [0, SizeBytes) exactly.
//
// Manifests are immutable after construction: share them by pointer, never
// mutate one in place. A new checkpoint gets a freshly built manifest.
type Manifest struct {
	Version    Version
	FileTable  []FileInfo
	ChunkTable []ChunkInfo
}

// New assembles a manifest from already-computed tables.
func New(version Version, fileTable []FileInfo, chunkTable []ChunkInfo) *Manifest {
	return &Manifest{
		Version:    version,
		FileTable:  fileTable,
		ChunkTable: chunkTable,
	}
}

// MetaManifest records how the encoded manifest was split and hashed: one
// hash per consecutive piece of at most the sub-manifest size. The piece
// bytes themselves are not stored; they are recovered by re-encoding the
// manifest and re-slicing.
type MetaManifest struct {
	Version           Version
	SubManifestHashes [][32]byte
}
