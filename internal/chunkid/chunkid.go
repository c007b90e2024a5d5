// Package chunkid defines the flat 32-bit wire chunk id space used during
// state sync and classifies ids into the four transferable chunk kinds.
//
// The id space is partitioned as follows:
//
//	0                      meta-manifest chunk
//	[1, 1<<30)             file chunks (chunk table index + 1)
//	[1<<30, 1<<31)         file group chunks (the id itself is the lookup key)
//	[1<<31, 1<<32)         manifest chunks (encoded-manifest piece index + 1<<31)
//
// The chunk table of any realistic checkpoint stays far below 1<<30 entries,
// and there are fewer file groups than chunk table entries, so both offsets
// leave ample headroom.
package chunkid

import "fmt"

const (
	// MetaManifestChunkID is the id of the meta-manifest chunk.
	MetaManifestChunkID uint32 = 0

	// FileChunkIDOffset is the id of the first file chunk. File chunk ids
	// start from 1 because id 0 is taken by the meta-manifest.
	FileChunkIDOffset uint32 = 1

	// FileGroupChunkIDOffset is the first id assigned to chunks bundling
	// several small files.
	FileGroupChunkIDOffset uint32 = 1 << 30

	// ManifestChunkIDOffset is the first id of the chunks carrying the
	// encoded manifest itself.
	ManifestChunkIDOffset uint32 = 1 << 31
)

// The file group range must sit strictly below the manifest range.
const _ uint32 = ManifestChunkIDOffset - FileGroupChunkIDOffset - 1

// Kind is the category of a wire chunk.
type Kind uint8

const (
	// KindMetaManifest is the single chunk carrying the encoded meta-manifest.
	KindMetaManifest Kind = iota
	// KindFile is a raw chunk of a checkpoint file.
	KindFile
	// KindFileGroup is a synthetic chunk bundling several small files.
	KindFileGroup
	// KindManifest is one piece of the encoded manifest.
	KindManifest
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMetaManifest:
		return "meta-manifest"
	case KindFile:
		return "file"
	case KindFileGroup:
		return "file-group"
	case KindManifest:
		return "manifest"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Ref is the classification of a wire chunk id: its kind plus the
// kind-relative index. For KindFile and KindManifest the index is 0-based
// within the kind; for KindFileGroup it is the original id, which is the
// lookup key into the file group table; for KindMetaManifest it is 0.
type Ref struct {
	Kind  Kind
	Index uint32
}

// Classify maps a wire chunk id to its kind and index. It is total: every
// 32-bit id belongs to exactly one kind.
func Classify(id uint32) Ref {
	switch {
	case id == MetaManifestChunkID:
		return Ref{Kind: KindMetaManifest}
	case id < FileGroupChunkIDOffset:
		return Ref{Kind: KindFile, Index: id - FileChunkIDOffset}
	case id < ManifestChunkIDOffset:
		return Ref{Kind: KindFileGroup, Index: id}
	default:
		return Ref{Kind: KindManifest, Index: id - ManifestChunkIDOffset}
	}
}

// FileChunkID returns the wire id of the chunk at the given chunk table index.
func FileChunkID(tableIndex uint32) uint32 {
	return tableIndex + FileChunkIDOffset
}

// ManifestChunkID returns the wire id of the nth encoded-manifest piece.
func ManifestChunkID(pieceIndex uint32) uint32 {
	return pieceIndex + ManifestChunkIDOffset
}
