package manifest

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Domain separation tags. These are wire constants: changing one changes
// every hash of that kind.
const (
	chunkDomain        = "ic-state-chunk"
	fileDomain         = "ic-state-file"
	manifestDomain     = "ic-state-manifest"
	subManifestDomain  = "ic-state-sub-manifest"
	metaManifestDomain = "ic-state-meta-manifest"
)

// hasher is a domain-separated BLAKE3 writer. Integers are written
// big-endian at fixed width, and every variable-length field is length
// prefixed before its content, so two different table splits can never
// concatenate to the same input bytes.
type hasher struct {
	h *blake3.Hasher
}

func newHasher(domain string) hasher {
	h := blake3.New()
	_, _ = h.Write([]byte{byte(len(domain))})
	_, _ = h.Write([]byte(domain))
	return hasher{h: h}
}

func (h hasher) bytes(p []byte) {
	_, _ = h.h.Write(p)
}

func (h hasher) u32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, _ = h.h.Write(buf[:])
}

func (h hasher) u64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, _ = h.h.Write(buf[:])
}

func (h hasher) sum() (out [32]byte) {
	copy(out[:], h.h.Sum(nil))
	return out
}

// ChunkHash hashes raw chunk content.
func ChunkHash(data []byte) [32]byte {
	h := newHasher(chunkDomain)
	h.bytes(data)
	return h.sum()
}

// FileHash hashes one file's slice of the chunk table. From V3 on the file
// index is omitted from each entry, so a file's hash no longer depends on
// where other files sit in the file table.
func FileHash(version Version, chunks []ChunkInfo) [32]byte {
	h := newHasher(fileDomain)
	h.u32(uint32(len(chunks)))
	for _, c := range chunks {
		if version < V3 {
			h.u32(c.FileIndex)
		}
		h.u32(c.SizeBytes)
		h.u64(c.Offset)
		h.bytes(c.Hash[:])
	}
	return h.sum()
}

// TableHash computes the legacy manifest hash over the tables. V0 hashes
// the file table only, without a version field; V1 adds the version and the
// chunk table. For V2 and later manifests the result is still well defined
// but is not the trusted hash; use RootHash.
func TableHash(m *Manifest) [32]byte {
	h := newHasher(manifestDomain)
	if m.Version >= V1 {
		h.u32(uint32(m.Version))
	}
	h.u32(uint32(len(m.FileTable)))
	for _, f := range m.FileTable {
		h.u32(uint32(len(f.RelPath)))
		h.bytes([]byte(f.RelPath))
		h.u64(f.SizeBytes)
		h.bytes(f.Hash[:])
	}
	if m.Version >= V1 {
		h.u32(uint32(len(m.ChunkTable)))
		for _, c := range m.ChunkTable {
			h.u32(c.FileIndex)
			h.u32(c.SizeBytes)
			h.u64(c.Offset)
			h.bytes(c.Hash[:])
		}
	}
	return h.sum()
}

// SubManifestHash hashes one piece of the encoded manifest.
func SubManifestHash(piece []byte) [32]byte {
	h := newHasher(subManifestDomain)
	h.bytes(piece)
	return h.sum()
}

// MetaManifestHash hashes a meta-manifest: version, hash count, then every
// sub-manifest hash in order. From V2 on this is the externally trusted
// checkpoint hash.
func MetaManifestHash(mm *MetaManifest) [32]byte {
	h := newHasher(metaManifestDomain)
	h.u32(uint32(mm.Version))
	h.u32(uint32(len(mm.SubManifestHashes)))
	for _, sh := range mm.SubManifestHashes {
		h.bytes(sh[:])
	}
	return h.sum()
}

// RootHash returns the hash peers agree on externally: the table hash for
// V0 and V1, the meta-manifest hash over the encoded manifest from V2 on.
func RootHash(m *Manifest) ([32]byte, error) {
	if m.Version < V2 {
		return TableHash(m), nil
	}
	encoded, err := EncodeManifest(m)
	if err != nil {
		return [32]byte{}, err
	}
	mm := BuildMetaManifest(m.Version, encoded, DefaultSubManifestSize)
	return MetaManifestHash(mm), nil
}
