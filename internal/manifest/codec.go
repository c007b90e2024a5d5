package manifest

import (
	"fmt"

	"github.com/kk-code-lab/statesync/internal/codec"
)

// Wire shapes for the deterministic CBOR encoding. Integer keys keep the
// encoding compact and stable; hashes travel as 32-byte strings.
type manifestWire struct {
	Version    uint32          `cbor:"1,keyasint"`
	FileTable  []fileInfoWire  `cbor:"2,keyasint,omitempty"`
	ChunkTable []chunkInfoWire `cbor:"3,keyasint,omitempty"`
}

type fileInfoWire struct {
	RelPath   string `cbor:"1,keyasint"`
	SizeBytes uint64 `cbor:"2,keyasint"`
	Hash      []byte `cbor:"3,keyasint"`
}

type chunkInfoWire struct {
	FileIndex uint32 `cbor:"1,keyasint"`
	SizeBytes uint32 `cbor:"2,keyasint"`
	Offset    uint64 `cbor:"3,keyasint"`
	Hash      []byte `cbor:"4,keyasint"`
}

type metaManifestWire struct {
	Version           uint32   `cbor:"1,keyasint"`
	SubManifestHashes [][]byte `cbor:"2,keyasint,omitempty"`
}

// EncodeManifest serializes a manifest. The encoding is deterministic:
// equal manifests produce identical bytes across processes and hosts,
// which the V2+ root hash depends on.
func EncodeManifest(m *Manifest) ([]byte, error) {
	w := manifestWire{
		Version:    uint32(m.Version),
		FileTable:  make([]fileInfoWire, 0, len(m.FileTable)),
		ChunkTable: make([]chunkInfoWire, 0, len(m.ChunkTable)),
	}
	for _, f := range m.FileTable {
		w.FileTable = append(w.FileTable, fileInfoWire{
			RelPath:   f.RelPath,
			SizeBytes: f.SizeBytes,
			Hash:      append([]byte(nil), f.Hash[:]...),
		})
	}
	for _, c := range m.ChunkTable {
		w.ChunkTable = append(w.ChunkTable, chunkInfoWire{
			FileIndex: c.FileIndex,
			SizeBytes: c.SizeBytes,
			Offset:    c.Offset,
			Hash:      append([]byte(nil), c.Hash[:]...),
		})
	}
	return codec.Marshal(w)
}

// DecodeManifest parses an encoded manifest. An unknown or unsupported
// version fails outright; malformed input surfaces as a DecodeError with
// the underlying cause.
func DecodeManifest(data []byte) (*Manifest, error) {
	var w manifestWire
	if err := codec.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	version, err := VersionFromU32(w.Version)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Version: version}
	if len(w.FileTable) > 0 {
		m.FileTable = make([]FileInfo, 0, len(w.FileTable))
	}
	if len(w.ChunkTable) > 0 {
		m.ChunkTable = make([]ChunkInfo, 0, len(w.ChunkTable))
	}
	for i, f := range w.FileTable {
		hash, err := hash32(f.Hash)
		if err != nil {
			return nil, &DecodeError{Cause: fmt.Errorf("file %d: %w", i, err)}
		}
		m.FileTable = append(m.FileTable, FileInfo{
			RelPath:   f.RelPath,
			SizeBytes: f.SizeBytes,
			Hash:      hash,
		})
	}
	for i, c := range w.ChunkTable {
		hash, err := hash32(c.Hash)
		if err != nil {
			return nil, &DecodeError{Cause: fmt.Errorf("chunk %d: %w", i, err)}
		}
		m.ChunkTable = append(m.ChunkTable, ChunkInfo{
			FileIndex: c.FileIndex,
			SizeBytes: c.SizeBytes,
			Offset:    c.Offset,
			Hash:      hash,
		})
	}
	return m, nil
}

// EncodeMetaManifest serializes a meta-manifest deterministically.
func EncodeMetaManifest(mm *MetaManifest) ([]byte, error) {
	w := metaManifestWire{Version: uint32(mm.Version)}
	if len(mm.SubManifestHashes) > 0 {
		w.SubManifestHashes = make([][]byte, 0, len(mm.SubManifestHashes))
	}
	for _, sh := range mm.SubManifestHashes {
		w.SubManifestHashes = append(w.SubManifestHashes, append([]byte(nil), sh[:]...))
	}
	return codec.Marshal(w)
}

// DecodeMetaManifest parses an encoded meta-manifest with the same version
// and error discipline as DecodeManifest.
func DecodeMetaManifest(data []byte) (*MetaManifest, error) {
	var w metaManifestWire
	if err := codec.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Cause: err}
	}
	version, err := VersionFromU32(w.Version)
	if err != nil {
		return nil, err
	}
	mm := &MetaManifest{Version: version}
	if len(w.SubManifestHashes) > 0 {
		mm.SubManifestHashes = make([][32]byte, 0, len(w.SubManifestHashes))
	}
	for i, sh := range w.SubManifestHashes {
		hash, err := hash32(sh)
		if err != nil {
			return nil, &DecodeError{Cause: fmt.Errorf("sub-manifest %d: %w", i, err)}
		}
		mm.SubManifestHashes = append(mm.SubManifestHashes, hash)
	}
	return mm, nil
}

func hash32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) != 32 {
		return out, fmt.Errorf("hash length %d, want 32", len(b))
	}
	copy(out[:], b)
	return out, nil
}
