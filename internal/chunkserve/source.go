// Package chunkserve resolves wire chunk ids to bytes for one checkpoint.
//
// The transport layer asks for chunks by id; this package answers with the
// encoded meta-manifest (id 0), a raw file chunk, a bundle of whole small
// files, or one piece of the encoded manifest. The transport itself, with
// its request and retry protocol, stays external.
package chunkserve

import (
	"errors"
	"fmt"

	"github.com/kk-code-lab/statesync/internal/checkpoint"
	"github.com/kk-code-lab/statesync/internal/chunkid"
	"github.com/kk-code-lab/statesync/internal/manifest"
)

// ErrNoSuchChunk is returned for ids outside the ranges the checkpoint
// actually populates.
var ErrNoSuchChunk = errors.New("chunkserve: no such chunk")

// Source serves chunk bytes for one checkpoint. It is immutable after New
// and safe for concurrent readers.
type Source struct {
	manifest *manifest.Manifest
	meta     *manifest.MetaManifest
	groups   *manifest.FileGroupChunks
	reader   checkpoint.Reader
	encoded  []byte
	subSize  int
}

// Options configures a Source.
type Options struct {
	// SubManifestSize is the encoded-manifest piece size;
	// manifest.DefaultSubManifestSize if <= 0.
	SubManifestSize int
	// GroupPolicy selects files for bundling; manifest.DefaultGroupPolicy
	// if nil.
	GroupPolicy manifest.GroupPolicy
}

// New builds a Source: it encodes the manifest once, derives the
// meta-manifest from the encoding, and assigns file group chunks.
func New(m *manifest.Manifest, r checkpoint.Reader, opts Options) (*Source, error) {
	subSize := opts.SubManifestSize
	if subSize <= 0 {
		subSize = manifest.DefaultSubManifestSize
	}
	encoded, err := manifest.EncodeManifest(m)
	if err != nil {
		return nil, err
	}
	return &Source{
		manifest: m,
		meta:     manifest.BuildMetaManifest(m.Version, encoded, subSize),
		groups:   manifest.BuildFileGroups(m, opts.GroupPolicy),
		reader:   r,
		encoded:  encoded,
		subSize:  subSize,
	}, nil
}

// Manifest returns the served manifest.
func (s *Source) Manifest() *manifest.Manifest {
	return s.manifest
}

// MetaManifest returns the derived meta-manifest.
func (s *Source) MetaManifest() *manifest.MetaManifest {
	return s.meta
}

// FileGroups returns the file group assignment.
func (s *Source) FileGroups() *manifest.FileGroupChunks {
	return s.groups
}

// RootHash returns the externally trusted hash of the served checkpoint.
func (s *Source) RootHash() ([32]byte, error) {
	return manifest.RootHash(s.manifest)
}

// Chunk resolves a wire chunk id to its bytes.
func (s *Source) Chunk(id uint32) ([]byte, error) {
	ref := chunkid.Classify(id)
	switch ref.Kind {
	case chunkid.KindMetaManifest:
		return manifest.EncodeMetaManifest(s.meta)
	case chunkid.KindFile:
		return s.fileChunk(ref.Index)
	case chunkid.KindFileGroup:
		return s.fileGroupChunk(ref.Index)
	case chunkid.KindManifest:
		return s.manifestChunk(ref.Index)
	}
	return nil, fmt.Errorf("chunkserve: unhandled chunk kind %s", ref.Kind)
}

func (s *Source) fileChunk(tableIndex uint32) ([]byte, error) {
	if tableIndex >= uint32(len(s.manifest.ChunkTable)) {
		return nil, ErrNoSuchChunk
	}
	entry := s.manifest.ChunkTable[tableIndex]
	buf := make([]byte, entry.SizeBytes)
	relPath := s.manifest.FileTable[entry.FileIndex].RelPath
	if err := s.reader.ReadAt(relPath, entry.Offset, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Source) fileGroupChunk(id uint32) ([]byte, error) {
	indices, ok := s.groups.Get(id)
	if !ok {
		return nil, ErrNoSuchChunk
	}
	var buf []byte
	for _, ci := range indices {
		piece, err := s.fileChunk(ci)
		if err != nil {
			return nil, err
		}
		buf = append(buf, piece...)
	}
	return buf, nil
}

func (s *Source) manifestChunk(pieceIndex uint32) ([]byte, error) {
	start := uint64(pieceIndex) * uint64(s.subSize)
	if start >= uint64(len(s.encoded)) {
		return nil, ErrNoSuchChunk
	}
	end := start + uint64(s.subSize)
	if end > uint64(len(s.encoded)) {
		end = uint64(len(s.encoded))
	}
	return s.encoded[start:end], nil
}
