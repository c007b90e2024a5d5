package manifest

// CheckStructure verifies the table invariants: every chunk's file index
// points at a valid file table slot, the chunk table is ordered by file
// then offset, and each file's chunks tile [0, SizeBytes) with no gap or
// overlap. A violation means corruption or malicious construction; the
// manifest is rejected outright.
func CheckStructure(m *Manifest) error {
	if _, ok := versionNames[m.Version]; !ok || m.Version > MaxSupportedVersion {
		return &VersionError{Got: uint32(m.Version)}
	}

	current := -1
	var next uint64
	for ci, c := range m.ChunkTable {
		fi := int(c.FileIndex)
		if fi >= len(m.FileTable) {
			return structuralf("chunk %d: file index %d out of range (%d files)", ci, fi, len(m.FileTable))
		}
		if fi < current {
			return structuralf("chunk %d: chunk table not in file order", ci)
		}
		if fi != current {
			if err := closeOutFiles(m, current, fi, next); err != nil {
				return err
			}
			current = fi
			next = 0
		}
		if c.SizeBytes == 0 {
			return structuralf("chunk %d: zero-size chunk", ci)
		}
		if c.Offset != next {
			return structuralf("chunk %d: offset %d, want %d (gap or overlap in file %d)", ci, c.Offset, next, fi)
		}
		next = c.Offset + uint64(c.SizeBytes)
	}
	return closeOutFiles(m, current, len(m.FileTable), next)
}

// closeOutFiles checks that file from is fully tiled and that every file in
// (from, to) has no chunks and therefore zero size.
func closeOutFiles(m *Manifest, from, to int, next uint64) error {
	if from >= 0 && next != m.FileTable[from].SizeBytes {
		return structuralf("file %d: chunks cover %d of %d bytes", from, next, m.FileTable[from].SizeBytes)
	}
	for i := from + 1; i < to; i++ {
		if m.FileTable[i].SizeBytes != 0 {
			return structuralf("file %d: size %d but no chunks", i, m.FileTable[i].SizeBytes)
		}
	}
	return nil
}

// ValidateChunk checks received chunk bytes against the chunk table entry
// at tableIndex. A mismatch implicates only this chunk.
func ValidateChunk(m *Manifest, tableIndex int, data []byte) error {
	if tableIndex < 0 || tableIndex >= len(m.ChunkTable) {
		return structuralf("chunk index %d out of range (%d chunks)", tableIndex, len(m.ChunkTable))
	}
	want := m.ChunkTable[tableIndex].Hash
	got := ChunkHash(data)
	if got != want {
		return &HashMismatchError{Kind: "chunk", Index: tableIndex, Want: want, Got: got}
	}
	return nil
}

// ValidateSubManifest checks one received piece of the encoded manifest
// against the meta-manifest. A mismatch implicates only this piece.
func ValidateSubManifest(mm *MetaManifest, index int, data []byte) error {
	if index < 0 || index >= len(mm.SubManifestHashes) {
		return structuralf("sub-manifest index %d out of range (%d pieces)", index, len(mm.SubManifestHashes))
	}
	want := mm.SubManifestHashes[index]
	got := SubManifestHash(data)
	if got != want {
		return &HashMismatchError{Kind: "sub-manifest", Index: index, Want: want, Got: got}
	}
	return nil
}

// ValidateMetaManifest checks a received meta-manifest against the
// externally agreed root hash. This must pass before any sub-manifest or
// reconstructed manifest is trusted.
func ValidateMetaManifest(mm *MetaManifest, root [32]byte) error {
	got := MetaManifestHash(mm)
	if got != root {
		return &HashMismatchError{Kind: "meta-manifest", Index: -1, Want: root, Got: got}
	}
	return nil
}

// ValidateManifest fully checks a reconstructed manifest: structure, every
// file hash recomputed from the chunk table, and the version-appropriate
// root hash against the externally agreed one.
func ValidateManifest(m *Manifest, root [32]byte) error {
	if err := CheckStructure(m); err != nil {
		return err
	}
	start := 0
	for fi := range m.FileTable {
		end := start
		for end < len(m.ChunkTable) && m.ChunkTable[end].FileIndex == uint32(fi) {
			end++
		}
		want := m.FileTable[fi].Hash
		got := FileHash(m.Version, m.ChunkTable[start:end])
		if got != want {
			return &HashMismatchError{Kind: "file", Index: fi, Want: want, Got: got}
		}
		start = end
	}
	got, err := RootHash(m)
	if err != nil {
		return err
	}
	if got != root {
		return &HashMismatchError{Kind: "manifest", Index: -1, Want: root, Got: got}
	}
	return nil
}
