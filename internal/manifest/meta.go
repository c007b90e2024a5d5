package manifest

// BuildMetaManifest splits an encoded manifest into consecutive pieces of
// at most pieceSize bytes (the last possibly shorter) and records one
// sub-manifest hash per piece. pieceSize defaults to DefaultSubManifestSize
// when <= 0.
func BuildMetaManifest(version Version, encoded []byte, pieceSize int) *MetaManifest {
	if pieceSize <= 0 {
		pieceSize = DefaultSubManifestSize
	}
	count := (len(encoded) + pieceSize - 1) / pieceSize
	hashes := make([][32]byte, 0, count)
	for start := 0; start < len(encoded); start += pieceSize {
		end := start + pieceSize
		if end > len(encoded) {
			end = len(encoded)
		}
		hashes = append(hashes, SubManifestHash(encoded[start:end]))
	}
	return &MetaManifest{Version: version, SubManifestHashes: hashes}
}

// SubManifestCount returns how many pieces an encoded manifest of the given
// length splits into.
func SubManifestCount(encodedLen, pieceSize int) int {
	if pieceSize <= 0 {
		pieceSize = DefaultSubManifestSize
	}
	return (encodedLen + pieceSize - 1) / pieceSize
}
