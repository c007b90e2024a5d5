package manifest

// DiffResult partitions a new manifest's chunk table into chunks that can
// be copied from a previously synced checkpoint and chunks that must be
// fetched from peers.
type DiffResult struct {
	// Reuse maps a chunk table index of the new manifest to an index of an
	// identical chunk in the previous manifest.
	Reuse map[uint32]uint32
	// Fetch lists new chunk table indices with no local copy, ascending.
	Fetch []uint32
}

// Diff compares chunk tables by content hash. Matching is purely
// hash-based: a chunk that merely moved to a different file or offset is
// still reusable.
func Diff(prev, next *Manifest) *DiffResult {
	byHash := make(map[[32]byte]uint32, len(prev.ChunkTable))
	for i := range prev.ChunkTable {
		hash := prev.ChunkTable[i].Hash
		if _, ok := byHash[hash]; !ok {
			byHash[hash] = uint32(i)
		}
	}

	result := &DiffResult{Reuse: make(map[uint32]uint32)}
	for i := range next.ChunkTable {
		if prevIdx, ok := byHash[next.ChunkTable[i].Hash]; ok {
			result.Reuse[uint32(i)] = prevIdx
		} else {
			result.Fetch = append(result.Fetch, uint32(i))
		}
	}
	return result
}
