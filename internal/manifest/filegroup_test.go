package manifest

import (
	"bytes"
	"context"
	"testing"

	"github.com/kk-code-lab/statesync/internal/checkpoint"
	"github.com/kk-code-lab/statesync/internal/chunkid"
)

func TestBuildFileGroupsDefaultPolicy(t *testing.T) {
	files := map[string][]byte{
		"small/a": bytes.Repeat([]byte{1}, 100),
		"small/b": bytes.Repeat([]byte{2}, 200),
		"big/c":   bytes.Repeat([]byte{3}, MaxGroupedFileSize),
		"empty/d": {},
	}
	m := mustBuild(t, files, CurrentVersion)

	groups := BuildFileGroups(m, nil)
	if groups.Len() != 1 {
		t.Fatalf("got %d groups, want 1", groups.Len())
	}
	id, ok := groups.Last()
	if !ok || id != chunkid.FileGroupChunkIDOffset {
		t.Fatalf("Last = (%d, %v), want (%d, true)", id, ok, chunkid.FileGroupChunkIDOffset)
	}
	if ref := chunkid.Classify(id); ref.Kind != chunkid.KindFileGroup {
		t.Fatalf("group id classifies as %s", ref.Kind)
	}

	indices, ok := groups.Get(id)
	if !ok || len(indices) != 2 {
		t.Fatalf("group should bundle the two small files' chunks, got %v", indices)
	}
	for _, ci := range indices {
		f := m.FileTable[m.ChunkTable[ci].FileIndex]
		if f.SizeBytes >= MaxGroupedFileSize || f.SizeBytes == 0 {
			t.Fatalf("bundled chunk %d belongs to non-candidate file %q", ci, f.RelPath)
		}
	}
}

func TestBuildFileGroupsPacking(t *testing.T) {
	// Sixteen files of half a chunk each: two per group, eight groups.
	files := make(map[string][]byte, 16)
	content := bytes.Repeat([]byte{0xEE}, DefaultChunkSize/2)
	for i := 0; i < 16; i++ {
		files[string(rune('a'+i))] = content
	}
	m := mustBuild(t, files, CurrentVersion)

	groups := BuildFileGroups(m, func(FileInfo) bool { return true })
	if groups.Len() != 8 {
		t.Fatalf("got %d groups, want 8", groups.Len())
	}

	ids := groups.IDs()
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Fatal("IDs not strictly ascending")
		}
	}
	last, _ := groups.Last()
	if last != ids[len(ids)-1] {
		t.Fatalf("Last = %d, want %d", last, ids[len(ids)-1])
	}

	seen := make(map[uint32]uint32)
	groups.ForEach(func(id uint32, indices []uint32) {
		for _, ci := range indices {
			if ci >= uint32(len(m.ChunkTable)) {
				t.Fatalf("group %d references out-of-range chunk %d", id, ci)
			}
			if prev, dup := seen[ci]; dup {
				t.Fatalf("chunk %d appears in groups %d and %d", ci, prev, id)
			}
			seen[ci] = id
		}
	})
	if len(seen) != len(m.ChunkTable) {
		t.Fatalf("groups cover %d chunks, want %d", len(seen), len(m.ChunkTable))
	}
}

func TestFileGroupChunksEmpty(t *testing.T) {
	reader := checkpoint.NewMemReader(map[string][]byte{
		"only": bytes.Repeat([]byte{1}, MaxGroupedFileSize+1),
	})
	m, err := Build(context.Background(), reader, BuildOptions{Version: CurrentVersion})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	groups := BuildFileGroups(m, nil)
	if !groups.IsEmpty() || groups.Len() != 0 {
		t.Fatalf("expected no groups, got %d", groups.Len())
	}
	if _, ok := groups.Last(); ok {
		t.Fatal("Last should report absence for empty groups")
	}
	if _, ok := groups.Get(chunkid.FileGroupChunkIDOffset); ok {
		t.Fatal("Get should miss on empty groups")
	}
}
