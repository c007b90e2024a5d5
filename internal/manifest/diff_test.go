package manifest

import (
	"bytes"
	"testing"
)

func TestDiffReuseAndFetch(t *testing.T) {
	shared := bytes.Repeat([]byte{0xAB}, 400)
	prev := mustBuild(t, map[string][]byte{
		"keep":   shared,
		"gone":   []byte("removed next time"),
		"mutate": []byte("before"),
	}, CurrentVersion)
	next := mustBuild(t, map[string][]byte{
		"keep":    shared,
		"mutate":  []byte("after"),
		"brand":   []byte("new file"),
		"renamed": shared,
	}, CurrentVersion)

	diff := Diff(prev, next)

	if len(diff.Reuse)+len(diff.Fetch) != len(next.ChunkTable) {
		t.Fatalf("diff covers %d chunks, want %d", len(diff.Reuse)+len(diff.Fetch), len(next.ChunkTable))
	}

	reusable := 0
	for i := range next.ChunkTable {
		if prevIdx, ok := diff.Reuse[uint32(i)]; ok {
			reusable++
			if prev.ChunkTable[prevIdx].Hash != next.ChunkTable[i].Hash {
				t.Fatalf("reuse mapping %d -> %d pairs different content", i, prevIdx)
			}
		}
	}
	// "keep" and "renamed" both match prev's "keep" chunk by content.
	if reusable != 2 {
		t.Fatalf("got %d reusable chunks, want 2", reusable)
	}

	for _, ci := range diff.Fetch {
		hash := next.ChunkTable[ci].Hash
		for _, pc := range prev.ChunkTable {
			if pc.Hash == hash {
				t.Fatalf("chunk %d marked fetch but exists locally", ci)
			}
		}
	}
}

func TestDiffIdenticalManifests(t *testing.T) {
	files := map[string][]byte{"a": []byte("stable"), "b": bytes.Repeat([]byte{9}, 300)}
	prev := mustBuild(t, files, CurrentVersion)
	next := mustBuild(t, files, CurrentVersion)

	diff := Diff(prev, next)
	if len(diff.Fetch) != 0 {
		t.Fatalf("identical checkpoints should fetch nothing, got %v", diff.Fetch)
	}
	if len(diff.Reuse) != len(next.ChunkTable) {
		t.Fatalf("reuse covers %d chunks, want %d", len(diff.Reuse), len(next.ChunkTable))
	}
}
