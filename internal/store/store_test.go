package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kk-code-lab/statesync/internal/checkpoint"
	"github.com/kk-code-lab/statesync/internal/manifest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "manifests.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func buildTestManifest(t *testing.T, marker byte) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Build(context.Background(), checkpoint.NewMemReader(map[string][]byte{
		"state/data": {marker, marker, marker},
		"state/meta": {marker},
	}), manifest.BuildOptions{Version: manifest.CurrentVersion})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestStoreRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	m := buildTestManifest(t, 0x01)
	if err := st.Put(ctx, 100, m); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, record, err := st.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Fatal("stored manifest does not round trip")
	}
	if record.Height != 100 || record.Version != m.Version {
		t.Fatalf("record = %+v", record)
	}
	root, err := manifest.RootHash(m)
	if err != nil {
		t.Fatalf("RootHash: %v", err)
	}
	if record.RootHash != root {
		t.Fatal("stored root hash mismatch")
	}
	if record.CreatedAt.IsZero() {
		t.Fatal("record missing created_at")
	}
}

func TestStoreReplaceAndHeights(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, height := range []uint64{30, 10, 20} {
		if err := st.Put(ctx, height, buildTestManifest(t, byte(height))); err != nil {
			t.Fatalf("Put(%d): %v", height, err)
		}
	}

	heights, err := st.Heights(ctx)
	if err != nil {
		t.Fatalf("Heights: %v", err)
	}
	if !reflect.DeepEqual(heights, []uint64{10, 20, 30}) {
		t.Fatalf("Heights = %v", heights)
	}

	latest, ok, err := st.Latest(ctx)
	if err != nil || !ok || latest != 30 {
		t.Fatalf("Latest = (%d, %v, %v), want (30, true, nil)", latest, ok, err)
	}

	// Replacing a height keeps a single record.
	replacement := buildTestManifest(t, 0x77)
	if err := st.Put(ctx, 20, replacement); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, _, err := st.Get(ctx, 20)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(replacement, got) {
		t.Fatal("replacement not visible")
	}
	heights, err = st.Heights(ctx)
	if err != nil {
		t.Fatalf("Heights: %v", err)
	}
	if len(heights) != 3 {
		t.Fatalf("Heights after replace = %v", heights)
	}
}

func TestStoreDeleteAndMisses(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, _, err := st.Get(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store = %v, want ErrNotFound", err)
	}
	if _, ok, err := st.Latest(ctx); err != nil || ok {
		t.Fatalf("Latest on empty store = (ok=%v, err=%v)", ok, err)
	}

	if err := st.Put(ctx, 5, buildTestManifest(t, 0x05)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Delete(ctx, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := st.Get(ctx, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	// Deleting an absent height is not an error.
	if err := st.Delete(ctx, 5); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestStoreReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifests.db")
	ctx := context.Background()

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	m := buildTestManifest(t, 0x42)
	if err := st.Put(ctx, 7, m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	got, _, err := st2.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if !reflect.DeepEqual(m, got) {
		t.Fatal("manifest lost across reopen")
	}
}
