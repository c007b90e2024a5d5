package manifest

import (
	"errors"
	"testing"
)

func TestBuildMetaManifestSplit(t *testing.T) {
	cases := []struct {
		name      string
		size      int
		pieceSize int
		want      int
	}{
		{name: "empty", size: 0, pieceSize: 1024, want: 0},
		{name: "one-byte", size: 1, pieceSize: 1024, want: 1},
		{name: "exact", size: 2048, pieceSize: 1024, want: 2},
		{name: "exact+1", size: 2049, pieceSize: 1024, want: 3},
		{name: "2.5x-default", size: DefaultSubManifestSize * 5 / 2, pieceSize: DefaultSubManifestSize, want: 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			encoded := make([]byte, tc.size)
			for i := range encoded {
				encoded[i] = byte(i % 251)
			}
			mm := BuildMetaManifest(CurrentVersion, encoded, tc.pieceSize)
			if len(mm.SubManifestHashes) != tc.want {
				t.Fatalf("got %d sub-manifest hashes, want %d", len(mm.SubManifestHashes), tc.want)
			}
			if got := SubManifestCount(tc.size, tc.pieceSize); got != tc.want {
				t.Fatalf("SubManifestCount = %d, want %d", got, tc.want)
			}
			for i, want := range mm.SubManifestHashes {
				start := i * tc.pieceSize
				end := start + tc.pieceSize
				if end > len(encoded) {
					end = len(encoded)
				}
				if SubManifestHash(encoded[start:end]) != want {
					t.Fatalf("sub-manifest hash %d does not match its piece", i)
				}
			}
		})
	}
}

// Corrupting one sub-manifest piece fails verification of that piece only;
// already-verified siblings stay valid.
func TestSubManifestVerificationScope(t *testing.T) {
	encoded := make([]byte, DefaultSubManifestSize*5/2)
	for i := range encoded {
		encoded[i] = byte(i % 249)
	}
	mm := BuildMetaManifest(CurrentVersion, encoded, DefaultSubManifestSize)
	if len(mm.SubManifestHashes) != 3 {
		t.Fatalf("got %d pieces, want 3", len(mm.SubManifestHashes))
	}

	piece := func(i int) []byte {
		start := i * DefaultSubManifestSize
		end := start + DefaultSubManifestSize
		if end > len(encoded) {
			end = len(encoded)
		}
		return append([]byte(nil), encoded[start:end]...)
	}

	corrupted := piece(1)
	corrupted[17] ^= 0x01

	if err := ValidateSubManifest(mm, 0, piece(0)); err != nil {
		t.Fatalf("piece 0 should verify: %v", err)
	}
	err := ValidateSubManifest(mm, 1, corrupted)
	var mismatch *HashMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("corrupted piece 1 should fail with a hash mismatch, got %v", err)
	}
	if mismatch.Kind != "sub-manifest" || mismatch.Index != 1 {
		t.Fatalf("mismatch implicates %s %d, want sub-manifest 1", mismatch.Kind, mismatch.Index)
	}
	if err := ValidateSubManifest(mm, 2, piece(2)); err != nil {
		t.Fatalf("piece 2 should still verify: %v", err)
	}
}

func TestValidateMetaManifestAgainstRoot(t *testing.T) {
	m := tinyManifest(V2)
	encoded, err := EncodeManifest(m)
	if err != nil {
		t.Fatalf("EncodeManifest: %v", err)
	}
	mm := BuildMetaManifest(V2, encoded, DefaultSubManifestSize)
	root := MetaManifestHash(mm)

	if err := ValidateMetaManifest(mm, root); err != nil {
		t.Fatalf("ValidateMetaManifest: %v", err)
	}

	tampered := &MetaManifest{Version: mm.Version, SubManifestHashes: append([][32]byte(nil), mm.SubManifestHashes...)}
	tampered.SubManifestHashes[0][0] ^= 0x01
	var mismatch *HashMismatchError
	if err := ValidateMetaManifest(tampered, root); !errors.As(err, &mismatch) {
		t.Fatalf("tampered meta-manifest should fail with a hash mismatch, got %v", err)
	}
}
