package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/kk-code-lab/statesync/internal/checkpoint"
	"github.com/kk-code-lab/statesync/internal/chunkid"
	"github.com/kk-code-lab/statesync/internal/manifest"
	"github.com/kk-code-lab/statesync/internal/store"
)

var (
	version     = "dev"
	buildCommit = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	mode := flag.String("mode", "compute", "Mode: compute|dump|verify|classify")
	dir := flag.String("dir", "", "Checkpoint directory")
	dbPath := flag.String("db", "", "Manifest registry database path")
	height := flag.Uint64("height", 0, "Checkpoint height for registry operations")
	manifestVersion := flag.Uint("manifest-version", uint(manifest.CurrentVersion), "Manifest version for compute (0-3)")
	chunkSize := flag.Int("chunk-size", manifest.DefaultChunkSize, "Maximum file chunk size in bytes")
	rootHex := flag.String("root", "", "Expected root hash (hex) for verify")
	chunkID := flag.Uint64("id", 0, "Chunk id for classify")
	jsonOut := flag.Bool("json", false, "Output report as JSON")
	flag.Parse()

	if *showVersion {
		fmt.Printf("statesync %s (commit %s)\n", version, buildCommit)
		return
	}
	if flag.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "unknown arguments:", flag.Args())
		os.Exit(2)
	}

	var err error
	switch *mode {
	case "compute":
		err = runCompute(*dir, *dbPath, *height, *manifestVersion, *chunkSize, *jsonOut)
	case "dump":
		err = runDump(*dir, *dbPath, *height, *manifestVersion, *chunkSize)
	case "verify":
		err = runVerify(*dir, *dbPath, *height, *chunkSize, *rootHex, *jsonOut)
	case "classify":
		err = runClassify(*chunkID, *jsonOut)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s error: %v\n", *mode, err)
		os.Exit(1)
	}
}

type computeReport struct {
	Version  string `json:"version"`
	Files    int    `json:"files"`
	Chunks   int    `json:"chunks"`
	Bytes    uint64 `json:"bytes"`
	RootHash string `json:"root_hash"`
	Stored   bool   `json:"stored"`
	Height   uint64 `json:"height,omitempty"`
}

func buildFromDir(dir string, manifestVersion uint, chunkSize int) (*manifest.Manifest, error) {
	if dir == "" {
		return nil, errors.New("dir required")
	}
	mv, err := manifest.VersionFromU32(uint32(manifestVersion))
	if err != nil {
		return nil, err
	}
	reader, err := checkpoint.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	return manifest.Build(context.Background(), reader, manifest.BuildOptions{
		Version:   mv,
		ChunkSize: chunkSize,
	})
}

func runCompute(dir, dbPath string, height uint64, manifestVersion uint, chunkSize int, jsonOut bool) error {
	m, err := buildFromDir(dir, manifestVersion, chunkSize)
	if err != nil {
		return err
	}
	root, err := manifest.RootHash(m)
	if err != nil {
		return err
	}

	report := computeReport{
		Version:  m.Version.String(),
		Files:    len(m.FileTable),
		Chunks:   len(m.ChunkTable),
		RootHash: hex.EncodeToString(root[:]),
	}
	for _, f := range m.FileTable {
		report.Bytes += f.SizeBytes
	}

	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Put(context.Background(), height, m); err != nil {
			return err
		}
		report.Stored = true
		report.Height = height
	}

	if jsonOut {
		return writeJSON(report)
	}
	fmt.Printf("version=%s files=%d chunks=%d bytes=%d root=%s\n",
		report.Version, report.Files, report.Chunks, report.Bytes, report.RootHash)
	if report.Stored {
		fmt.Printf("stored height=%d db=%s\n", height, dbPath)
	}
	return nil
}

func runDump(dir, dbPath string, height uint64, manifestVersion uint, chunkSize int) error {
	var m *manifest.Manifest
	var err error
	switch {
	case dbPath != "":
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		m, _, err = st.Get(context.Background(), height)
		if err != nil {
			return err
		}
	case dir != "":
		m, err = buildFromDir(dir, manifestVersion, chunkSize)
		if err != nil {
			return err
		}
	default:
		return errors.New("dir or db required")
	}
	fmt.Print(m.String())
	return nil
}

type verifyReport struct {
	Version  string `json:"version"`
	RootHash string `json:"root_hash"`
	Expected string `json:"expected"`
	Match    bool   `json:"match"`
}

func runVerify(dir, dbPath string, height uint64, chunkSize int, rootHex string, jsonOut bool) error {
	var expected [32]byte
	var expectedVersion manifest.Version
	switch {
	case rootHex != "":
		raw, err := hex.DecodeString(rootHex)
		if err != nil || len(raw) != 32 {
			return errors.New("root must be 64 hex characters")
		}
		copy(expected[:], raw)
		expectedVersion = manifest.CurrentVersion
	case dbPath != "":
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		_, record, getErr := st.Get(context.Background(), height)
		st.Close()
		if getErr != nil {
			return getErr
		}
		expected = record.RootHash
		expectedVersion = record.Version
	default:
		return errors.New("root or db required")
	}

	m, err := buildFromDir(dir, uint(expectedVersion), chunkSize)
	if err != nil {
		return err
	}
	if err := manifest.ValidateManifest(m, expected); err != nil {
		var mismatch *manifest.HashMismatchError
		if !errors.As(err, &mismatch) {
			return err
		}
		if jsonOut {
			return writeJSON(verifyReport{
				Version:  m.Version.String(),
				RootHash: hex.EncodeToString(mismatch.Got[:]),
				Expected: hex.EncodeToString(expected[:]),
				Match:    false,
			})
		}
		return err
	}
	if jsonOut {
		return writeJSON(verifyReport{
			Version:  m.Version.String(),
			RootHash: hex.EncodeToString(expected[:]),
			Expected: hex.EncodeToString(expected[:]),
			Match:    true,
		})
	}
	fmt.Printf("verified root=%s version=%s\n", hex.EncodeToString(expected[:]), m.Version)
	return nil
}

type classifyReport struct {
	ID    uint32 `json:"id"`
	Kind  string `json:"kind"`
	Index uint32 `json:"index"`
}

func runClassify(id uint64, jsonOut bool) error {
	if id > uint64(^uint32(0)) {
		return fmt.Errorf("chunk id %s out of 32-bit range", strconv.FormatUint(id, 10))
	}
	ref := chunkid.Classify(uint32(id))
	if jsonOut {
		return writeJSON(classifyReport{ID: uint32(id), Kind: ref.Kind.String(), Index: ref.Index})
	}
	fmt.Printf("id=%d kind=%s index=%d\n", uint32(id), ref.Kind, ref.Index)
	return nil
}
