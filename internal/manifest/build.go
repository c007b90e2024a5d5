package manifest

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kk-code-lab/statesync/internal/checkpoint"
)

// BuildOptions configures manifest construction.
type BuildOptions struct {
	// Version of the hashing procedure. Callers normally pass
	// CurrentVersion; the zero value is V0.
	Version Version
	// ChunkSize is the maximum file chunk size; DefaultChunkSize if <= 0.
	ChunkSize int
	// Workers bounds concurrent chunk hashing; NumCPU if <= 0.
	Workers int
}

// Build computes the manifest of a checkpoint: it splits every file into
// chunks of at most the chunk size, hashes the chunks, then hashes each
// file's chunk table slice.
//
// Chunk hashing runs on a bounded worker pool; each worker writes into its
// preassigned table slot, so the file-then-offset order of the chunk table
// is fixed before any hashing starts. A failed build returns an error and
// publishes nothing.
func Build(ctx context.Context, r checkpoint.Reader, opts BuildOptions) (*Manifest, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	files, err := r.Files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return New(opts.Version, nil, nil), nil
	}

	// Lay out both tables up front. Only hashes are missing afterwards.
	fileTable := make([]FileInfo, len(files))
	var chunkTable []ChunkInfo
	firstChunk := make([]int, len(files))
	for i, f := range files {
		fileTable[i] = FileInfo{RelPath: f.RelPath, SizeBytes: f.SizeBytes}
		firstChunk[i] = len(chunkTable)
		for offset := uint64(0); offset < f.SizeBytes; offset += uint64(chunkSize) {
			size := f.SizeBytes - offset
			if size > uint64(chunkSize) {
				size = uint64(chunkSize)
			}
			chunkTable = append(chunkTable, ChunkInfo{
				FileIndex: uint32(i),
				SizeBytes: uint32(size),
				Offset:    offset,
			})
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for ci := range chunkTable {
		if err := gctx.Err(); err != nil {
			break
		}
		ci := ci
		group.Go(func() error {
			entry := &chunkTable[ci]
			buf := make([]byte, entry.SizeBytes)
			if err := r.ReadAt(fileTable[entry.FileIndex].RelPath, entry.Offset, buf); err != nil {
				return err
			}
			entry.Hash = ChunkHash(buf)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range fileTable {
		end := len(chunkTable)
		if i+1 < len(files) {
			end = firstChunk[i+1]
		}
		fileTable[i].Hash = FileHash(opts.Version, chunkTable[firstChunk[i]:end])
	}

	return New(opts.Version, fileTable, chunkTable), nil
}
