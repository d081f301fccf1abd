package cartolive

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/b1naryth1ef/cartolive/coord"
)

// scanTask scans the requested chunks of one region.
type scanTask struct {
	job    *Job
	region coord.Region
	chunks []int64
	log    *slog.Logger
}

func newScanTask(job *Job, region coord.Region, chunks []int64) *scanTask {
	return &scanTask{
		job:    job,
		region: region,
		chunks: chunks,
		log:    job.log.With("region_x", region.X, "region_z", region.Z),
	}
}

func (t *scanTask) run() {
	job := t.job
	if job.Cancelled() {
		return
	}

	progress := job.progress
	reader, err := job.world.storage.OpenRegion(t.region)
	if err != nil {
		if errors.Is(err, ErrRegionEmpty) {
			t.log.Debug("skipping empty region")
		} else {
			t.log.Warn("failed to open region", "err", err)
		}
		progress.processedChunks.Add(int64(len(t.chunks)))
		progress.processedRegions.Add(1)
		return
	}
	defer reader.Close()

	for _, packed := range t.chunks {
		if job.forced.Load() {
			job.world.tiles.DiscardRegion(t.region)
			return
		}
		t.scanChunk(reader, coord.UnpackChunk(packed))
		progress.processedChunks.Add(1)
	}

	if err := job.world.tiles.FlushRegion(t.region); err != nil {
		t.log.Error("failed to write region tile", "err", err)
	}
	progress.processedRegions.Add(1)
}

// scanChunk renders one chunk. Failures are logged and never stop the task.
func (t *scanTask) scanChunk(reader RegionReader, pos coord.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("chunk render panicked", "chunk_x", pos.X, "chunk_z", pos.Z, "panic", fmt.Sprint(r))
		}
	}()

	chunk, err := reader.ReadChunk(pos)
	if errors.Is(err, ErrChunkNotFound) || errors.Is(err, ErrChunkNotGenerated) {
		return
	}
	if err != nil {
		t.log.Warn("failed to read chunk", "chunk_x", pos.X, "chunk_z", pos.Z, "err", err)
		return
	}

	if err := t.job.world.tiles.RenderChunk(pos, chunk); err != nil {
		t.log.Warn("failed to render chunk", "chunk_x", pos.X, "chunk_z", pos.Z, "err", err)
	}
}
