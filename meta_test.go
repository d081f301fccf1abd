package cartolive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/google/go-cmp/cmp"
)

func TestLoadMetaMissingFile(t *testing.T) {
	meta, err := LoadMeta(filepath.Join(t.TempDir(), "render.toml"))
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if len(meta.Regions()) != 0 || meta.LastRender != nil {
		t.Fatalf("expected empty meta, got %+v", meta)
	}
}

func TestMetaSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles", "overworld", "render.toml")

	meta := &RenderMeta{}
	meta.SetRegions([]coord.Region{{X: 0, Z: 0}, {X: -3, Z: 7}})
	meta.LastRender = &MetaRender{
		Mode:            "full",
		State:           "finished",
		ProcessedChunks: 2048,
		TotalChunks:     2048,
		ElapsedMs:       61_000,
		FinishedAt:      time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	if err := meta.Save(path); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}

	loaded, err := LoadMeta(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if diff := cmp.Diff(meta, loaded); diff != "" {
		t.Fatalf("unexpected meta (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]coord.Region{{X: 0, Z: 0}, {X: -3, Z: 7}}, loaded.Regions()); diff != "" {
		t.Fatalf("unexpected regions (-want +got):\n%s", diff)
	}
}

func TestMetaRecord(t *testing.T) {
	tw := newTestWorld(nil)
	job := tw.newActiveJob(Options{Mode: ModeFull})
	_ = job.Progress().setTotals(100, 1)
	job.Progress().processedChunks.Add(40)
	job.Cancel(false)

	meta := &RenderMeta{}
	meta.Record(job)
	if meta.LastRender == nil {
		t.Fatal("expected a recorded render")
	}
	if meta.LastRender.Mode != "full" || meta.LastRender.State != "cancelled" {
		t.Fatalf("unexpected record %+v", meta.LastRender)
	}
	if meta.LastRender.ProcessedChunks != 40 || meta.LastRender.TotalChunks != 100 {
		t.Fatalf("unexpected counts %+v", meta.LastRender)
	}
}
