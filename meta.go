package cartolive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/pelletier/go-toml"
)

// RenderMeta is what a world remembers between renders.
type RenderMeta struct {
	KnownRegions []MetaRegion `toml:"known_regions"`
	LastRender   *MetaRender  `toml:"last_render,omitempty"`
}

type MetaRegion struct {
	X int `toml:"x"`
	Z int `toml:"z"`
}

type MetaRender struct {
	Mode            string    `toml:"mode"`
	State           string    `toml:"state"`
	ProcessedChunks int64     `toml:"processed_chunks"`
	TotalChunks     int64     `toml:"total_chunks"`
	ElapsedMs       int64     `toml:"elapsed_ms"`
	FinishedAt      time.Time `toml:"finished_at"`
}

// LoadMeta reads the meta file at path. A missing file yields empty meta.
func LoadMeta(path string) (*RenderMeta, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &RenderMeta{}, nil
	}
	if err != nil {
		return nil, err
	}

	var meta RenderMeta
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *RenderMeta) Save(path string) error {
	data, err := toml.Marshal(*m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *RenderMeta) Regions() []coord.Region {
	regions := make([]coord.Region, 0, len(m.KnownRegions))
	for _, r := range m.KnownRegions {
		regions = append(regions, coord.Region{X: r.X, Z: r.Z})
	}
	return regions
}

func (m *RenderMeta) SetRegions(regions []coord.Region) {
	m.KnownRegions = make([]MetaRegion, 0, len(regions))
	for _, r := range regions {
		m.KnownRegions = append(m.KnownRegions, MetaRegion{X: r.X, Z: r.Z})
	}
}

// Record stores a summary of a job that has ended.
func (m *RenderMeta) Record(job *Job) {
	snap := job.Progress().Snapshot()
	m.LastRender = &MetaRender{
		Mode:            job.Options().Mode.String(),
		State:           snap.State.String(),
		ProcessedChunks: snap.ProcessedChunks,
		TotalChunks:     snap.TotalChunks,
		ElapsedMs:       job.Elapsed().Milliseconds(),
		FinishedAt:      time.Now().UTC().Truncate(time.Second),
	}
}
