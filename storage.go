package cartolive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Tnze/go-mc/save"
	"github.com/Tnze/go-mc/save/region"
	"github.com/b1naryth1ef/cartolive/coord"
)

var (
	ErrChunkNotFound     = errors.New("chunk not found")
	ErrChunkNotGenerated = errors.New("chunk not fully generated")
	ErrRegionEmpty       = errors.New("region file is empty")
)

// RegionFile is one entry of a world's region directory listing.
type RegionFile struct {
	Name string
	Size int64
}

// WorldStorage gives read access to a world's persisted region data.
type WorldStorage interface {
	RegionFiles() ([]RegionFile, error)
	OpenRegion(r coord.Region) (RegionReader, error)
}

type RegionReader interface {
	ReadChunk(c coord.Chunk) (*save.Chunk, error)
	Close() error
}

// DirStorage reads Anvil region files (r.X.Z.mca) from a directory.
type DirStorage struct {
	Path string
}

func NewDirStorage(path string) *DirStorage {
	return &DirStorage{Path: path}
}

func (s *DirStorage) RegionFiles() ([]RegionFile, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}

	files := make([]RegionFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mca" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between the listing and the stat
			continue
		}
		files = append(files, RegionFile{Name: e.Name(), Size: info.Size()})
	}
	return files, nil
}

func (s *DirStorage) OpenRegion(r coord.Region) (RegionReader, error) {
	path := filepath.Join(s.Path, r.Filename("mca"))
	reg, err := region.Open(path)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, ErrRegionEmpty)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open region file %s: %w", path, err)
	}
	return &mcaReader{region: r, reg: reg}, nil
}

type mcaReader struct {
	region coord.Region
	reg    *region.Region
}

func (m *mcaReader) ReadChunk(c coord.Chunk) (*save.Chunk, error) {
	if c.Region() != m.region {
		return nil, fmt.Errorf("%v is outside of %v", c, m.region)
	}

	x, z := c.Local()
	sector, err := m.reg.ReadSector(x, z)
	if errors.Is(err, region.ErrNoSector) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(sector) == 0 {
		return nil, fmt.Errorf("sector for %v is out of bounds", c)
	}

	var chunk save.Chunk
	if err := chunk.Load(sector); err != nil {
		return nil, fmt.Errorf("failed to decode %v: %w", c, err)
	}

	if chunk.Status != "minecraft:full" &&
		chunk.Status != "minecraft:spawn" &&
		chunk.Status != "minecraft:postprocessed" &&
		chunk.Status != "minecraft:fullchunk" &&
		chunk.Status != "full" {
		return nil, fmt.Errorf("%v has status %q: %w", c, chunk.Status, ErrChunkNotGenerated)
	}

	return &chunk, nil
}

func (m *mcaReader) Close() error {
	return m.reg.Close()
}
