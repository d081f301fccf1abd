package tile

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/b1naryth1ef/cartolive/coord"
)

// Canvas collects chunk images into one image per region and writes them
// out as r.X.Z.png.
type Canvas struct {
	mu      sync.Mutex
	dir     string
	chunkW  int
	chunkH  int
	regions map[coord.Region]*regionImage
}

type regionImage struct {
	img   *image.RGBA64
	drawn [coord.RegionSize][coord.RegionSize]bool
}

func NewCanvas(dir string, chunkW, chunkH int) *Canvas {
	return &Canvas{
		dir:     dir,
		chunkW:  chunkW,
		chunkH:  chunkH,
		regions: make(map[coord.Region]*regionImage),
	}
}

// Draw places a chunk image at the chunk's slot in its region image.
func (c *Canvas) Draw(pos coord.Chunk, img image.Image) {
	ri := c.region(pos.Region())
	x, z := pos.Local()
	draw.Draw(ri.img, img.Bounds().Sub(img.Bounds().Min).Add(image.Point{x * c.chunkW, z * c.chunkH}), img, img.Bounds().Min, draw.Src)

	c.mu.Lock()
	ri.drawn[x][z] = true
	c.mu.Unlock()
}

func (c *Canvas) region(r coord.Region) *regionImage {
	c.mu.Lock()
	defer c.mu.Unlock()
	ri, ok := c.regions[r]
	if !ok {
		ri = &regionImage{
			img: image.NewRGBA64(image.Rect(0, 0, c.chunkW*coord.RegionSize, c.chunkH*coord.RegionSize)),
		}
		c.regions[r] = ri
	}
	return ri
}

// Path returns where the tile of region r is written.
func (c *Canvas) Path(r coord.Region) string {
	return filepath.Join(c.dir, r.Filename("png"))
}

// Flush writes the region's tile and forgets it. Chunks that were not drawn
// keep whatever an existing tile has at their position.
func (c *Canvas) Flush(r coord.Region) error {
	c.mu.Lock()
	ri, ok := c.regions[r]
	delete(c.regions, r)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := os.MkdirAll(c.dir, os.ModePerm); err != nil {
		return err
	}

	path := c.Path(r)
	final, err := c.loadExisting(path)
	if err != nil {
		return err
	}
	if final == nil {
		final = ri.img
	} else {
		for x := 0; x < coord.RegionSize; x++ {
			for z := 0; z < coord.RegionSize; z++ {
				if !ri.drawn[x][z] {
					continue
				}
				rect := image.Rect(x*c.chunkW, z*c.chunkH, (x+1)*c.chunkW, (z+1)*c.chunkH)
				draw.Draw(final, rect, ri.img, rect.Min, draw.Src)
			}
		}
	}

	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create region tile (%v, %v): %w", r.X, r.Z, err)
	}
	defer fd.Close()

	if err := png.Encode(fd, final); err != nil {
		return fmt.Errorf("failed to encode region tile (%v, %v): %w", r.X, r.Z, err)
	}
	return nil
}

// Drop forgets the chunks drawn for r without writing a tile.
func (c *Canvas) Drop(r coord.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.regions, r)
}

func (c *Canvas) loadExisting(path string) (*image.RGBA64, error) {
	fd, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	src, err := png.Decode(fd)
	if err != nil {
		// a corrupt tile is simply redrawn
		return nil, nil
	}

	img := image.NewRGBA64(image.Rect(0, 0, c.chunkW*coord.RegionSize, c.chunkH*coord.RegionSize))
	draw.Draw(img, src.Bounds(), src, src.Bounds().Min, draw.Src)
	return img, nil
}
