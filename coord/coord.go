// Package coord converts between block, chunk and region coordinate spaces.
package coord

import "fmt"

const (
	// ChunkSize is the number of blocks along one edge of a chunk.
	ChunkSize = 16
	// RegionSize is the number of chunks along one edge of a region.
	RegionSize = 32
)

type Block struct {
	X int
	Z int
}

type Chunk struct {
	X int
	Z int
}

type Region struct {
	X int
	Z int
}

func BlockToChunk(v int) int  { return v >> 4 }
func ChunkToRegion(v int) int { return v >> 5 }
func BlockToRegion(v int) int { return v >> 9 }
func ChunkToBlock(v int) int  { return v << 4 }
func RegionToChunk(v int) int { return v << 5 }

func (b Block) Chunk() Chunk {
	return Chunk{X: BlockToChunk(b.X), Z: BlockToChunk(b.Z)}
}

func (b Block) Region() Region {
	return Region{X: BlockToRegion(b.X), Z: BlockToRegion(b.Z)}
}

func (c Chunk) Region() Region {
	return Region{X: ChunkToRegion(c.X), Z: ChunkToRegion(c.Z)}
}

// Block returns the north-west corner block of the chunk.
func (c Chunk) Block() Block {
	return Block{X: ChunkToBlock(c.X), Z: ChunkToBlock(c.Z)}
}

// Local returns the chunk's offset inside its region, both in [0, 32).
func (c Chunk) Local() (int, int) {
	return c.X & (RegionSize - 1), c.Z & (RegionSize - 1)
}

// Pack encodes the chunk as a single int64 key, x in the low word and z in the high word.
func (c Chunk) Pack() int64 {
	return int64(uint32(int32(c.X))) | int64(uint32(int32(c.Z)))<<32
}

func UnpackChunk(v int64) Chunk {
	return Chunk{X: int(int32(v)), Z: int(int32(v >> 32))}
}

// Chebyshev returns max(|dx|, |dz|) between two chunks.
func (c Chunk) Chebyshev(o Chunk) int {
	return max(abs(c.X-o.X), abs(c.Z-o.Z))
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk(%d, %d)", c.X, c.Z)
}

// Chunk returns the north-west corner chunk of the region.
func (r Region) Chunk() Chunk {
	return Chunk{X: RegionToChunk(r.X), Z: RegionToChunk(r.Z)}
}

// Filename returns the on-disk name of the region, e.g. r.-1.3.mca.
func (r Region) Filename(ext string) string {
	return fmt.Sprintf("r.%d.%d.%s", r.X, r.Z, ext)
}

func (r Region) String() string {
	return fmt.Sprintf("region(%d, %d)", r.X, r.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
