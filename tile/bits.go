package tile

import (
	"math/bits"

	"github.com/Tnze/go-mc/level"
	"github.com/Tnze/go-mc/save"
)

func calcBitsPerValue(length, longs int) (bits int) {
	if longs == 0 || length == 0 {
		return 0
	}
	valuePerLong := (length + longs - 1) / longs
	return 64 / valuePerLong
}

// heightmap decodes one of the chunk's packed 16x16 heightmaps.
func heightmap(chunk *save.Chunk, name string) *level.BitStorage {
	bitsForHeight := bits.Len(uint(len(chunk.Sections))*16 + 1)
	return level.NewBitStorage(bitsForHeight, 16*16, chunk.Heightmaps[name])
}

// sectionAt returns the index of the section holding height y, clamped to
// the chunk's sections.
func sectionAt(chunk *save.Chunk, y int) int {
	idx := y / 16
	if idx >= len(chunk.Sections) {
		idx = len(chunk.Sections) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// topY returns the surface height of column (x, z); the block itself sits one below.
func topY(hm *level.BitStorage, x, z int) int {
	return max(hm.Get(z*16+x)-1, 0)
}
