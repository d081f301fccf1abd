package tile

import (
	"image"
	"image/color"

	"github.com/Tnze/go-mc/save"
)

const (
	heightBase = 0x22
	heightStep = 0x11
	heightOdd  = 0x06
)

// HeightmapRenderer shades the surface by comparing each column with its
// west and north neighbours, with a faint stripe on odd heights.
type HeightmapRenderer struct{}

func NewHeightmapRenderer() *HeightmapRenderer {
	return &HeightmapRenderer{}
}

func (h *HeightmapRenderer) ImageSize() (int, int) {
	return 16, 16
}

func (h *HeightmapRenderer) RenderChunk(chunk *save.Chunk) (image.Image, error) {
	if len(chunk.Sections) == 0 {
		return nil, nil
	}

	hm := heightmap(chunk, "WORLD_SURFACE")
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			y := topY(hm, x, z)

			shade := heightBase
			if x > 0 {
				shade = shadeAgainst(shade, y, topY(hm, x-1, z))
			}
			if z > 0 {
				shade = shadeAgainst(shade, y, topY(hm, x, z-1))
			}
			if y%2 == 1 {
				shade += heightOdd
			}

			img.SetRGBA(x, z, color.RGBA{A: uint8(min(max(shade, 0), 0xff))})
		}
	}

	return img, nil
}

// shadeAgainst darkens columns below their neighbour and lightens those above it.
func shadeAgainst(shade, y, neighbour int) int {
	switch {
	case neighbour > y:
		return shade + heightStep
	case neighbour < y:
		return shade - heightStep
	default:
		return shade
	}
}
