package tile

import (
	"image"
	"image/color"

	"github.com/Tnze/go-mc/save"
)

// LightingRenderer darkens the surface by its block light level.
type LightingRenderer struct {
}

func NewLightingRenderer() *LightingRenderer {
	return &LightingRenderer{}
}

func (c *LightingRenderer) ImageSize() (int, int) {
	return 16, 16
}

func (c *LightingRenderer) RenderChunk(chunk *save.Chunk) (image.Image, error) {
	if len(chunk.Sections) == 0 {
		return nil, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	motionBlocking := heightmap(chunk, "MOTION_BLOCKING")

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			y := topY(motionBlocking, x, z) + 1
			section := chunk.Sections[sectionAt(chunk, y)]

			blockLight := byte(0)
			if len(section.BlockLight) == 2048 {
				idx := (y&0x0f)<<8 | z<<4 | x
				raw := section.BlockLight[idx/2]
				if idx&1 > 0 {
					blockLight = (raw >> 4) & 0x0f
				} else {
					blockLight = raw & 0x0f
				}
			}

			a := 192 - ((blockLight + 1) * 12)
			img.SetRGBA(x, z, color.RGBA{A: a})
		}
	}

	return img, nil
}
