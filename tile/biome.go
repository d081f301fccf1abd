package tile

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"sync"

	"github.com/Tnze/go-mc/level"
	"github.com/Tnze/go-mc/save"
	"github.com/muesli/gamut"
)

// VanillaBiomes is the default set of biomes given a colour by the biome layer.
var VanillaBiomes = []string{
	"minecraft:badlands", "minecraft:bamboo_jungle", "minecraft:beach", "minecraft:birch_forest",
	"minecraft:cherry_grove", "minecraft:cold_ocean", "minecraft:dark_forest", "minecraft:deep_cold_ocean",
	"minecraft:deep_dark", "minecraft:deep_frozen_ocean", "minecraft:deep_lukewarm_ocean", "minecraft:deep_ocean",
	"minecraft:desert", "minecraft:dripstone_caves", "minecraft:eroded_badlands", "minecraft:flower_forest",
	"minecraft:forest", "minecraft:frozen_ocean", "minecraft:frozen_peaks", "minecraft:frozen_river",
	"minecraft:grove", "minecraft:ice_spikes", "minecraft:jagged_peaks", "minecraft:jungle",
	"minecraft:lukewarm_ocean", "minecraft:lush_caves", "minecraft:mangrove_swamp", "minecraft:meadow",
	"minecraft:mushroom_fields", "minecraft:ocean", "minecraft:old_growth_birch_forest",
	"minecraft:old_growth_pine_taiga", "minecraft:old_growth_spruce_taiga", "minecraft:plains",
	"minecraft:river", "minecraft:savanna", "minecraft:savanna_plateau", "minecraft:snowy_beach",
	"minecraft:snowy_plains", "minecraft:snowy_slopes", "minecraft:snowy_taiga", "minecraft:sparse_jungle",
	"minecraft:stony_peaks", "minecraft:stony_shore", "minecraft:sunflower_plains", "minecraft:swamp",
	"minecraft:taiga", "minecraft:warm_ocean", "minecraft:windswept_forest", "minecraft:windswept_gravelly_hills",
	"minecraft:windswept_hills", "minecraft:windswept_savanna", "minecraft:wooded_badlands",
}

// BiomeRenderer paints each column with a pastel colour per surface biome.
type BiomeRenderer struct {
	biomes map[save.BiomeState]color.Color

	mu       sync.Mutex
	unmapped map[save.BiomeState]struct{}
}

func NewBiomeRenderer(names []string) (*BiomeRenderer, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	colors, err := gamut.Generate(len(sorted), gamut.PastelGenerator{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate color palette for biomes: %w", err)
	}

	biomes := make(map[save.BiomeState]color.Color, len(sorted))
	for idx, biome := range sorted {
		biomes[save.BiomeState(biome)] = colors[idx]
	}

	return &BiomeRenderer{
		biomes:   biomes,
		unmapped: make(map[save.BiomeState]struct{}),
	}, nil
}

func (c *BiomeRenderer) ImageSize() (int, int) {
	return 16, 16
}

func (c *BiomeRenderer) RenderChunk(chunk *save.Chunk) (image.Image, error) {
	if len(chunk.Sections) == 0 {
		return nil, nil
	}

	img := image.NewRGBA64(image.Rect(0, 0, 16, 16))
	motionBlocking := heightmap(chunk, "MOTION_BLOCKING")
	storages := make(map[int]*level.BitStorage)

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			y := topY(motionBlocking, x, z)
			sectionIdx := sectionAt(chunk, y)
			section := chunk.Sections[sectionIdx]

			palette := section.Biomes.Palette
			if len(palette) == 0 {
				continue
			}

			// biomes are stored per 4x4x4 cell
			idx := 0
			if len(palette) > 1 {
				biomes, ok := storages[sectionIdx]
				if !ok {
					v := calcBitsPerValue(4*4*4, len(section.Biomes.Data))
					biomes = level.NewBitStorage(v, 4*4*4, section.Biomes.Data)
					storages[sectionIdx] = biomes
				}
				idx = biomes.Get(((y&0x0f)>>2)<<4 | (z>>2)<<2 | (x >> 2))
			}
			if idx >= len(palette) {
				continue
			}

			biome := palette[idx]
			if clr, ok := c.biomes[biome]; ok {
				img.Set(x, z, clr)
				continue
			}

			c.mu.Lock()
			if _, seen := c.unmapped[biome]; !seen {
				c.unmapped[biome] = struct{}{}
				slog.Warn("unmapped biome", "biome", string(biome))
			}
			c.mu.Unlock()
		}
	}

	return img, nil
}
