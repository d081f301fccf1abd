package cartolive

import (
	"github.com/Tnze/go-mc/save"
	"github.com/b1naryth1ef/cartolive/coord"
)

// TileRenderer updates map tiles from decoded chunk data. RenderChunk may be
// called concurrently for chunks of different regions; FlushRegion is called
// once a region's chunks have all been scanned. DiscardRegion drops the
// partial work of a region whose scan was abandoned.
type TileRenderer interface {
	RenderChunk(pos coord.Chunk, chunk *save.Chunk) error
	FlushRegion(region coord.Region) error
	DiscardRegion(region coord.Region)
}
