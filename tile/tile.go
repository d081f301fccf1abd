// Package tile turns decoded chunks into region-sized map images.
package tile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Tnze/go-mc/save"
	"github.com/b1naryth1ef/cartolive/coord"
)

// ChunkRenderer draws a single chunk. A nil image means there is nothing to draw.
type ChunkRenderer interface {
	ImageSize() (int, int)
	RenderChunk(*save.Chunk) (image.Image, error)
}

// Layer renders chunks with one ChunkRenderer into its own tile directory.
type Layer struct {
	Name string

	renderer ChunkRenderer
	canvas   *Canvas
	// alpha mask applied to every chunk image, nil when opaque
	fade *image.Uniform
}

// NewLayer creates a layer writing tiles to dir. An opacity outside (0, 1)
// draws the layer opaque.
func NewLayer(name string, renderer ChunkRenderer, dir string, opacity float64) *Layer {
	w, h := renderer.ImageSize()
	l := &Layer{
		Name:     name,
		renderer: renderer,
		canvas:   NewCanvas(dir, w, h),
	}
	if opacity > 0 && opacity < 1 {
		l.fade = image.NewUniform(color.Alpha16{A: uint16(opacity * 0xffff)})
	}
	return l
}

// NewRendererByName returns the chunk renderer configured as render = "<kind>".
func NewRendererByName(kind string) (ChunkRenderer, error) {
	switch kind {
	case "heightmap":
		return NewHeightmapRenderer(), nil
	case "biome":
		return NewBiomeRenderer(VanillaBiomes)
	case "lighting":
		return NewLightingRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported renderer '%s'", kind)
	}
}

func (l *Layer) RenderChunk(pos coord.Chunk, chunk *save.Chunk) error {
	img, err := l.renderer.RenderChunk(chunk)
	if err != nil {
		return fmt.Errorf("layer %s: %w", l.Name, err)
	}
	if img == nil {
		return nil
	}
	if l.fade != nil {
		faded := image.NewRGBA64(img.Bounds())
		draw.DrawMask(faded, faded.Bounds(), img, img.Bounds().Min, l.fade, image.Point{}, draw.Src)
		img = faded
	}
	l.canvas.Draw(pos, img)
	return nil
}

func (l *Layer) FlushRegion(r coord.Region) error {
	return l.canvas.Flush(r)
}

func (l *Layer) DiscardRegion(r coord.Region) {
	l.canvas.Drop(r)
}

// Layers renders every chunk into each of its layers.
type Layers []*Layer

func (ls Layers) RenderChunk(pos coord.Chunk, chunk *save.Chunk) error {
	var errs []error
	for _, l := range ls {
		if err := l.RenderChunk(pos, chunk); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ls Layers) FlushRegion(r coord.Region) error {
	var errs []error
	for _, l := range ls {
		if err := l.FlushRegion(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (ls Layers) DiscardRegion(r coord.Region) {
	for _, l := range ls {
		l.DiscardRegion(r)
	}
}
