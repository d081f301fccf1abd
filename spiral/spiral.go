// Package spiral walks chunk coordinates outward from a center in square rings.
package spiral

import (
	"errors"

	"github.com/b1naryth1ef/cartolive/coord"
)

var ErrExhausted = errors.New("spiral: iterator exhausted")

// Iterator yields every chunk within a Chebyshev radius of the center, ring by ring.
// Legs run +X, +Z, -X, -Z with lengths 1, 1, 2, 2, 3, 3, ...
type Iterator struct {
	center coord.Chunk

	x, z   int
	dx, dz int

	legLen  int
	legStep int
	legs    int

	emitted int
	total   int
}

func New(center coord.Chunk, radius int) *Iterator {
	if radius < 0 {
		radius = 0
	}
	side := 2*radius + 1
	return &Iterator{
		center: center,
		dx:     1,
		legLen: 1,
		total:  side * side,
	}
}

// Len returns the number of positions the iterator produces in total.
func (it *Iterator) Len() int {
	return it.total
}

func (it *Iterator) HasNext() bool {
	return it.emitted < it.total
}

func (it *Iterator) Next() (coord.Chunk, error) {
	if !it.HasNext() {
		return coord.Chunk{}, ErrExhausted
	}

	c := coord.Chunk{X: it.center.X + it.x, Z: it.center.Z + it.z}
	it.emitted++

	it.x += it.dx
	it.z += it.dz
	it.legStep++
	if it.legStep == it.legLen {
		it.legStep = 0
		it.dx, it.dz = -it.dz, it.dx
		it.legs++
		if it.legs%2 == 0 {
			it.legLen++
		}
	}

	return c, nil
}

// Index returns the position at which an iterator centered on center yields c,
// counting from zero. Ring k occupies positions (2k-1)^2 up to (2k+1)^2-1.
func Index(center, c coord.Chunk) int64 {
	dx := int64(c.X - center.X)
	dz := int64(c.Z - center.Z)
	k := max(abs(dx), abs(dz))
	if k == 0 {
		return 0
	}

	base := (2*k - 1) * (2*k - 1)
	switch {
	case dx == k && dz > -k:
		return base + dz + k - 1
	case dz == k:
		return base + 2*k + k - 1 - dx
	case dx == -k:
		return base + 4*k + k - 1 - dz
	default:
		return base + 6*k + dx + k - 1
	}
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
