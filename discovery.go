package cartolive

import (
	"context"
	"strconv"
	"strings"

	"github.com/b1naryth1ef/cartolive/coord"
)

// RegionSet is a set of region coordinates that remembers insertion order.
type RegionSet struct {
	order []coord.Region
	index map[coord.Region]struct{}
}

func NewRegionSet(regions ...coord.Region) *RegionSet {
	s := &RegionSet{index: make(map[coord.Region]struct{}, len(regions))}
	for _, r := range regions {
		s.Add(r)
	}
	return s
}

// Add inserts r and reports whether it was not already present.
func (s *RegionSet) Add(r coord.Region) bool {
	if _, ok := s.index[r]; ok {
		return false
	}
	s.index[r] = struct{}{}
	s.order = append(s.order, r)
	return true
}

func (s *RegionSet) Contains(r coord.Region) bool {
	_, ok := s.index[r]
	return ok
}

func (s *RegionSet) Len() int {
	return len(s.order)
}

// Regions returns a copy of the regions in insertion order.
func (s *RegionSet) Regions() []coord.Region {
	return append([]coord.Region(nil), s.order...)
}

// ParseRegionFilename extracts the coordinates embedded in a name like r.-2.5.mca.
func ParseRegionFilename(name string) (coord.Region, bool) {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return coord.Region{}, false
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		return coord.Region{}, false
	}
	z, err := strconv.Atoi(parts[2])
	if err != nil {
		return coord.Region{}, false
	}
	return coord.Region{X: x, Z: z}, true
}

// DiscoverRegions lists the regions that have a non-empty backing file.
// Malformed names are skipped. The listing is a best-effort snapshot.
func DiscoverRegions(ctx context.Context, storage WorldStorage) (*RegionSet, error) {
	files, err := storage.RegionFiles()
	if err != nil {
		return nil, err
	}

	regions := NewRegionSet()
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Size == 0 {
			continue
		}
		r, ok := ParseRegionFilename(f.Name)
		if !ok {
			continue
		}
		regions.Add(r)
	}
	return regions, nil
}
