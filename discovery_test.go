package cartolive

import (
	"context"
	"errors"
	"testing"

	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/google/go-cmp/cmp"
)

func TestParseRegionFilename(t *testing.T) {
	cases := []struct {
		name string
		want coord.Region
		ok   bool
	}{
		{"r.0.0.mca", coord.Region{}, true},
		{"r.-2.5.mca", coord.Region{X: -2, Z: 5}, true},
		{"r.12.-40.mcc", coord.Region{X: 12, Z: -40}, true},
		{"r.1.2", coord.Region{X: 1, Z: 2}, true},
		{"r.1.mca", coord.Region{}, false},
		{"r.a.2.mca", coord.Region{}, false},
		{"r.1.b.mca", coord.Region{}, false},
		{"level.dat", coord.Region{}, false},
		{"", coord.Region{}, false},
	}
	for _, c := range cases {
		got, ok := ParseRegionFilename(c.name)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseRegionFilename(%q): expected %v %v, got %v %v", c.name, c.want, c.ok, got, ok)
		}
	}
}

func TestDiscoverRegionsSkipsUnusableFiles(t *testing.T) {
	storage := &memStorage{files: []RegionFile{
		{Name: "r.0.0.mca", Size: 8192},
		{Name: "r.1.0.mca", Size: 0},
		{Name: "r.x.0.mca", Size: 8192},
		{Name: "r.-1.3.mca", Size: 4096},
		{Name: "r.0.0.mca", Size: 8192},
	}}

	regions, err := DiscoverRegions(context.Background(), storage)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	want := []coord.Region{{X: 0, Z: 0}, {X: -1, Z: 3}}
	if diff := cmp.Diff(want, regions.Regions()); diff != "" {
		t.Fatalf("unexpected regions (-want +got):\n%s", diff)
	}
	if regions.Contains(coord.Region{X: 1, Z: 0}) {
		t.Fatal("expected the empty region file to be skipped")
	}
}

func TestDiscoverRegionsStopsOnCancel(t *testing.T) {
	storage := &memStorage{files: []RegionFile{{Name: "r.0.0.mca", Size: 1}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := DiscoverRegions(ctx, storage); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDiscoverRegionsListError(t *testing.T) {
	storage := &memStorage{listErr: errors.New("no such directory")}
	if _, err := DiscoverRegions(context.Background(), storage); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRegionSet(t *testing.T) {
	s := NewRegionSet(coord.Region{X: 1}, coord.Region{X: 2}, coord.Region{X: 1})
	if s.Len() != 2 {
		t.Fatalf("expected 2 regions, got %d", s.Len())
	}
	if s.Add(coord.Region{X: 2}) {
		t.Fatal("expected duplicate add to report false")
	}
	if !s.Add(coord.Region{X: 3}) {
		t.Fatal("expected new add to report true")
	}

	regions := s.Regions()
	regions[0] = coord.Region{X: 99}
	if !s.Contains(coord.Region{X: 1}) || s.Contains(coord.Region{X: 99}) {
		t.Fatal("expected Regions to return a copy")
	}
}
