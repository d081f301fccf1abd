package spiral

import (
	"errors"
	"testing"

	"github.com/b1naryth1ef/cartolive/coord"
	"github.com/google/go-cmp/cmp"
)

func collect(t *testing.T, it *Iterator) []coord.Chunk {
	t.Helper()
	var out []coord.Chunk
	for it.HasNext() {
		c, err := it.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, c)
	}
	return out
}

func TestIteratorCoversSquare(t *testing.T) {
	center := coord.Chunk{X: -7, Z: 12}
	for r := 0; r <= 12; r++ {
		got := collect(t, New(center, r))

		want := (2*r + 1) * (2*r + 1)
		if len(got) != want {
			t.Fatalf("radius %d: expected %d positions, got %d", r, want, len(got))
		}

		seen := make(map[coord.Chunk]struct{}, len(got))
		prev := 0
		for i, c := range got {
			if _, ok := seen[c]; ok {
				t.Fatalf("radius %d: %v emitted twice", r, c)
			}
			seen[c] = struct{}{}

			d := c.Chebyshev(center)
			if d > r {
				t.Fatalf("radius %d: %v is %d away from center", r, c, d)
			}
			if d < prev {
				t.Fatalf("radius %d: distance decreased at index %d (%d < %d)", r, i, d, prev)
			}
			prev = d
		}
	}
}

func TestIteratorFirstRing(t *testing.T) {
	got := collect(t, New(coord.Chunk{}, 1))
	want := []coord.Chunk{
		{X: 0, Z: 0},
		{X: 1, Z: 0},
		{X: 1, Z: 1},
		{X: 0, Z: 1},
		{X: -1, Z: 1},
		{X: -1, Z: 0},
		{X: -1, Z: -1},
		{X: 0, Z: -1},
		{X: 1, Z: -1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected ring order (-want +got):\n%s", diff)
	}
}

func TestIteratorExhausted(t *testing.T) {
	it := New(coord.Chunk{X: 4, Z: 4}, 0)
	if it.Len() != 1 {
		t.Fatalf("expected length 1, got %d", it.Len())
	}

	c, err := it.Next()
	if err != nil || c != (coord.Chunk{X: 4, Z: 4}) {
		t.Fatalf("expected center first, got %v (%v)", c, err)
	}
	if it.HasNext() {
		t.Fatal("expected iterator to be exhausted")
	}
	if _, err := it.Next(); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestIteratorNegativeRadius(t *testing.T) {
	if got := len(collect(t, New(coord.Chunk{}, -3))); got != 1 {
		t.Fatalf("expected negative radius to behave like 0, got %d positions", got)
	}
}

func TestIndexMatchesIterator(t *testing.T) {
	center := coord.Chunk{X: 40, Z: -3}
	for i, c := range collect(t, New(center, 9)) {
		if got := Index(center, c); got != int64(i) {
			t.Fatalf("%v: expected index %d, got %d", c, i, got)
		}
	}
}

func TestIndexFarAway(t *testing.T) {
	// the last position of ring k is (k, -k)
	k := int64(12_831)
	if got, want := Index(coord.Chunk{}, coord.Chunk{X: int(k), Z: int(-k)}), (2*k+1)*(2*k+1)-1; got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}
