package packer

import (
	"math/rand"
	"sort"
	"testing"
)

func TestQueryRadiusMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	circles := make([]circle, 120)
	for i := range circles {
		circles[i] = circle{
			x:      rng.Float64() * 100,
			y:      rng.Float64() * 100,
			radius: 1 + rng.Float64()*3,
			placed: true,
		}
	}
	// A few drifted outside the grid bounds; they must stay findable.
	circles[0].x, circles[0].y = -5, 50
	circles[1].x, circles[1].y = 105, 50

	grid := newSpatialGrid(100, 100, gridCellSize(100))
	grid.rebuild(circles)

	for trial := 0; trial < 50; trial++ {
		qx := rng.Float64()*120 - 10
		qy := rng.Float64()*120 - 10
		qr := 5 + rng.Float64()*25
		exclude := rng.Intn(len(circles))

		got := grid.queryRadius(nil, circles, qx, qy, qr, exclude)
		var want []int
		for i := range circles {
			if i == exclude {
				continue
			}
			dx := circles[i].x - qx
			dy := circles[i].y - qy
			if dx*dx+dy*dy <= qr*qr {
				want = append(want, i)
			}
		}
		sort.Ints(got)
		sort.Ints(want)
		if len(got) != len(want) {
			t.Fatalf("trial %d: grid found %d neighbors, brute force %d", trial, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("trial %d: neighbor sets differ at %d: %d vs %d", trial, i, got[i], want[i])
			}
		}
	}
}

func TestRebuildSkipsUnplaced(t *testing.T) {
	circles := []circle{
		{x: 10, y: 10, placed: true},
		{x: 11, y: 10, placed: false},
	}
	grid := newSpatialGrid(100, 100, 10)
	grid.rebuild(circles)
	got := grid.queryRadius(nil, circles, 10, 10, 5, -1)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("queryRadius = %v, want only the placed circle", got)
	}
}

func TestQueryRadiusReusesDst(t *testing.T) {
	circles := []circle{{x: 10, y: 10, placed: true}}
	grid := newSpatialGrid(100, 100, 10)
	grid.rebuild(circles)

	buf := make([]int, 0, 8)
	got := grid.queryRadius(buf, circles, 10, 10, 5, -1)
	if len(got) != 1 {
		t.Fatalf("expected one neighbor, got %d", len(got))
	}
	got = grid.queryRadius(got[:0], circles, 10, 10, 5, -1)
	if len(got) != 1 {
		t.Errorf("reused buffer query returned %d neighbors", len(got))
	}
}

func TestGridCellSize(t *testing.T) {
	if got := gridCellSize(160); got != 10 {
		t.Errorf("gridCellSize(160) = %g, want 10", got)
	}
	// Small beds floor at 4 to avoid degenerate cells.
	if got := gridCellSize(16); got != 4 {
		t.Errorf("gridCellSize(16) = %g, want 4", got)
	}
}

func BenchmarkQueryRadius(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	circles := make([]circle, 500)
	for i := range circles {
		circles[i] = circle{
			x:      rng.Float64() * 200,
			y:      rng.Float64() * 200,
			radius: 2,
			placed: true,
		}
	}
	grid := newSpatialGrid(200, 200, gridCellSize(200))
	grid.rebuild(circles)

	var dst []int
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst = grid.queryRadius(dst[:0], circles, 100, 100, 30, -1)
	}
}
