package packer

import (
	"context"
	"math"
	"testing"

	"github.com/brianruggieri/garden-craft-sub000/internal/geometry"
)

func TestClusterRadius(t *testing.T) {
	g := uniformGroup("tomato", 12, 5, 2)
	// Two r=12 members: sqrt(2*pi*144 / 0.65 / pi)
	want := math.Sqrt(2 * 144 / packingEfficiency)
	if got := clusterRadius(g); math.Abs(got-want) > 1e-9 {
		t.Errorf("clusterRadius = %g, want %g", got, want)
	}
}

func TestClusterRadiusIsPureFunctionOfMembers(t *testing.T) {
	g1 := uniformGroup("a", 5, 1, 4)
	g2 := uniformGroup("b", 5, 9, 4) // different priority, same radii
	if clusterRadius(g1) != clusterRadius(g2) {
		t.Error("cluster radius must depend only on member radii")
	}
}

func TestSeedClusterPositionCircularBed(t *testing.T) {
	bed := geometry.Bed{Width: 40, Height: 40, Shape: geometry.Circle}
	p := mustPacker(t, bed, Config{Seed: 5})
	cx, cy := bed.Center()
	for i := 0; i < 200; i++ {
		x, y := p.seedClusterPosition()
		if d := math.Hypot(x-cx, y-cy); d > 0.8*20+1e-9 {
			t.Fatalf("seed %d at distance %g exceeds 80%% of bed radius", i, d)
		}
	}
}

func TestSeedClusterPositionRectangularBedInset(t *testing.T) {
	bed := geometry.Bed{Width: 50, Height: 30, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 5})
	inset := 0.1 * bed.MinDim()
	for i := 0; i < 200; i++ {
		x, y := p.seedClusterPosition()
		if x < inset || x > bed.Width-inset || y < inset || y > bed.Height-inset {
			t.Fatalf("seed %d at (%g,%g) outside inset margin", i, x, y)
		}
	}
}

func TestRelaxClustersSeparatesOverlap(t *testing.T) {
	bed := geometry.Bed{Width: 60, Height: 60, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 11})
	p.groups = []PlantGroup{
		uniformGroup("a", 4, 1, 3),
		uniformGroup("b", 4, 1, 3),
	}
	p.buildClusters()
	// Force a heavy overlap.
	p.clusters[0].x, p.clusters[0].y = 30, 30
	p.clusters[1].x, p.clusters[1].y = 31, 30

	before := clusterDist(p)
	p.relaxClusters()
	after := clusterDist(p)
	if after <= before {
		t.Errorf("overlapping clusters did not separate: before=%g after=%g", before, after)
	}
}

func TestRelaxClustersCompanionAttraction(t *testing.T) {
	bed := geometry.Bed{Width: 80, Height: 80, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 11, MaxIterations: 50})
	p.groups = []PlantGroup{
		{Type: "tomato", Members: uniformGroup("tomato", 3, 1, 2).Members, Companions: []string{"basil"}},
		uniformGroup("basil", 3, 1, 2),
	}
	p.buildClusters()
	p.clusters[0].x, p.clusters[0].y = 15, 40
	p.clusters[1].x, p.clusters[1].y = 65, 40

	before := clusterDist(p)
	p.relaxClusters()
	after := clusterDist(p)
	if after >= before {
		t.Errorf("companion clusters did not approach: before=%g after=%g", before, after)
	}
}

func TestRelaxClustersAntagonistRepulsion(t *testing.T) {
	bed := geometry.Bed{Width: 80, Height: 80, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 11, MaxIterations: 50})
	p.groups = []PlantGroup{
		{Type: "fennel", Members: uniformGroup("fennel", 3, 1, 2).Members, Antagonists: []string{"dill"}},
		uniformGroup("dill", 3, 1, 2),
	}
	p.buildClusters()
	// Inside the antagonist influence band but not overlapping.
	r := p.clusters[0].radius + p.clusters[1].radius
	p.clusters[0].x, p.clusters[0].y = 40-r/2-2, 40
	p.clusters[1].x, p.clusters[1].y = 40+r/2+2, 40

	before := clusterDist(p)
	p.relaxClusters()
	after := clusterDist(p)
	if after <= before {
		t.Errorf("antagonist clusters did not separate: before=%g after=%g", before, after)
	}
}

func TestRelaxClustersConvergesWithinBudget(t *testing.T) {
	bed := geometry.Bed{Width: 60, Height: 60, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 13})
	p.groups = []PlantGroup{
		uniformGroup("a", 3, 1, 2),
		uniformGroup("b", 3, 1, 2),
		uniformGroup("c", 3, 1, 2),
	}
	p.buildClusters()
	p.relaxClusters()
	if p.conv.ClusterIterations == 0 {
		t.Error("relaxation recorded no iterations")
	}
	if !p.conv.ClusterConverged && p.conv.ClusterIterations < p.cfg.MaxIterations {
		t.Error("non-converged relaxation should have used the whole budget")
	}
}

func clusterDist(p *Packer) float64 {
	a, b := &p.clusters[0], &p.clusters[1]
	return math.Hypot(b.x-a.x, b.y-a.y)
}

// End-to-end sanity check that cluster metadata survives into the result.
func TestClusterMetadataInResult(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}
	groups := []PlantGroup{
		uniformGroup("carrot", 2, 2, 4),
		uniformGroup("onion", 2, 1, 4),
	}
	p := mustPacker(t, bed, Config{Seed: 17})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(res.Clusters))
	}
	for _, c := range res.Clusters {
		if c.Radius <= 0 {
			t.Errorf("cluster %s has non-positive radius", c.Type)
		}
		if c.Members < 0 || c.Members > 4 {
			t.Errorf("cluster %s reports %d members, requested 4", c.Type, c.Members)
		}
	}
}
