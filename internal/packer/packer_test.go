package packer

import (
	"context"
	"reflect"
	"testing"

	"github.com/brianruggieri/garden-craft-sub000/internal/geometry"
)

func mustPacker(t *testing.T, bed geometry.Bed, cfg Config) *Packer {
	t.Helper()
	p, err := New(bed, cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return p
}

func uniformGroup(typ string, radius, priority float64, count int) PlantGroup {
	g := PlantGroup{Type: typ}
	for i := 0; i < count; i++ {
		g.Members = append(g.Members, PlantRequest{Type: typ, Radius: radius, Priority: priority})
	}
	return g
}

// The reference scenario: a 48x48 rectangular bed with tomato, basil and
// thyme. Expect at least three clusters, zero bounds violations, and a
// plausible packing density.
func TestPackScenario48x48(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}
	groups := []PlantGroup{
		uniformGroup("tomato", 12, 5, 2),
		uniformGroup("basil", 5, 4, 6),
		uniformGroup("thyme", 4, 2, 10),
	}
	groups[0].Companions = []string{"basil"}
	groups[1].Companions = []string{"tomato"}

	p := mustPacker(t, bed, Config{Seed: 42})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	if len(res.Clusters) < 3 {
		t.Errorf("expected >= 3 clusters, got %d", len(res.Clusters))
	}
	if len(res.Violations.Bounds) != 0 {
		t.Errorf("expected zero bounds violations, got %d", len(res.Violations.Bounds))
	}
	for _, pl := range res.Placements {
		if !bed.Contains(pl.X, pl.Y, pl.Size/2) {
			t.Errorf("placement %d (%s) at (%g,%g) r=%g outside bed", pl.ID, pl.Type, pl.X, pl.Y, pl.Size/2)
		}
	}
	if res.Stats.Density < 0.40 || res.Stats.Density > 0.65 {
		t.Errorf("packing density %g outside expected 40-65%% band", res.Stats.Density)
	}
	if res.Stats.Placed == 0 {
		t.Error("expected at least some placements")
	}
	if res.Stats.Placed != len(res.Placements) {
		t.Errorf("Stats.Placed=%d but %d placements", res.Stats.Placed, len(res.Placements))
	}
}

// Placed count per type must never exceed the requested count, even when the
// bed is crowded and fallbacks fire.
func TestPackNonInvention(t *testing.T) {
	bed := geometry.Bed{Width: 30, Height: 30, Shape: geometry.Rectangle}
	groups := []PlantGroup{
		uniformGroup("rosemary", 6, 3, 8),
		uniformGroup("chive", 3, 2, 12),
	}
	p := mustPacker(t, bed, Config{Seed: 7})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	for _, ts := range res.Stats.PerType {
		if ts.Placed > ts.Requested {
			t.Errorf("type %s: placed %d > requested %d", ts.Type, ts.Placed, ts.Requested)
		}
	}
}

// Members carry only radius and priority; the group's type must flow through
// to every placement and into the per-type stats.
func TestPackMembersInheritGroupType(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}
	groups := []PlantGroup{{Type: "tomato", Members: []PlantRequest{
		{Radius: 6, Priority: 5},
		{Radius: 6, Priority: 5},
	}}}
	p := mustPacker(t, bed, Config{Seed: 42})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	for _, pl := range res.Placements {
		if pl.Type != "tomato" {
			t.Errorf("placement %d has type %q, want %q", pl.ID, pl.Type, "tomato")
		}
	}
	if len(res.Stats.PerType) != 1 {
		t.Fatalf("got %d per-type entries, want 1", len(res.Stats.PerType))
	}
	ts := res.Stats.PerType[0]
	if ts.Placed != res.Stats.Placed {
		t.Errorf("type %q placed %d, but run placed %d", ts.Type, ts.Placed, res.Stats.Placed)
	}
	if res.Stats.Placed > 0 && ts.ActualRatio != 1 {
		t.Errorf("single-type run has actual ratio %g, want 1", ts.ActualRatio)
	}
}

func TestPackDeterminism(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 36, Shape: geometry.Pill}
	groups := []PlantGroup{
		uniformGroup("sage", 4, 3, 5),
		uniformGroup("mint", 3, 2, 7),
	}
	groups[0].Antagonists = []string{"mint"}
	groups[1].Antagonists = []string{"sage"}

	run := func() *Result {
		p := mustPacker(t, bed, Config{Seed: 1234})
		res, err := p.Pack(context.Background(), groups)
		if err != nil {
			t.Fatalf("Pack() failed: %v", err)
		}
		return res
	}

	a := run()
	b := run()
	if !reflect.DeepEqual(a.Placements, b.Placements) {
		t.Error("identical seeds produced different placements")
	}
	if !reflect.DeepEqual(a.Clusters, b.Clusters) {
		t.Error("identical seeds produced different clusters")
	}
}

func TestPackEmptyGroups(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}
	p := mustPacker(t, bed, Config{Seed: 1})
	res, err := p.Pack(context.Background(), nil)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}
	if len(res.Placements) != 0 || len(res.Clusters) != 0 {
		t.Errorf("expected empty result, got %d placements, %d clusters",
			len(res.Placements), len(res.Clusters))
	}
	if len(res.Violations.Bounds) != 0 || len(res.Violations.Collisions) != 0 {
		t.Error("expected zero violations for empty input")
	}
}

// A bed too small for even one plant yields zero placements and no error.
func TestPackGracefulDegradation(t *testing.T) {
	bed := geometry.Bed{Width: 4, Height: 4, Shape: geometry.Rectangle}
	groups := []PlantGroup{uniformGroup("pumpkin", 10, 5, 3)}
	p := mustPacker(t, bed, Config{Seed: 9})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() should degrade gracefully, got error: %v", err)
	}
	if len(res.Placements) != 0 {
		t.Errorf("expected zero placements in a too-small bed, got %d", len(res.Placements))
	}
	if len(res.Violations.Bounds) != 0 {
		t.Errorf("dropped circles must not appear as bounds violations, got %d", len(res.Violations.Bounds))
	}
}

// In an oversubscribed bed the per-type fill should favor higher priority
// types, moving toward the priority-derived target ratios.
func TestPackPriorityRatios(t *testing.T) {
	bed := geometry.Bed{Width: 40, Height: 40, Shape: geometry.Rectangle}
	groups := []PlantGroup{
		uniformGroup("pepper", 3, 5, 30),
		uniformGroup("basil", 3, 4, 30),
		uniformGroup("thyme", 3, 2, 30),
	}
	p := mustPacker(t, bed, Config{Seed: 21})
	res, err := p.Pack(context.Background(), groups)
	if err != nil {
		t.Fatalf("Pack() failed: %v", err)
	}

	byType := make(map[string]TypeStats)
	for _, ts := range res.Stats.PerType {
		byType[ts.Type] = ts
	}
	if byType["pepper"].Placed < byType["thyme"].Placed {
		t.Errorf("priority 5 type placed %d, fewer than priority 2 type %d",
			byType["pepper"].Placed, byType["thyme"].Placed)
	}
	if byType["pepper"].TargetRatio <= byType["thyme"].TargetRatio {
		t.Error("target ratios must follow priorities")
	}
}

func TestPackInvalidInput(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}

	t.Run("invalid bed", func(t *testing.T) {
		if _, err := New(geometry.Bed{Width: -1, Height: 10, Shape: geometry.Rectangle}, Config{}); err == nil {
			t.Error("expected error for negative bed width")
		}
	})

	t.Run("zero radius member", func(t *testing.T) {
		p := mustPacker(t, bed, Config{})
		groups := []PlantGroup{{Type: "x", Members: []PlantRequest{{Type: "x", Radius: 0, Priority: 1}}}}
		if _, err := p.Pack(context.Background(), groups); err == nil {
			t.Error("expected error for zero radius")
		}
	})

	t.Run("non-positive priority", func(t *testing.T) {
		p := mustPacker(t, bed, Config{})
		groups := []PlantGroup{{Type: "x", Members: []PlantRequest{{Type: "x", Radius: 2, Priority: -3}}}}
		if _, err := p.Pack(context.Background(), groups); err == nil {
			t.Error("expected error for negative priority")
		}
	})

	t.Run("conflicting member type", func(t *testing.T) {
		p := mustPacker(t, bed, Config{})
		groups := []PlantGroup{{Type: "dill", Members: []PlantRequest{{Type: "mint", Radius: 2, Priority: 1}}}}
		if _, err := p.Pack(context.Background(), groups); err == nil {
			t.Error("expected error for member type conflicting with its group")
		}
	})

	t.Run("duplicate type", func(t *testing.T) {
		p := mustPacker(t, bed, Config{})
		groups := []PlantGroup{
			uniformGroup("dill", 2, 1, 1),
			uniformGroup("dill", 3, 1, 1),
		}
		if _, err := p.Pack(context.Background(), groups); err == nil {
			t.Error("expected error for duplicate group type")
		}
	})

	t.Run("bad damping", func(t *testing.T) {
		if _, err := New(bed, Config{Damping: 1.5}); err == nil {
			t.Error("expected error for damping outside (0,1)")
		}
	})
}

func TestPackCancelledContext(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Rectangle}
	groups := []PlantGroup{uniformGroup("fennel", 4, 2, 5)}
	p := mustPacker(t, bed, Config{Seed: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Pack(ctx, groups); err == nil {
		t.Error("expected error from cancelled context")
	}
}

// Packing the same groups through two independent packers concurrently must
// not interfere: each instance owns its own state and random source.
func TestPackParallelInstances(t *testing.T) {
	bed := geometry.Bed{Width: 48, Height: 48, Shape: geometry.Circle}
	groups := []PlantGroup{
		uniformGroup("chard", 4, 3, 6),
		uniformGroup("kale", 5, 2, 4),
	}

	results := make([]*Result, 4)
	done := make(chan int, len(results))
	for i := range results {
		go func() {
			p, err := New(bed, Config{Seed: 99})
			if err != nil {
				t.Error(err)
				done <- i
				return
			}
			res, err := p.Pack(context.Background(), groups)
			if err != nil {
				t.Error(err)
			}
			results[i] = res
			done <- i
		}()
	}
	for range results {
		<-done
	}
	for i := 1; i < len(results); i++ {
		if results[i] == nil || results[0] == nil {
			t.Fatal("missing result from parallel run")
		}
		if !reflect.DeepEqual(results[0].Placements, results[i].Placements) {
			t.Errorf("parallel run %d diverged from run 0", i)
		}
	}
}
