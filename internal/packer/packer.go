// Package packer implements the hierarchical force-directed circle-packing
// engine. One Packer instance owns all simulation state for one bed; separate
// beds can be packed concurrently on separate instances.
//
// Packing runs strictly top-down: cluster relaxation (one meta-circle per
// plant type), per-cluster member relaxation, Lloyd refinement, exhaustive
// collision resolution with greedy and emergency fallbacks, space-fill, and
// final bounds cleanup. The engine never fails on valid geometric input; when
// not everything fits it returns fewer placements with honest fill statistics.
package packer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brianruggieri/garden-craft-sub000/internal/geometry"
	"github.com/brianruggieri/garden-craft-sub000/internal/logger"
)

// Packer packs one bed. It is not safe for concurrent use; create one
// instance per bed and per goroutine.
type Packer struct {
	bed geometry.Bed
	cfg Config
	rng *rand.Rand
	log *slog.Logger

	groups   []PlantGroup
	clusters []cluster
	circles  []circle
	nextID   int

	conv Convergence
}

// New validates the bed and configuration and returns a ready packer.
func New(bed geometry.Bed, cfg Config) (*Packer, error) {
	if err := bed.Validate(); err != nil {
		return nil, err
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Packer{
		bed: bed,
		cfg: cfg,
		// Per-instance source: packing different beds in parallel must not
		// share random state.
		rng: rand.New(rand.NewSource(seed)),
		log: logger.WithComponent("packer"),
	}, nil
}

// Pack computes placements for the given plant groups. The context is checked
// between phases only; each phase has a bounded iteration count of its own.
func (p *Packer) Pack(ctx context.Context, groups []PlantGroup) (*Result, error) {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return nil, err
		}
		if seen[g.Type] {
			return nil, fmt.Errorf("packer: duplicate plant group type %q (normalize type keys before packing)", g.Type)
		}
		seen[g.Type] = true
	}
	p.groups = groups
	p.clusters = p.clusters[:0]
	p.circles = p.circles[:0]
	p.nextID = 0
	p.conv = Convergence{}

	if len(groups) == 0 {
		return p.buildResult(), nil
	}

	p.buildClusters()
	p.relaxClusters()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i := range p.clusters {
		p.seedMembers(&p.clusters[i])
		p.relaxMembers(&p.clusters[i])
		p.settleClusterMembers(&p.clusters[i])
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.lloydRelax()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	residual := p.resolveCollisions(p.cfg.MaxIterations)
	if n := p.placedCount(); n > 0 && residual > n/10 {
		p.log.Info("residual collisions exceed threshold, running greedy placement",
			"residual", residual, "placed", n)
		placedByGreedy := p.greedyPlace()
		p.conv.GreedyFallback = true
		if placedByGreedy == 0 {
			p.log.Warn("greedy placement placed nothing, entering emergency recovery")
			p.emergencyPlace()
			p.conv.EmergencyFallback = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.fillRemainingSpace()
	// Space-fill probes with slightly relaxed spacing; a short repair run
	// restores full spacing where the layout has room for it.
	p.resolveCollisions(20)
	p.cleanupBounds()

	res := p.buildResult()
	p.log.Info("pack complete",
		"requested", res.Stats.Requested,
		"placed", res.Stats.Placed,
		"density", res.Stats.Density,
		"bounds_violations", len(res.Violations.Bounds),
		"collision_violations", len(res.Violations.Collisions))
	return res, nil
}

// newCircle appends a circle to the arena and returns its index.
func (p *Packer) newCircle(typ string, clusterID int, x, y, radius, priority float64) int {
	idx := len(p.circles)
	p.circles = append(p.circles, circle{
		id:        p.nextID,
		typ:       typ,
		clusterID: clusterID,
		x:         x,
		y:         y,
		radius:    radius,
		priority:  priority,
		placed:    true,
	})
	p.nextID++
	return idx
}

func (p *Packer) placedCount() int {
	n := 0
	for i := range p.circles {
		if p.circles[i].placed {
			n++
		}
	}
	return n
}

// placedIndices returns the arena indices of currently placed circles.
func (p *Packer) placedIndices() []int {
	idx := make([]int, 0, len(p.circles))
	for i := range p.circles {
		if p.circles[i].placed {
			idx = append(idx, i)
		}
	}
	return idx
}
