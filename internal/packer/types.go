package packer

import (
	"fmt"
	"math"
)

// PlantRequest is one requested plant instance: a canopy radius (half of the
// requested diameter) and a priority weight. Higher priority plants are placed
// preferentially and pushed less during collisions. Type is optional; the
// owning group's type is authoritative and a conflicting value is rejected.
type PlantRequest struct {
	Type     string  `json:"type"`
	Radius   float64 `json:"radius"`
	Priority float64 `json:"priority"`
}

// PlantGroup bundles every requested instance of one plant type together with
// its relational sets. Types listed in Companions attract this group's
// cluster; types in Antagonists repel it.
type PlantGroup struct {
	Type        string         `json:"type"`
	Members     []PlantRequest `json:"members"`
	Companions  []string       `json:"companions,omitempty"`
	Antagonists []string       `json:"antagonists,omitempty"`
}

// Validate rejects malformed group input before any simulation state exists.
func (g PlantGroup) Validate() error {
	if g.Type == "" {
		return fmt.Errorf("packer: plant group with empty type")
	}
	if len(g.Members) == 0 {
		return fmt.Errorf("packer: plant group %q has no members", g.Type)
	}
	for i, m := range g.Members {
		if m.Type != "" && m.Type != g.Type {
			return fmt.Errorf("packer: group %q member %d has conflicting type %q", g.Type, i, m.Type)
		}
		if m.Radius <= 0 {
			return fmt.Errorf("packer: group %q member %d has non-positive radius %g", g.Type, i, m.Radius)
		}
		if m.Priority <= 0 {
			return fmt.Errorf("packer: group %q member %d has non-positive priority %g", g.Type, i, m.Priority)
		}
	}
	return nil
}

// priority returns the group's dominant priority (the max over members), used
// for ratio targets and cluster-level weighting.
func (g PlantGroup) priority() float64 {
	p := 0.0
	for _, m := range g.Members {
		if m.Priority > p {
			p = m.Priority
		}
	}
	return p
}

// packingEfficiency is the assumed density of circles inside a cluster
// meta-circle. Aggregate member area divided by this constant gives the
// cluster disk area.
const packingEfficiency = 0.65

// cluster is the level-1 meta-circle for one plant type. Velocity and force
// fields are transient relaxation state; members holds indices into the
// packer's circle arena.
type cluster struct {
	id     int
	typ    string
	x, y   float64
	radius float64

	vx, vy float64
	fx, fy float64

	group   *PlantGroup
	members []int
}

// clusterRadius derives the meta-circle radius from the member radii. It is a
// pure function of the group; the stored radius is never mutated afterwards.
func clusterRadius(g PlantGroup) float64 {
	area := 0.0
	for _, m := range g.Members {
		area += math.Pi * m.Radius * m.Radius
	}
	return math.Sqrt(area / packingEfficiency / math.Pi)
}

// circle is one placed plant instance in the packer's arena. It is mutated
// through every relaxation and fallback phase and becomes immutable once the
// result is built. A dropped circle has placed=false but keeps its identity so
// fallback phases can retry it.
type circle struct {
	id        int
	typ       string
	clusterID int
	x, y      float64
	radius    float64
	priority  float64

	vx, vy float64
	fx, fy float64

	placed bool
}

func (c *circle) overlaps(o *circle, spacing float64) bool {
	dx := o.x - c.x
	dy := o.y - c.y
	minDist := c.radius + o.radius + spacing
	return dx*dx+dy*dy < minDist*minDist
}
