package packer

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Placement is one final plant position. Size is the canopy diameter, matching
// the input convention of radius = half the requested diameter.
type Placement struct {
	ID        int     `json:"id"`
	Type      string  `json:"type"`
	ClusterID int     `json:"clusterId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
}

// ClusterInfo is cluster metadata for visualization and debugging.
type ClusterInfo struct {
	ID      int     `json:"id"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Radius  float64 `json:"radius"`
	Members int     `json:"members"`
}

// TypeStats reports requested/placed counts and fill ratios for one type.
type TypeStats struct {
	Type        string  `json:"type"`
	Requested   int     `json:"requested"`
	Placed      int     `json:"placed"`
	TargetRatio float64 `json:"targetRatio"`
	ActualRatio float64 `json:"actualRatio"`
}

// BoundsViolation records a circle left outside the bed shape. With final
// cleanup active this list should always be empty; it exists for monitoring
// and testing, not runtime alarms.
type BoundsViolation struct {
	ID     int     `json:"id"`
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// CollisionViolation records a residual pair closer than the required
// separation.
type CollisionViolation struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Distance float64 `json:"distance"`
	Required float64 `json:"required"`
}

// Violations is the diagnostics report of residual issues after all fallback
// phases. Surfaced as data, never as an error.
type Violations struct {
	Bounds     []BoundsViolation    `json:"bounds"`
	Collisions []CollisionViolation `json:"collisions"`
}

// Convergence carries iteration counts and fallback flags for diagnostics.
type Convergence struct {
	ClusterIterations   int  `json:"clusterIterations"`
	ClusterConverged    bool `json:"clusterConverged"`
	MemberIterations    int  `json:"memberIterations"`
	MemberConverged     int  `json:"memberConverged"`
	RefineIterations    int  `json:"refineIterations"`
	CollisionIterations int  `json:"collisionIterations"`
	GreedyFallback      bool `json:"greedyFallback"`
	EmergencyFallback   bool `json:"emergencyFallback"`
	SpaceFillAdded      int  `json:"spaceFillAdded"`
}

// Stats summarizes one packing run.
type Stats struct {
	Requested   int         `json:"requested"`
	Placed      int         `json:"placed"`
	PerType     []TypeStats `json:"perType"`
	Density     float64     `json:"density"`
	Convergence Convergence `json:"convergence"`
}

// Result is the complete output of one Pack call.
type Result struct {
	Placements []Placement   `json:"placements"`
	Clusters   []ClusterInfo `json:"clusters"`
	Stats      Stats         `json:"stats"`
	Violations Violations    `json:"violations"`
}

// cleanupBounds enforces the hard containment invariant: any circle failing
// the shape test is clamped unless clamping would introduce a new collision,
// in which case it is dropped.
func (p *Packer) cleanupBounds() {
	for i := range p.circles {
		c := &p.circles[i]
		if !c.placed || p.bed.Contains(c.x, c.y, c.radius) {
			continue
		}
		x, y := p.bed.Clamp(c.x, c.y, c.radius)
		if p.bed.Contains(x, y, c.radius) && !p.collidesAt(x, y, c.radius, p.cfg.MinSpacing, i) {
			c.x, c.y = x, y
			continue
		}
		c.placed = false
		p.log.Debug("dropped out-of-bounds circle", "id", c.id, "type", c.typ)
	}
}

func (p *Packer) buildResult() *Result {
	res := &Result{
		Placements: []Placement{},
		Clusters:   []ClusterInfo{},
		Violations: Violations{
			Bounds:     []BoundsViolation{},
			Collisions: []CollisionViolation{},
		},
	}

	areas := make([]float64, 0, len(p.circles))
	for i := range p.circles {
		c := &p.circles[i]
		if !c.placed {
			continue
		}
		res.Placements = append(res.Placements, Placement{
			ID:        c.id,
			Type:      c.typ,
			ClusterID: c.clusterID,
			X:         c.x,
			Y:         c.y,
			Size:      c.radius * 2,
		})
		areas = append(areas, math.Pi*c.radius*c.radius)
	}

	for i := range p.clusters {
		c := &p.clusters[i]
		placed := 0
		for _, idx := range c.members {
			if p.circles[idx].placed {
				placed++
			}
		}
		res.Clusters = append(res.Clusters, ClusterInfo{
			ID:      c.id,
			Type:    c.typ,
			X:       c.x,
			Y:       c.y,
			Radius:  c.radius,
			Members: placed,
		})
	}

	totalPlaced := len(res.Placements)
	totalPriority := 0.0
	for i := range p.groups {
		totalPriority += p.groups[i].priority()
	}
	requested := 0
	for i := range p.groups {
		g := &p.groups[i]
		requested += len(g.Members)
		target := 0.0
		if totalPriority > 0 {
			target = g.priority() / totalPriority
		}
		actual := 0.0
		if totalPlaced > 0 {
			actual = float64(p.placedOfType(g.Type)) / float64(totalPlaced)
		}
		res.Stats.PerType = append(res.Stats.PerType, TypeStats{
			Type:        g.Type,
			Requested:   len(g.Members),
			Placed:      p.placedOfType(g.Type),
			TargetRatio: target,
			ActualRatio: actual,
		})
	}

	res.Stats.Requested = requested
	res.Stats.Placed = totalPlaced
	if area := p.bed.Area(); area > 0 {
		res.Stats.Density = floats.Sum(areas) / area
	}
	res.Stats.Convergence = p.conv

	p.collectViolations(res)
	return res
}

func (p *Packer) collectViolations(res *Result) {
	idx := p.placedIndices()
	for _, i := range idx {
		c := &p.circles[i]
		if !p.bed.Contains(c.x, c.y, c.radius) {
			res.Violations.Bounds = append(res.Violations.Bounds, BoundsViolation{
				ID: c.id, Type: c.typ, X: c.x, Y: c.y, Radius: c.radius,
			})
		}
	}
	for i := 0; i < len(idx); i++ {
		a := &p.circles[idx[i]]
		for j := i + 1; j < len(idx); j++ {
			b := &p.circles[idx[j]]
			required := a.radius + b.radius + p.cfg.MinSpacing
			dist := math.Hypot(b.x-a.x, b.y-a.y)
			if dist < required-collisionEpsilon {
				res.Violations.Collisions = append(res.Violations.Collisions, CollisionViolation{
					A: a.id, B: b.id, Distance: dist, Required: required,
				})
			}
		}
	}
}
