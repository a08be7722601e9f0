package packer

import (
	"math"
	"sort"
)

const (
	lloydIterations     = 2
	lloydNeighborRadius = 30.0
	lloydStep           = 0.15
)

// lloydRelax nudges every placed circle toward the inverse-distance-weighted
// centroid of its neighborhood, improving visual evenness without materially
// breaking cluster cohesion. Each iteration ends with collision repair passes
// for the overlaps the moves introduce.
func (p *Packer) lloydRelax() {
	grid := newSpatialGrid(p.bed.Width, p.bed.Height, gridCellSize(p.bed.MinDim()))
	var neighbors []int
	for iter := 0; iter < lloydIterations; iter++ {
		grid.rebuild(p.circles)
		for i := range p.circles {
			c := &p.circles[i]
			if !c.placed {
				continue
			}
			neighbors = grid.queryRadius(neighbors[:0], p.circles, c.x, c.y, lloydNeighborRadius, i)
			if len(neighbors) == 0 {
				continue
			}
			var sumX, sumY, sumW float64
			for _, n := range neighbors {
				o := &p.circles[n]
				w := 1 / (math.Hypot(o.x-c.x, o.y-c.y) + 1e-6)
				sumX += o.x * w
				sumY += o.y * w
				sumW += w
			}
			c.x += (sumX/sumW - c.x) * lloydStep
			c.y += (sumY/sumW - c.y) * lloydStep
			c.x, c.y = p.bed.Clamp(c.x, c.y, c.radius)
		}
		for pass := 0; pass < 3; pass++ {
			if p.collisionPass(1.0) == 0 {
				break
			}
		}
	}
	p.conv.RefineIterations = lloydIterations
}

// collisionPass runs one direct separation sweep over all placed pairs and
// returns how many pairs needed correction.
func (p *Packer) collisionPass(overshoot float64) int {
	idx := p.placedIndices()
	corrected := 0
	for i := 0; i < len(idx); i++ {
		a := &p.circles[idx[i]]
		for j := i + 1; j < len(idx); j++ {
			b := &p.circles[idx[j]]
			if p.separatePair(a, b, p.cfg.MinSpacing, overshoot) {
				a.x, a.y = p.bed.Clamp(a.x, a.y, a.radius)
				b.x, b.y = p.bed.Clamp(b.x, b.y, b.radius)
				corrected++
			}
		}
	}
	return corrected
}

// resolveCollisions iterates exhaustive separation passes with a slight
// overshoot until a pass is clean or the budget runs out, then returns the
// number of residual violating pairs.
func (p *Packer) resolveCollisions(maxIterations int) int {
	for iter := 0; iter < maxIterations; iter++ {
		p.conv.CollisionIterations++
		if p.collisionPass(1.1) == 0 {
			break
		}
	}
	return p.countCollisionPairs()
}

func (p *Packer) countCollisionPairs() int {
	idx := p.placedIndices()
	n := 0
	for i := 0; i < len(idx); i++ {
		for j := i + 1; j < len(idx); j++ {
			if p.circles[idx[i]].overlaps(&p.circles[idx[j]], p.cfg.MinSpacing-collisionEpsilon) {
				n++
			}
		}
	}
	return n
}

// collisionEpsilon is the slack below which a near-touching pair is not
// counted as a violation.
const collisionEpsilon = 1e-6

const (
	greedyAttempts    = 200
	emergencyAttempts = 1000
)

// greedyPlace rebuilds the layout sequentially when force-based resolution
// left too many overlaps. Circles are re-placed in priority-then-size order by
// searching a golden-angle spiral around their cluster center; circles with no
// collision-free in-bounds position are dropped into the failed set. Returns
// the number of circles successfully placed.
func (p *Packer) greedyPlace() int {
	order := p.placedIndices()
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &p.circles[order[i]], &p.circles[order[j]]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.radius > b.radius
	})
	for _, i := range order {
		p.circles[i].placed = false
	}

	placed := 0
	for _, i := range order {
		c := &p.circles[i]
		cx, cy := p.clusterCenter(c.clusterID)
		x, y, ok := p.spiralSearch(cx, cy, c.radius, c.radius*0.8, p.cfg.MinSpacing, greedyAttempts, 0)
		if !ok {
			continue
		}
		c.x, c.y = x, y
		c.placed = true
		placed++
	}
	p.log.Info("greedy placement finished", "placed", placed, "failed", len(order)-placed)
	return placed
}

// emergencyPlace retries every failed circle from the bed midpoint with a
// larger spiral step, positional jitter, a much larger attempt budget, and
// halved minimum spacing. This is the terminal fallback: whatever it cannot
// place stays dropped, but the run still produces a result.
func (p *Packer) emergencyPlace() {
	cx, cy := p.bed.Center()
	recovered := 0
	for i := range p.circles {
		c := &p.circles[i]
		if c.placed {
			continue
		}
		x, y, ok := p.spiralSearch(cx, cy, c.radius, c.radius*1.5, p.cfg.MinSpacing/2, emergencyAttempts, c.radius*0.5)
		if !ok {
			continue
		}
		c.x, c.y = x, y
		c.placed = true
		recovered++
	}
	p.log.Info("emergency recovery finished", "recovered", recovered)
}

// spiralSearch walks a golden-angle spiral from (cx, cy) looking for the first
// in-bounds, collision-free center for a circle of the given radius. jitter
// adds a random offset per attempt; zero disables it.
func (p *Packer) spiralSearch(cx, cy, radius, step, spacing float64, attempts int, jitter float64) (float64, float64, bool) {
	for k := 0; k < attempts; k++ {
		angle := float64(k) * goldenAngle
		dist := math.Sqrt(float64(k)) * step
		x := cx + dist*math.Cos(angle)
		y := cy + dist*math.Sin(angle)
		if jitter > 0 {
			x += (p.rng.Float64() - 0.5) * jitter
			y += (p.rng.Float64() - 0.5) * jitter
		}
		x, y = p.bed.Clamp(x, y, radius)
		if !p.bed.Contains(x, y, radius) {
			continue
		}
		if p.collidesAt(x, y, radius, spacing, -1) {
			continue
		}
		return x, y, true
	}
	return 0, 0, false
}

// collidesAt reports whether a circle centered at (x, y) would violate spacing
// against any placed circle other than exclude.
func (p *Packer) collidesAt(x, y, radius, spacing float64, exclude int) bool {
	for i := range p.circles {
		c := &p.circles[i]
		if !c.placed || i == exclude {
			continue
		}
		dx := c.x - x
		dy := c.y - y
		minDist := c.radius + radius + spacing
		if dx*dx+dy*dy < minDist*minDist {
			return true
		}
	}
	return false
}

func (p *Packer) clusterCenter(clusterID int) (float64, float64) {
	for i := range p.clusters {
		if p.clusters[i].id == clusterID {
			return p.clusters[i].x, p.clusters[i].y
		}
	}
	return p.bed.Center()
}
