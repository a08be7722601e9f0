package packer

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/brianruggieri/garden-craft-sub000/internal/geometry"
)

// buildClusters creates one meta-circle per plant group and seeds its initial
// position. Clusters may initially extend outside the bed; only member plants
// are hard-bounded later.
func (p *Packer) buildClusters() {
	p.clusters = make([]cluster, 0, len(p.groups))
	for i := range p.groups {
		g := &p.groups[i]
		x, y := p.seedClusterPosition()
		p.clusters = append(p.clusters, cluster{
			id:     i,
			typ:    g.Type,
			x:      x,
			y:      y,
			radius: clusterRadius(*g),
			group:  g,
		})
	}
	p.log.Debug("clusters built", "count", len(p.clusters))
}

func (p *Packer) seedClusterPosition() (float64, float64) {
	cx, cy := p.bed.Center()
	if p.bed.Shape == geometry.Circle {
		// Uniform-in-disk within 80% of the bed radius.
		bedR := p.bed.MinDim() / 2
		r := 0.8 * bedR * math.Sqrt(p.rng.Float64())
		theta := p.rng.Float64() * 2 * math.Pi
		return cx + r*math.Cos(theta), cy + r*math.Sin(theta)
	}
	inset := 0.1 * p.bed.MinDim()
	x := inset + p.rng.Float64()*(p.bed.Width-2*inset)
	y := inset + p.rng.Float64()*(p.bed.Height-2*inset)
	return x, y
}

// relaxClusters runs the level-1 force simulation until the change in total
// system energy drops below the convergence threshold or the iteration budget
// runs out. Budget exhaustion is logged, not an error.
func (p *Packer) relaxClusters() {
	if len(p.clusters) < 1 {
		return
	}
	prevEnergy := math.Inf(1)
	for iter := 0; iter < p.cfg.MaxIterations; iter++ {
		p.conv.ClusterIterations = iter + 1

		for i := range p.clusters {
			p.clusters[i].fx = 0
			p.clusters[i].fy = 0
		}
		p.accumulateClusterForces()

		// Integrate with damping. No hard clamping at this level: clusters
		// are allowed to overflow the bed.
		for i := range p.clusters {
			c := &p.clusters[i]
			c.vx = (c.vx + c.fx) * p.cfg.Damping
			c.vy = (c.vy + c.fy) * p.cfg.Damping
			c.x += c.vx
			c.y += c.vy
		}

		energy := p.clusterEnergy()
		if math.Abs(energy-prevEnergy) < p.cfg.ConvergenceThreshold {
			p.conv.ClusterConverged = true
			p.log.Debug("cluster relaxation converged", "iterations", iter+1, "energy", energy)
			return
		}
		prevEnergy = energy
	}
	p.log.Info("cluster relaxation hit iteration budget", "iterations", p.cfg.MaxIterations)
}

func (p *Packer) accumulateClusterForces() {
	for i := range p.clusters {
		for j := i + 1; j < len(p.clusters); j++ {
			p.clusterPairForces(&p.clusters[i], &p.clusters[j])
		}
		p.clusterBoundaryForce(&p.clusters[i])
	}
}

func (p *Packer) clusterPairForces(a, b *cluster) {
	dx := b.x - a.x
	dy := b.y - a.y
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		// Coincident centers: pick a random separation direction.
		theta := p.rng.Float64() * 2 * math.Pi
		dx, dy = math.Cos(theta), math.Sin(theta)
		dist = 1
	}
	ux := dx / dist
	uy := dy / dist

	// Collision: push apart proportional to overlap, scaled super-linearly
	// when the overlap is severe.
	contact := a.radius + b.radius + p.cfg.ClusterPadding
	if dist < contact {
		overlap := contact - dist
		f := p.cfg.CollisionStrength * overlap
		if overlap > 0.5*contact {
			f *= 1 + overlap/contact
		}
		a.fx -= ux * f
		a.fy -= uy * f
		b.fx += ux * f
		b.fy += uy * f
	}

	companions := typesListEachOther(a.group.Companions, b.typ) || typesListEachOther(b.group.Companions, a.typ)
	antagonists := typesListEachOther(a.group.Antagonists, b.typ) || typesListEachOther(b.group.Antagonists, a.typ)

	// Weak spring attraction between companion clusters that have drifted
	// past contact distance.
	if companions && dist > contact {
		f := p.cfg.Attraction * (dist - contact)
		a.fx += ux * f
		a.fy += uy * f
		b.fx -= ux * f
		b.fy -= uy * f
	}

	// Antagonists repel, but only inside the influence band.
	if antagonists {
		influence := a.radius + b.radius + 3*p.cfg.ClusterPadding
		if dist < influence {
			f := p.cfg.Repulsion * (influence - dist) / influence * 10
			a.fx -= ux * f
			a.fy -= uy * f
			b.fx += ux * f
			b.fy += uy * f
		}
	}
}

func typesListEachOther(list []string, typ string) bool {
	for _, t := range list {
		if t == typ {
			return true
		}
	}
	return false
}

// clusterBoundaryForce pulls a drifting cluster gently back toward the bed
// center. Intentionally weaker than the plant-level boundary handling.
func (p *Packer) clusterBoundaryForce(c *cluster) {
	margin := 0.1 * p.bed.MinDim()
	out := p.clusterOverflow(c)
	if out <= margin {
		return
	}
	cx, cy := p.bed.Center()
	dx := cx - c.x
	dy := cy - c.y
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return
	}
	f := p.cfg.BoundaryForce * 0.3 * (out - margin)
	c.fx += dx / dist * f
	c.fy += dy / dist * f
}

// clusterOverflow measures how far the cluster disk pokes outside the bed.
func (p *Packer) clusterOverflow(c *cluster) float64 {
	clx, cly := p.bed.Clamp(c.x, c.y, c.radius)
	return math.Hypot(c.x-clx, c.y-cly)
}

// clusterEnergy is the kinetic energy of all clusters plus a boundary
// potential for the portion outside the soft margin.
func (p *Packer) clusterEnergy() float64 {
	margin := 0.1 * p.bed.MinDim()
	terms := make([]float64, 0, 2*len(p.clusters))
	for i := range p.clusters {
		c := &p.clusters[i]
		terms = append(terms, c.vx*c.vx+c.vy*c.vy)
		if out := p.clusterOverflow(c); out > margin {
			d := out - margin
			terms = append(terms, d*d)
		}
	}
	return floats.Sum(terms)
}
