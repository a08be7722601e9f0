package packer

import (
	"math"
	"sort"
)

// goldenAngle is the spiral step used to seed member plants around their
// cluster center, in radians.
const goldenAngle = 2.4

// seedMembers places one circle per requested member on a golden-angle spiral
// around the cluster center. Higher-priority and larger members seed first,
// which keeps them closest to the center.
func (p *Packer) seedMembers(c *cluster) {
	members := make([]PlantRequest, len(c.group.Members))
	copy(members, c.group.Members)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Priority != members[j].Priority {
			return members[i].Priority > members[j].Priority
		}
		return members[i].Radius > members[j].Radius
	})

	avg := 0.0
	for _, m := range members {
		avg += m.Radius
	}
	avg /= float64(len(members))
	step := avg * 1.6

	c.members = make([]int, 0, len(members))
	for i, m := range members {
		angle := float64(i) * goldenAngle
		dist := math.Sqrt(float64(i)) * step
		x := c.x + dist*math.Cos(angle)
		y := c.y + dist*math.Sin(angle)
		// The type comes from the group: members carry only radius and
		// priority.
		c.members = append(c.members, p.newCircle(c.typ, c.id, x, y, m.Radius, m.Priority))
	}
}

// relaxMembers runs the level-2 simulation for one cluster. The convergence
// threshold is a tenth of the cluster-level one: individual plant placement
// precision matters more visually.
func (p *Packer) relaxMembers(c *cluster) {
	if len(c.members) == 0 {
		return
	}
	threshold := p.cfg.ConvergenceThreshold * 0.1
	prevEnergy := math.Inf(1)
	for iter := 0; iter < p.cfg.MaxIterations; iter++ {
		p.conv.MemberIterations++

		for _, idx := range c.members {
			p.circles[idx].fx = 0
			p.circles[idx].fy = 0
		}
		p.accumulateMemberForces(c)

		energy := 0.0
		for _, idx := range c.members {
			m := &p.circles[idx]
			m.vx = (m.vx + m.fx) * p.cfg.Damping
			m.vy = (m.vy + m.fy) * p.cfg.Damping
			m.x += m.vx
			m.y += m.vy
			energy += m.vx*m.vx + m.vy*m.vy
		}

		if math.Abs(energy-prevEnergy) < threshold {
			p.conv.MemberConverged++
			return
		}
		prevEnergy = energy
	}
	p.log.Debug("member relaxation hit iteration budget", "cluster", c.typ)
}

func (p *Packer) accumulateMemberForces(c *cluster) {
	for i := 0; i < len(c.members); i++ {
		a := &p.circles[c.members[i]]
		for j := i + 1; j < len(c.members); j++ {
			b := &p.circles[c.members[j]]
			p.memberCollisionForce(a, b)
		}
		p.memberClusterForces(c, a)
	}
}

// memberCollisionForce pushes an overlapping pair apart, with the
// lower-priority member absorbing proportionally more of the correction.
func (p *Packer) memberCollisionForce(a, b *circle) {
	dx := b.x - a.x
	dy := b.y - a.y
	dist := math.Hypot(dx, dy)
	contact := a.radius + b.radius + p.cfg.MinSpacing
	if dist >= contact {
		return
	}
	if dist < 1e-9 {
		theta := p.rng.Float64() * 2 * math.Pi
		dx, dy = math.Cos(theta), math.Sin(theta)
		dist = 1
	}
	ux := dx / dist
	uy := dy / dist
	overlap := contact - dist
	f := p.cfg.CollisionStrength * overlap
	total := a.priority + b.priority
	a.fx -= ux * f * (b.priority / total) * 2
	a.fy -= uy * f * (b.priority / total) * 2
	b.fx += ux * f * (a.priority / total) * 2
	b.fy += uy * f * (a.priority / total) * 2
}

// memberClusterForces applies the weak centroid spring plus the containment
// push when a member strays past the cluster radius.
func (p *Packer) memberClusterForces(c *cluster, m *circle) {
	dx := c.x - m.x
	dy := c.y - m.y
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return
	}
	ux := dx / dist
	uy := dy / dist

	m.fx += ux * p.cfg.Attraction * dist * 0.5
	m.fy += uy * p.cfg.Attraction * dist * 0.5

	limit := c.radius - m.radius
	if limit < 0 {
		limit = 0
	}
	if dist > limit {
		f := p.cfg.BoundaryForce * (dist - limit)
		m.fx += ux * f
		m.fy += uy * f
	}
}

// settleClusterMembers runs a few direct positional correction passes over
// this cluster's members only, hard-clamping into the bed after each pass.
func (p *Packer) settleClusterMembers(c *cluster) {
	for pass := 0; pass < 3; pass++ {
		moved := false
		for i := 0; i < len(c.members); i++ {
			a := &p.circles[c.members[i]]
			for j := i + 1; j < len(c.members); j++ {
				b := &p.circles[c.members[j]]
				if p.separatePair(a, b, p.cfg.MinSpacing, 1.0) {
					moved = true
				}
			}
		}
		for _, idx := range c.members {
			m := &p.circles[idx]
			m.x, m.y = p.bed.Clamp(m.x, m.y, m.radius)
		}
		if !moved {
			return
		}
	}
}

// separatePair directly moves an overlapping pair apart, splitting the
// correction by relative priority. overshoot > 1 pushes slightly further than
// contact to help later passes converge. Reports whether anything moved.
func (p *Packer) separatePair(a, b *circle, spacing, overshoot float64) bool {
	dx := b.x - a.x
	dy := b.y - a.y
	dist := math.Hypot(dx, dy)
	contact := a.radius + b.radius + spacing
	if dist >= contact {
		return false
	}
	if dist < 1e-9 {
		theta := p.rng.Float64() * 2 * math.Pi
		dx, dy = math.Cos(theta), math.Sin(theta)
		dist = 1
	}
	ux := dx / dist
	uy := dy / dist
	push := (contact - dist) * overshoot
	total := a.priority + b.priority
	aShare := b.priority / total
	bShare := a.priority / total
	a.x -= ux * push * aShare
	a.y -= uy * push * aShare
	b.x += ux * push * bShare
	b.y += uy * push * bShare
	return true
}
