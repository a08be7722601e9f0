package packer

import (
	"math"
	"sort"
)

// spaceFillSpacingFactor relaxes the minimum spacing slightly while topping up
// free space, trading a little breathing room for higher fill rates.
const spaceFillSpacingFactor = 0.75

// fillRemainingSpace tops up the layout from the requested-but-unplaced pool,
// guided by priority-derived target ratios. Only members of the original
// request are ever (re-)added, so per-type placed counts can never exceed
// per-type requested counts.
func (p *Packer) fillRemainingSpace() {
	spacing := p.cfg.MinSpacing * spaceFillSpacingFactor

	// Largest types first each round; one attempted addition per type per
	// round; stop when a whole round adds nothing.
	order := make([]int, len(p.clusters))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return maxMemberRadius(p.clusters[order[i]].group) > maxMemberRadius(p.clusters[order[j]].group)
	})

	for {
		added := 0
		for _, ci := range order {
			if p.addOneOfType(&p.clusters[ci], spacing) {
				added++
			}
		}
		if added == 0 {
			break
		}
		p.conv.SpaceFillAdded += added
	}

	p.correctUnderrepresented(spacing)
}

// addOneOfType re-attempts the largest still-unplaced member of the cluster's
// type. Search order: spiral around the cluster, coarse grid scan over the
// whole bed, then random sampling.
func (p *Packer) addOneOfType(c *cluster, spacing float64) bool {
	best := -1
	for _, idx := range c.members {
		m := &p.circles[idx]
		if m.placed {
			continue
		}
		if best == -1 || m.radius > p.circles[best].radius {
			best = idx
		}
	}
	if best == -1 {
		return false
	}
	m := &p.circles[best]
	if x, y, ok := p.findFreePosition(c, m.radius, spacing); ok {
		m.x, m.y = x, y
		m.placed = true
		return true
	}
	return false
}

func (p *Packer) findFreePosition(c *cluster, radius, spacing float64) (float64, float64, bool) {
	if x, y, ok := p.spiralSearch(c.x, c.y, radius, radius*0.9, spacing, greedyAttempts, 0); ok {
		return x, y, true
	}
	if x, y, ok := p.gridScan(radius, spacing); ok {
		return x, y, true
	}
	return p.randomSearch(radius, spacing, 50)
}

// gridScan walks a coarse grid across the whole bed looking for free space.
func (p *Packer) gridScan(radius, spacing float64) (float64, float64, bool) {
	step := 2*radius + spacing
	if step <= 0 {
		return 0, 0, false
	}
	for y := radius; y <= p.bed.Height-radius; y += step {
		for x := radius; x <= p.bed.Width-radius; x += step {
			if !p.bed.Contains(x, y, radius) {
				continue
			}
			if !p.collidesAt(x, y, radius, spacing, -1) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

func (p *Packer) randomSearch(radius, spacing float64, attempts int) (float64, float64, bool) {
	for i := 0; i < attempts; i++ {
		x := radius + p.rng.Float64()*(p.bed.Width-2*radius)
		y := radius + p.rng.Float64()*(p.bed.Height-2*radius)
		x, y = p.bed.Clamp(x, y, radius)
		if !p.bed.Contains(x, y, radius) {
			continue
		}
		if !p.collidesAt(x, y, radius, spacing, -1) {
			return x, y, true
		}
	}
	return 0, 0, false
}

// maxRatioDeviation is the relative deviation from the priority-derived target
// ratio beyond which a type is considered underrepresented.
const maxRatioDeviation = 0.25

// correctionBudget caps how many extra single-instance additions the
// rebalancing pass may attempt.
const correctionBudget = 5

// correctUnderrepresented attempts a few extra additions for the types whose
// achieved share deviates most from their priority-derived target. Additions
// only: plants already placed are never removed to force ratio compliance.
func (p *Packer) correctUnderrepresented(spacing float64) {
	totalPriority := 0.0
	for i := range p.groups {
		totalPriority += p.groups[i].priority()
	}
	totalPlaced := p.placedCount()
	if totalPriority <= 0 || totalPlaced == 0 {
		return
	}

	type deficit struct {
		cluster *cluster
		amount  float64
	}
	var deficits []deficit
	for i := range p.clusters {
		c := &p.clusters[i]
		target := c.group.priority() / totalPriority
		actual := float64(p.placedOfType(c.typ)) / float64(totalPlaced)
		if target <= 0 {
			continue
		}
		if dev := (target - actual) / target; dev > maxRatioDeviation {
			deficits = append(deficits, deficit{cluster: c, amount: dev})
		}
	}
	sort.SliceStable(deficits, func(i, j int) bool { return deficits[i].amount > deficits[j].amount })

	budget := correctionBudget
	for _, d := range deficits {
		for budget > 0 && p.addOneOfType(d.cluster, spacing) {
			budget--
			p.conv.SpaceFillAdded++
		}
		if budget == 0 {
			break
		}
	}
}

func (p *Packer) placedOfType(typ string) int {
	n := 0
	for i := range p.circles {
		if p.circles[i].placed && p.circles[i].typ == typ {
			n++
		}
	}
	return n
}

func maxMemberRadius(g *PlantGroup) float64 {
	r := 0.0
	for _, m := range g.Members {
		r = math.Max(r, m.Radius)
	}
	return r
}
