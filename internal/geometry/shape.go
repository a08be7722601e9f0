// Package geometry provides the planting-bed boundary shapes and the pure
// containment/clamping predicates the packer relies on. All functions are
// stateless; a Bed is an immutable input to one packing run.
package geometry

import (
	"fmt"
	"math"
)

// Shape identifies the boundary geometry of a bed.
type Shape string

const (
	Rectangle Shape = "rectangle"
	Circle    Shape = "circle"
	// Pill is a stadium: a rectangle capped by two semicircles. Orientation
	// follows the longer dimension (horizontal when Width >= Height).
	Pill Shape = "pill"
)

// Bed describes one planting bed. Width and Height share a single length unit
// (inches in the reference domain).
type Bed struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Shape  Shape   `json:"shape"`
}

// Validate reports malformed bed descriptors. Non-positive dimensions and
// unknown shape tags are hard errors rather than silent garbage-in.
func (b Bed) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("geometry: bed dimensions must be positive, got %gx%g", b.Width, b.Height)
	}
	switch b.Shape {
	case Rectangle, Circle, Pill:
		return nil
	case "":
		return fmt.Errorf("geometry: bed shape is empty")
	default:
		return fmt.Errorf("geometry: unknown bed shape %q", b.Shape)
	}
}

// Center returns the midpoint of the bed's bounding box.
func (b Bed) Center() (float64, float64) {
	return b.Width / 2, b.Height / 2
}

// MinDim returns the shorter of the bed's two dimensions.
func (b Bed) MinDim() float64 {
	return math.Min(b.Width, b.Height)
}

// Area returns the plantable area of the bed shape.
func (b Bed) Area() float64 {
	switch b.Shape {
	case Circle:
		r := b.MinDim() / 2
		return math.Pi * r * r
	case Pill:
		capR := b.MinDim() / 2
		long := math.Max(b.Width, b.Height)
		// Middle rectangle plus the two caps, which together form one circle.
		return (long-2*capR)*b.MinDim() + math.Pi*capR*capR
	default:
		return b.Width * b.Height
	}
}

// Contains reports whether the disk at (x, y) with the given radius lies fully
// inside the bed shape.
func (b Bed) Contains(x, y, radius float64) bool {
	switch b.Shape {
	case Circle:
		cx, cy := b.Center()
		bedR := b.MinDim() / 2
		return math.Hypot(x-cx, y-cy)+radius <= bedR+containEpsilon
	case Pill:
		return b.pillContains(x, y, radius)
	default:
		return x-radius >= -containEpsilon &&
			x+radius <= b.Width+containEpsilon &&
			y-radius >= -containEpsilon &&
			y+radius <= b.Height+containEpsilon
	}
}

// Clamp moves the disk center to the nearest position at which the disk is
// fully contained. Disks larger than the shape collapse onto its center.
func (b Bed) Clamp(x, y, radius float64) (float64, float64) {
	switch b.Shape {
	case Circle:
		cx, cy := b.Center()
		bedR := b.MinDim() / 2
		return clampIntoCap(x, y, cx, cy, bedR, radius)
	case Pill:
		return b.pillClamp(x, y, radius)
	default:
		return clamp(x, radius, b.Width-radius), clamp(y, radius, b.Height-radius)
	}
}

// containEpsilon absorbs float round-off on the shape boundary so a circle
// clamped exactly onto it still tests as contained.
const containEpsilon = 1e-9

// pillGeometry resolves the stadium sub-regions: cap radius, the two cap
// centers, and whether the long axis is horizontal.
func (b Bed) pillGeometry() (capR, c1x, c1y, c2x, c2y float64, horizontal bool) {
	capR = b.MinDim() / 2
	if b.Width >= b.Height {
		return capR, capR, b.Height / 2, b.Width - capR, b.Height / 2, true
	}
	return capR, b.Width / 2, capR, b.Width / 2, b.Height - capR, false
}

func (b Bed) pillContains(x, y, radius float64) bool {
	capR, c1x, c1y, c2x, c2y, horizontal := b.pillGeometry()
	if horizontal {
		if x >= c1x && x <= c2x {
			// Middle rectangle: full height available.
			return y-radius >= -containEpsilon && y+radius <= b.Height+containEpsilon
		}
		if x < c1x {
			return math.Hypot(x-c1x, y-c1y)+radius <= capR+containEpsilon
		}
		return math.Hypot(x-c2x, y-c2y)+radius <= capR+containEpsilon
	}
	if y >= c1y && y <= c2y {
		return x-radius >= -containEpsilon && x+radius <= b.Width+containEpsilon
	}
	if y < c1y {
		return math.Hypot(x-c1x, y-c1y)+radius <= capR+containEpsilon
	}
	return math.Hypot(x-c2x, y-c2y)+radius <= capR+containEpsilon
}

func (b Bed) pillClamp(x, y, radius float64) (float64, float64) {
	capR, c1x, c1y, c2x, c2y, horizontal := b.pillGeometry()
	if horizontal {
		switch {
		case x < c1x:
			return clampIntoCap(x, y, c1x, c1y, capR, radius)
		case x > c2x:
			return clampIntoCap(x, y, c2x, c2y, capR, radius)
		default:
			return x, clamp(y, radius, b.Height-radius)
		}
	}
	switch {
	case y < c1y:
		return clampIntoCap(x, y, c1x, c1y, capR, radius)
	case y > c2y:
		return clampIntoCap(x, y, c2x, c2y, capR, radius)
	default:
		return clamp(x, radius, b.Width-radius), y
	}
}

// clampIntoCap scales the offset vector from the cap center so the disk sits
// exactly on the cap boundary when it would otherwise poke out.
func clampIntoCap(x, y, cx, cy, capR, radius float64) (float64, float64) {
	maxDist := capR - radius
	if maxDist <= 0 {
		return cx, cy
	}
	dx := x - cx
	dy := y - cy
	dist := math.Hypot(dx, dy)
	if dist <= maxDist {
		return x, y
	}
	scale := maxDist / dist
	return cx + dx*scale, cy + dy*scale
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		// Disk larger than the span; settle on the middle.
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
