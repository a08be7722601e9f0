package packer

import "fmt"

// Config exposes the engine's tunables. Zero values are replaced by the
// defaults below, so callers can set only what they care about.
type Config struct {
	// Attraction is the spring strength pulling companion clusters together
	// and members toward their cluster centroid.
	Attraction float64
	// Repulsion is the push between antagonist clusters.
	Repulsion float64
	// CollisionStrength scales the pairwise separation force.
	CollisionStrength float64
	// BoundaryForce scales the pull back toward the bed center when a cluster
	// drifts past the soft margin.
	BoundaryForce float64
	// ClusterPadding is the extra spacing targeted between cluster rims.
	ClusterPadding float64
	// MinSpacing is the minimum gap targeted between placed plant rims.
	MinSpacing float64
	// MaxIterations bounds each relaxation loop.
	MaxIterations int
	// ConvergenceThreshold is the energy delta under which cluster relaxation
	// stops. Member relaxation uses a tenth of it.
	ConvergenceThreshold float64
	// Damping multiplies velocities each integration step.
	Damping float64
	// Seed fixes the per-packer random source. Zero selects a time-derived
	// seed; any other value makes runs coordinate-identical.
	Seed int64
}

// DefaultConfig returns the documented defaults. Units follow the bed (inches
// in the reference domain).
func DefaultConfig() Config {
	return Config{
		Attraction:           0.05,
		Repulsion:            0.30,
		CollisionStrength:    0.50,
		BoundaryForce:        0.80,
		ClusterPadding:       2.0,
		MinSpacing:           1.0,
		MaxIterations:        300,
		ConvergenceThreshold: 0.01,
		Damping:              0.85,
	}
}

// withDefaults fills unset fields and validates the rest.
func (c Config) withDefaults() (Config, error) {
	def := DefaultConfig()
	if c.Attraction == 0 {
		c.Attraction = def.Attraction
	}
	if c.Repulsion == 0 {
		c.Repulsion = def.Repulsion
	}
	if c.CollisionStrength == 0 {
		c.CollisionStrength = def.CollisionStrength
	}
	if c.BoundaryForce == 0 {
		c.BoundaryForce = def.BoundaryForce
	}
	if c.ClusterPadding == 0 {
		c.ClusterPadding = def.ClusterPadding
	}
	if c.MinSpacing == 0 {
		c.MinSpacing = def.MinSpacing
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.ConvergenceThreshold == 0 {
		c.ConvergenceThreshold = def.ConvergenceThreshold
	}
	if c.Damping == 0 {
		c.Damping = def.Damping
	}
	if c.MinSpacing < 0 || c.ClusterPadding < 0 {
		return c, fmt.Errorf("packer: spacing values must be non-negative")
	}
	if c.MaxIterations < 0 {
		return c, fmt.Errorf("packer: MaxIterations must be non-negative")
	}
	if c.Damping <= 0 || c.Damping >= 1 {
		return c, fmt.Errorf("packer: Damping must be in (0, 1), got %g", c.Damping)
	}
	return c, nil
}
