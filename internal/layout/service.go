// Package layout wraps the packing engine with the operational concerns a
// caller wants around it: request caching, parallel multi-bed packing,
// metrics, tracing, and error capture. The engine itself stays a pure
// function of its arguments.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/brianruggieri/garden-craft-sub000/internal/cache"
	"github.com/brianruggieri/garden-craft-sub000/internal/config"
	"github.com/brianruggieri/garden-craft-sub000/internal/errorreporting"
	"github.com/brianruggieri/garden-craft-sub000/internal/geometry"
	"github.com/brianruggieri/garden-craft-sub000/internal/logger"
	"github.com/brianruggieri/garden-craft-sub000/internal/metrics"
	"github.com/brianruggieri/garden-craft-sub000/internal/packer"
	"github.com/brianruggieri/garden-craft-sub000/internal/tracing"
)

// BedRequest is one bed plus its plant groups. Seed fixes the engine's random
// source; a non-zero seed makes the result deterministic and cacheable.
type BedRequest struct {
	Name   string              `json:"name"`
	Bed    geometry.Bed        `json:"bed"`
	Groups []packer.PlantGroup `json:"groups"`
	Seed   int64               `json:"seed,omitempty"`
}

// Service packs beds. Safe for concurrent use; every run gets its own packer
// instance.
type Service struct {
	cache  cache.Cache // nil disables result caching
	tuning packer.Config
	log    *slog.Logger
}

// NewService builds a service with engine tuning overridden from the
// environment. A nil cache disables result caching.
func NewService(c cache.Cache) *Service {
	return &Service{
		cache:  c,
		tuning: tuningFromEnv(config.Load()),
		log:    logger.WithComponent("layout"),
	}
}

// tuningFromEnv maps the env-derived overrides onto the engine config. Zero
// fields keep the engine defaults.
func tuningFromEnv(cfg *config.Config) packer.Config {
	return packer.Config{
		Attraction:           cfg.PackerAttraction,
		Repulsion:            cfg.PackerRepulsion,
		CollisionStrength:    cfg.PackerCollisionStrength,
		BoundaryForce:        cfg.PackerBoundaryForce,
		ClusterPadding:       cfg.PackerClusterPadding,
		MinSpacing:           cfg.PackerMinSpacing,
		MaxIterations:        cfg.PackerMaxIterations,
		ConvergenceThreshold: cfg.PackerConvergence,
		Damping:              cfg.PackerDamping,
	}
}

// PackBed packs a single bed. Results for seeded requests are served from and
// stored into the cache.
func (s *Service) PackBed(ctx context.Context, req BedRequest) (res *packer.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "layout.pack_bed")
	defer span.End()
	span.SetAttributes(
		attribute.String("bed.name", req.Name),
		attribute.String("bed.shape", string(req.Bed.Shape)),
		attribute.Int("bed.groups", len(req.Groups)),
	)

	defer func() {
		if r := recover(); r != nil {
			errorreporting.CapturePanic(r, req.Name)
			metrics.PackRunsTotal.WithLabelValues("panic").Inc()
			res = nil
			err = fmt.Errorf("layout: pack %q panicked: %v", req.Name, r)
		}
	}()

	// Only seeded requests are deterministic, so only they are cacheable.
	var key string
	if s.cache != nil && req.Seed != 0 {
		key, err = cache.RequestKey("pack", req)
		if err != nil {
			return nil, err
		}
		if data, ok := s.cache.Get(key); ok {
			var cached packer.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				metrics.CacheHits.Inc()
				s.log.Debug("cache hit", "bed", req.Name)
				return &cached, nil
			}
			s.cache.Delete(key)
		}
		metrics.CacheMisses.Inc()
	}

	tuning := s.tuning
	tuning.Seed = req.Seed
	pk, err := packer.New(req.Bed, tuning)
	if err != nil {
		metrics.PackRunsTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	start := time.Now()
	res, err = pk.Pack(ctx, req.Groups)
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			metrics.PackRunsTotal.WithLabelValues("cancelled").Inc()
		} else {
			metrics.PackRunsTotal.WithLabelValues("invalid_input").Inc()
			errorreporting.CaptureError(err, req.Name)
		}
		return nil, err
	}

	s.recordRun(res, elapsed)
	s.log.Info("bed packed",
		"bed", req.Name,
		"placed", res.Stats.Placed,
		"requested", res.Stats.Requested,
		"duration_ms", elapsed.Milliseconds())

	if key != "" {
		if data, err := json.Marshal(res); err == nil {
			s.cache.Set(key, data, 0)
		}
	}
	return res, nil
}

func (s *Service) recordRun(res *packer.Result, elapsed time.Duration) {
	metrics.PackRunsTotal.WithLabelValues("success").Inc()
	metrics.PackDuration.Observe(elapsed.Seconds())
	metrics.PackPlacements.Observe(float64(res.Stats.Placed))
	metrics.PackDensity.Observe(res.Stats.Density)
	if res.Stats.Requested > 0 {
		metrics.PackFillRate.Observe(float64(res.Stats.Placed) / float64(res.Stats.Requested))
	}
	conv := res.Stats.Convergence
	metrics.ConvergenceIterations.WithLabelValues("cluster").Observe(float64(conv.ClusterIterations))
	metrics.ConvergenceIterations.WithLabelValues("member").Observe(float64(conv.MemberIterations))
	metrics.ConvergenceIterations.WithLabelValues("collision").Observe(float64(conv.CollisionIterations))
	if conv.GreedyFallback {
		metrics.FallbackActivations.WithLabelValues("greedy").Inc()
	}
	if conv.EmergencyFallback {
		metrics.FallbackActivations.WithLabelValues("emergency").Inc()
	}
	if n := len(res.Violations.Bounds); n > 0 {
		metrics.ResidualViolations.WithLabelValues("bounds").Add(float64(n))
	}
	if n := len(res.Violations.Collisions); n > 0 {
		metrics.ResidualViolations.WithLabelValues("collision").Add(float64(n))
	}
}

// PackAll packs independent beds in parallel, one packer instance per bed.
// Results are returned in request order. The first error cancels the batch.
func (s *Service) PackAll(ctx context.Context, reqs []BedRequest) ([]*packer.Result, error) {
	runID := uuid.NewString()
	log := logger.WithRun(runID)
	log.Info("packing beds", "count", len(reqs))

	results := make([]*packer.Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range reqs {
		g.Go(func() error {
			res, err := s.PackBed(ctx, reqs[i])
			if err != nil {
				return fmt.Errorf("bed %q: %w", reqs[i].Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("batch complete", "count", len(reqs))
	return results, nil
}
