package routing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"route-planner/internal/distance"
	"route-planner/internal/geometry"
	"route-planner/internal/metrics"
	"route-planner/internal/models"
)

// A reported distance shorter than this share of the great-circle length of
// the route cannot come from a real road path
const implausibleDistanceRatio = 0.95

// Planner reconciles remote optimization, remote path geometry and the local
// heuristic into a single route artifact. Each planning request runs
// ORDERING then GEOMETRY then DONE, calling each remote service at most once.
type Planner struct {
	optimizer Optimizer
	paths     PathFinder
	now       func() time.Time
}

// NewPlanner creates a planner over the given remote adapters
func NewPlanner(optimizer Optimizer, paths PathFinder) *Planner {
	return &Planner{
		optimizer: optimizer,
		paths:     paths,
		now:       time.Now,
	}
}

// Plan computes a visiting order and path for the candidates. Remote failures
// degrade into notes on the artifact; the only error returned is a
// configuration error (models.ErrMissingCredential).
func (p *Planner) Plan(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.RouteArtifact, error) {
	artifact := &models.RouteArtifact{
		ID:             uuid.NewString(),
		Start:          start,
		Order:          models.OrderedRoute{},
		Geometry:       models.PathGeometry{},
		Notes:          []models.Note{},
		OrderSource:    models.SourceNone,
		GeometrySource: models.SourceNone,
		CreatedAt:      p.now(),
	}

	if len(candidates) == 0 {
		log.Printf("[PLANNER] No candidates to plan: id=%s", artifact.ID)
		metrics.PlansTotal.WithLabelValues("empty").Inc()
		return artifact, nil
	}

	log.Printf("[PLANNER] Starting plan: id=%s candidates=%d start=(%.6f,%.6f)", artifact.ID, len(candidates), start.Lat, start.Lng)

	optimizerGeometry, err := p.order(ctx, artifact, candidates)
	if err != nil {
		metrics.PlansTotal.WithLabelValues("config_error").Inc()
		return nil, err
	}

	if len(optimizerGeometry) > 0 {
		artifact.Geometry = optimizerGeometry
		artifact.GeometrySource = models.SourceOptimizer
		log.Printf("[PLANNER] Using optimizer geometry: id=%s points=%d", artifact.ID, len(optimizerGeometry))
	} else if err := p.geometry(ctx, artifact); err != nil {
		metrics.PlansTotal.WithLabelValues("config_error").Inc()
		return nil, err
	}

	p.checkDistance(artifact)

	outcome := "complete"
	if artifact.Degraded() {
		outcome = "degraded"
	}
	metrics.PlansTotal.WithLabelValues(outcome).Inc()

	log.Printf("[PLANNER] Plan done: id=%s stops=%d order_source=%s geometry_source=%s geometry_points=%d notes=%d",
		artifact.ID, len(artifact.Order), artifact.OrderSource, artifact.GeometrySource, len(artifact.Geometry), len(artifact.Notes))
	return artifact, nil
}

// order runs the ORDERING state. It returns optimizer geometry when that
// geometry is usable for the final order.
func (p *Planner) order(ctx context.Context, a *models.RouteArtifact, candidates []models.Waypoint) (models.PathGeometry, error) {
	optimized, err := p.optimizer.Optimize(ctx, a.Start, candidates)
	if err == nil && optimized == nil {
		err = errors.New("optimizer returned no result")
	}
	if err != nil {
		if errors.Is(err, models.ErrMissingCredential) {
			log.Printf("[ERROR] Optimizer not configured: id=%s err=%v", a.ID, err)
			return nil, err
		}

		log.Printf("[PLANNER] Optimizer unavailable, falling back to nearest neighbor: id=%s err=%v", a.ID, err)
		p.note(a, models.NoteOptimizationUnavailable, fmt.Sprintf("route optimization unavailable, visiting order computed locally: %v", err))

		order, miles := NearestNeighbor(a.Start, candidates)
		a.Order = order
		a.Stats = models.RouteStatistics{DistanceMiles: &miles}
		a.OrderSource = models.SourceLocal
		return nil, nil
	}

	a.OrderSource = models.SourceOptimizer
	a.Stats = optimized.Stats

	for _, job := range optimized.UnknownJobs {
		p.note(a, models.NoteUnknownCandidate, fmt.Sprintf("optimizer returned unknown job %d, step dropped", job))
	}

	order, repaired := p.reconcileOrder(a, candidates, optimized.Order)
	a.Order = order
	repaired = repaired || len(optimized.UnknownJobs) > 0

	if optimized.GeometryDiscarded != "" {
		p.note(a, models.NoteGeometryDiscarded, fmt.Sprintf("optimizer geometry discarded: %s", optimized.GeometryDiscarded))
	}
	if len(optimized.Geometry) == 0 {
		return nil, nil
	}
	if repaired {
		p.note(a, models.NoteGeometryDiscarded, "optimizer geometry discarded: visiting order was repaired")
		return nil, nil
	}
	if err := geometry.Plausible(optimized.Geometry); err != nil {
		p.note(a, models.NoteGeometryDiscarded, fmt.Sprintf("optimizer geometry discarded: %v", err))
		return nil, nil
	}
	return optimized.Geometry, nil
}

// reconcileOrder makes the proposed order a permutation of the candidates:
// unknown and repeated identifiers are dropped, omitted candidates are
// appended by nearest-neighbor continuation from the last stop.
func (p *Planner) reconcileOrder(a *models.RouteArtifact, candidates []models.Waypoint, proposed models.OrderedRoute) (models.OrderedRoute, bool) {
	byID := make(map[string]models.Waypoint, len(candidates))
	for _, c := range candidates {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}

	repaired := false
	seen := make(map[string]bool, len(candidates))
	order := make(models.OrderedRoute, 0, len(candidates))

	for _, w := range proposed {
		known, ok := byID[w.ID]
		if !ok {
			p.note(a, models.NoteUnknownCandidate, fmt.Sprintf("optimizer returned unknown waypoint %q, step dropped", w.ID))
			repaired = true
			continue
		}
		if seen[w.ID] {
			p.note(a, models.NoteDuplicateCandidate, fmt.Sprintf("optimizer visited waypoint %q more than once, repeat dropped", w.ID))
			repaired = true
			continue
		}
		seen[w.ID] = true
		order = append(order, known)
	}

	var missing []models.Waypoint
	for _, c := range candidates {
		if !seen[c.ID] {
			seen[c.ID] = true
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		repaired = true
		from := a.Start
		if len(order) > 0 {
			from = order[len(order)-1].Location
		}
		tail, _ := continueNearest(from, missing)
		for _, w := range tail {
			p.note(a, models.NoteMissingCandidate, fmt.Sprintf("optimizer omitted waypoint %q, appended by nearest neighbor", w.ID))
		}
		order = append(order, tail...)
	}

	if repaired {
		log.Printf("[PLANNER] Repaired optimizer order: id=%s proposed=%d final=%d", a.ID, len(proposed), len(order))
	}
	return order, repaired
}

// geometry runs the GEOMETRY state with a single path service call
func (p *Planner) geometry(ctx context.Context, a *models.RouteArtifact) error {
	points := a.StraightLine()

	result, err := p.paths.Path(ctx, points)
	if err == nil && result == nil {
		err = errors.New("path service returned no result")
	}
	if err == nil {
		err = geometry.Plausible(result.Geometry)
	}
	if err != nil {
		if errors.Is(err, models.ErrMissingCredential) {
			log.Printf("[ERROR] Path service not configured: id=%s err=%v", a.ID, err)
			return err
		}
		log.Printf("[PLANNER] Path service unavailable, straight-line fallback: id=%s err=%v", a.ID, err)
		p.note(a, models.NoteGeometryUnavailable, fmt.Sprintf("path geometry unavailable, draw straight lines between stops: %v", err))
		return nil
	}

	a.Geometry = result.Geometry
	a.GeometrySource = models.SourcePath
	if result.Stats.DistanceMiles != nil {
		a.Stats.DistanceMiles = result.Stats.DistanceMiles
	}
	if result.Stats.DurationMinutes != nil {
		a.Stats.DurationMinutes = result.Stats.DurationMinutes
	}
	return nil
}

// checkDistance replaces a reported distance shorter than the great-circle
// lower bound of the route
func (p *Planner) checkDistance(a *models.RouteArtifact) {
	if a.Stats.DistanceMiles == nil {
		return
	}

	lower := distance.PathMiles(a.StraightLine())
	reported := *a.Stats.DistanceMiles
	if reported >= lower*implausibleDistanceRatio {
		return
	}

	p.note(a, models.NoteDistanceImplausible, fmt.Sprintf("reported distance %.2f mi is below the great-circle length %.2f mi, using the latter", reported, lower))
	a.Stats.DistanceMiles = &lower
}

func (p *Planner) note(a *models.RouteArtifact, code, message string) {
	a.Notes = append(a.Notes, models.Note{Code: code, Message: message})
	metrics.FallbacksTotal.WithLabelValues(code).Inc()
}
