package testutil

import (
	"context"
	"sync"

	"route-planner/internal/models"
)

// OptimizeCall tracks a call to the optimizer
type OptimizeCall struct {
	Start      models.GeoPoint
	Candidates []models.Waypoint
}

// MockOptimizer is a scripted optimizer for planner tests.
// With no Result and no Err it echoes the candidates back in input order.
type MockOptimizer struct {
	mu     sync.Mutex
	Result *models.OptimizedRoute
	Err    error
	Calls  []OptimizeCall
}

func NewMockOptimizer() *MockOptimizer {
	return &MockOptimizer{Calls: []OptimizeCall{}}
}

// Optimize records the call and returns the scripted result
func (m *MockOptimizer) Optimize(ctx context.Context, start models.GeoPoint, candidates []models.Waypoint) (*models.OptimizedRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]models.Waypoint, len(candidates))
	copy(recorded, candidates)
	m.Calls = append(m.Calls, OptimizeCall{Start: start, Candidates: recorded})

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.OptimizedRoute{Order: models.OrderedRoute(recorded)}, nil
}

// CallCount returns the number of Optimize calls made
func (m *MockOptimizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockPathFinder is a scripted path service for planner tests.
// With no Result and no Err it returns the requested points as the path.
type MockPathFinder struct {
	mu     sync.Mutex
	Result *models.PathResult
	Err    error
	Calls  [][]models.GeoPoint
}

func NewMockPathFinder() *MockPathFinder {
	return &MockPathFinder{Calls: [][]models.GeoPoint{}}
}

// Path records the call and returns the scripted result
func (m *MockPathFinder) Path(ctx context.Context, points []models.GeoPoint) (*models.PathResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]models.GeoPoint, len(points))
	copy(recorded, points)
	m.Calls = append(m.Calls, recorded)

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &models.PathResult{Geometry: models.PathGeometry(recorded)}, nil
}

// CallCount returns the number of Path calls made
func (m *MockPathFinder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
