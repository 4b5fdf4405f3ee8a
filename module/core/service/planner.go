package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

const DefaultMaxStops = 2

// PathPlanner produces the ordered waypoint names from origin to destination.
type PathPlanner interface {
	Plan(ctx context.Context, origin, destination string) ([]string, error)
}

// RandomWaypointPlanner is a placeholder: it picks up to maxStops distinct
// catalog waypoints at random. It does no path-finding.
type RandomWaypointPlanner struct {
	waypoints database.WaypointRepository
	maxStops  int
	shuffle   func(n int, swap func(i, j int))
}

func NewRandomWaypointPlanner(waypoints database.WaypointRepository, maxStops int) *RandomWaypointPlanner {
	if maxStops < 0 {
		maxStops = DefaultMaxStops
	}
	return &RandomWaypointPlanner{
		waypoints: waypoints,
		maxStops:  maxStops,
		shuffle:   rand.Shuffle,
	}
}

func (p *RandomWaypointPlanner) Plan(ctx context.Context, origin, destination string) ([]string, error) {
	catalog, err := p.waypoints.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list waypoints: %w", err)
	}

	seen := map[string]bool{origin: true, destination: true}
	candidates := make([]string, 0, len(catalog))
	for _, w := range catalog {
		if seen[w.Name] {
			continue
		}
		seen[w.Name] = true
		candidates = append(candidates, w.Name)
	}

	p.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > p.maxStops {
		candidates = candidates[:p.maxStops]
	}

	path := make([]string, 0, len(candidates)+2)
	path = append(path, origin)
	path = append(path, candidates...)
	path = append(path, destination)
	return path, nil
}

// PlaceholderDistance is 10.5 plus 2 per intermediate stop.
func PlaceholderDistance(path []string) float64 {
	stops := len(path) - 2
	if stops < 0 {
		stops = 0
	}
	return 10.5 + 2*float64(stops)
}
