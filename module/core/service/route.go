package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var ErrInvalidRange = errors.New("from must not be after to")

// RouteService is the durable route log.
type RouteService struct {
	repo database.RouteRepository
}

func NewRouteService(repo database.RouteRepository) *RouteService {
	return &RouteService{repo: repo}
}

// Record appends a copy of route to the log so the caller's value keeps its
// own id.
func (s *RouteService) Record(ctx context.Context, route *domain.Route) error {
	entry := *route
	entry.ID = 0
	if err := s.repo.Insert(ctx, &entry); err != nil {
		return fmt.Errorf("record route: %w", err)
	}
	return nil
}

func (s *RouteService) GetRoutes(ctx context.Context) ([]domain.Route, error) {
	return s.repo.GetAll(ctx)
}

func (s *RouteService) GetHistory(ctx context.Context, query *domain.RouteQuery) ([]domain.Route, error) {
	if query.From.After(query.To) {
		return nil, ErrInvalidRange
	}
	return s.repo.GetByVehicle(ctx, query)
}
