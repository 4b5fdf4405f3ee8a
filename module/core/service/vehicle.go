package service

import (
	"context"
	"fmt"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/cache"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

type VehicleService struct {
	repo  database.VehicleRepository
	cache cache.RouteCache
}

func NewVehicleService(repo database.VehicleRepository, rc cache.RouteCache) *VehicleService {
	return &VehicleService{repo: repo, cache: rc}
}

func (s *VehicleService) GetVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return s.repo.GetAll(ctx)
}

func (s *VehicleService) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, v *domain.Vehicle) error {
	if v.Status == "" {
		v.Status = domain.VehicleStatusActive
	}
	return s.repo.Update(ctx, v)
}

// DeleteVehicle removes the vehicle row and its cached last coordinate. The
// row delete is rolled back when the cache delete fails. A vehicle with no
// cached coordinate is still deleted.
func (s *VehicleService) DeleteVehicle(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id, func(ctx context.Context) error {
		if _, err := s.cache.DeleteCoordinate(ctx, id); err != nil {
			return fmt.Errorf("delete cached coordinate: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete vehicle %s: %w", id, err)
	}
	return nil
}
