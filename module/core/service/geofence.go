package service

import (
	"context"
	"fmt"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

type GeofenceService struct {
	alerts    AlertSink
	geofences []domain.GeoPoint
}

func NewGeofenceService(alerts AlertSink, geofences []domain.GeoPoint) *GeofenceService {
	return &GeofenceService{
		alerts:    alerts,
		geofences: geofences,
	}
}

// CheckAndAlert raises one GeofenceEntry alert per geofence containing c.
func (s *GeofenceService) CheckAndAlert(ctx context.Context, c *domain.Coordinate) error {
	for _, gf := range s.geofences {
		if haversine(c.Lat, c.Lon, gf.Lat, gf.Lon) > gf.Radius {
			continue
		}
		alert := &domain.Alert{
			VehicleID: c.VehicleID,
			Type:      domain.AlertGeofenceEntry,
			Message:   fmt.Sprintf("geofence entry: %.5f,%.5f within %.0fm of %.5f,%.5f", c.Lat, c.Lon, gf.Radius, gf.Lat, gf.Lon),
			CreatedAt: c.Timestamp,
		}
		if err := s.alerts.AddAlert(ctx, alert); err != nil {
			return err
		}
	}
	return nil
}
