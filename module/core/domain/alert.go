package domain

import "time"

type AlertType string

const (
	AlertDeadlock      AlertType = "Deadlock"
	AlertError         AlertType = "Error"
	AlertGeofenceEntry AlertType = "GeofenceEntry"
)

type Alert struct {
	ID        int64     `json:"id,omitempty"`
	VehicleID string    `json:"vehicle_id"`
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// GeoPoint is a circular geofence; Radius is in meters.
type GeoPoint struct {
	Lat    float64 `json:"latitude"`
	Lon    float64 `json:"longitude"`
	Radius float64 `json:"radius"`
}
