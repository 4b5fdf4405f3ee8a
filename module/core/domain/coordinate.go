package domain

import "time"

type Coordinate struct {
	VehicleID string    `json:"vehicle_id"`
	Lat       float64   `json:"latitude"`
	Lon       float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the latitude and longitude ranges only. An empty vehicle id
// is accepted here and rejected at the transport edges.
func (c *Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return ErrInvalidCoordinate
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// Equal reports whether both coordinates carry the same vehicle, position and
// timestamp.
func (c *Coordinate) Equal(o *Coordinate) bool {
	if o == nil {
		return false
	}
	return c.VehicleID == o.VehicleID &&
		c.Lat == o.Lat &&
		c.Lon == o.Lon &&
		c.Timestamp.Equal(o.Timestamp)
}
