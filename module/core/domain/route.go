package domain

import "time"

type Route struct {
	ID           int64     `json:"id,omitempty"`
	VehicleID    string    `json:"vehicle_id"`
	Path         []string  `json:"path"`
	Distance     float64   `json:"distance"`
	CalculatedAt time.Time `json:"calculated_at"`
}

func (r *Route) Origin() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[0]
}

func (r *Route) Destination() string {
	if len(r.Path) == 0 {
		return ""
	}
	return r.Path[len(r.Path)-1]
}

type RouteRequest struct {
	VehicleID   string `json:"vehicle_id"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type RouteQuery struct {
	VehicleID string
	From      time.Time
	To        time.Time
}

type Waypoint struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"latitude"`
	Lon  float64 `json:"longitude"`
}
