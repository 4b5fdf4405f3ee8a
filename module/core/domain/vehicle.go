package domain

import "time"

const VehicleStatusActive = "active"

type Vehicle struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LicensePlate string    `json:"license_plate"`
	Model        string    `json:"model"`
	Year         int       `json:"year"`
	Status       string    `json:"status"`
	LastLocation string    `json:"last_location"`
	LastSeen     time.Time `json:"last_seen"`
}

type AuditEvent string

const (
	AuditRouteCalculated AuditEvent = "RouteCalculated"
	AuditCircuitOpen     AuditEvent = "CircuitBreakerOpen"
	AuditCircuitReset    AuditEvent = "CircuitBreakerReset"
)

type AuditLog struct {
	VehicleID string     `json:"vehicle_id"`
	EventType AuditEvent `json:"event_type"`
	Details   string     `json:"details"`
	Timestamp time.Time  `json:"timestamp"`
}

type CircuitStatus struct {
	IsOpen              bool `json:"is_open"`
	ConsecutiveFailures int  `json:"consecutive_failures"`
	FailureThreshold    int  `json:"failure_threshold"`
}
