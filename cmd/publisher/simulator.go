package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/module/core/service"
)

var errSimulated = errors.New("simulated send failure")

type publishFunc func(topic string, payload []byte) error

type locationMessage struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type simulator struct {
	vehicles    []string
	failureRate float64
	breaker     *service.CircuitBreaker
	publish     publishFunc
	log         logging.Logger
	rand        func() float64
	now         func() time.Time
}

func newSimulator(n int, failureRate float64, breaker *service.CircuitBreaker, publish publishFunc, log logging.Logger) *simulator {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("V%d", i+1)
	}
	return &simulator{
		vehicles:    ids,
		failureRate: failureRate,
		breaker:     breaker,
		publish:     publish,
		log:         log,
		rand:        rand.Float64,
		now:         time.Now,
	}
}

// round sends one fix per vehicle unless the breaker is open.
func (s *simulator) round(ctx context.Context) {
	for _, id := range s.vehicles {
		if s.breaker.IsOpen() {
			s.log.Warn(ctx, "circuit open, fix not sent", logging.String("vehicle_id", id))
			continue
		}

		if err := s.send(id); err != nil {
			s.breaker.RegisterFailure()
			s.log.Warn(ctx, "send failed",
				logging.String("vehicle_id", id),
				logging.Int("consecutive_failures", s.breaker.ConsecutiveFailures()),
				logging.Err(err),
			)
			if s.breaker.IsOpen() {
				s.log.Error(ctx, "circuit opened after consecutive failures")
			}
			continue
		}
		s.breaker.Reset()
		s.log.Info(ctx, "fix sent", logging.String("vehicle_id", id))
	}
}

func (s *simulator) send(vehicleID string) error {
	if s.rand() < s.failureRate {
		return errSimulated
	}

	msg := locationMessage{
		VehicleID: vehicleID,
		Latitude:  10.0 + s.rand(),
		Longitude: -74.0 + s.rand(),
		Timestamp: s.now().Unix(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.publish(fmt.Sprintf("/fleet/vehicle/%s/location", vehicleID), payload)
}

func (s *simulator) reset(ctx context.Context) {
	s.breaker.Reset()
	s.log.Info(ctx, "circuit reset")
}
