package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/module/core/domain"
)

const topicPattern = "/fleet/vehicle/+/location"

type coordinateIngest interface {
	StoreCoordinate(ctx context.Context, c *domain.Coordinate) error
}

type locationMessage struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// LocationSubscriber feeds GPS fixes published over MQTT into the same
// ingest path as the HTTP endpoint.
type LocationSubscriber struct {
	client  mqtt.Client
	ingest  coordinateIngest
	log     logging.Logger
	timeout time.Duration
}

func NewLocationSubscriber(client mqtt.Client, ingest coordinateIngest, log logging.Logger, timeout time.Duration) *LocationSubscriber {
	if log == nil {
		log = logging.Noop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LocationSubscriber{
		client:  client,
		ingest:  ingest,
		log:     log,
		timeout: timeout,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) Stop() error {
	token := s.client.Unsubscribe(topicPattern)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, _ := logging.EnsureRequestID(context.Background())
	log := s.log.With(logging.String("topic", msg.Topic()))

	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Warn(ctx, "invalid location message", logging.Err(err))
		return
	}

	if err := validateLocationMessage(&raw); err != nil {
		log.Warn(ctx, "location message rejected", logging.Err(err))
		return
	}
	if id := vehicleFromTopic(msg.Topic()); id != "" && id != raw.VehicleID {
		log.Warn(ctx, "location message rejected",
			logging.String("vehicle_id", raw.VehicleID),
			logging.Err(fmt.Errorf("vehicle_id: does not match topic")),
		)
		return
	}

	c := &domain.Coordinate{
		VehicleID: raw.VehicleID,
		Lat:       raw.Latitude,
		Lon:       raw.Longitude,
		Timestamp: time.Unix(raw.Timestamp, 0).UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.ingest.StoreCoordinate(ctx, c); err != nil {
		log.Error(ctx, "store coordinate failed",
			logging.String("vehicle_id", c.VehicleID),
			logging.Err(err),
		)
	}
}

// vehicleFromTopic extracts the + segment of /fleet/vehicle/+/location.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[1] != "fleet" || parts[2] != "vehicle" || parts[4] != "location" {
		return ""
	}
	return parts[3]
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.VehicleID == "" {
		return fmt.Errorf("vehicle_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
