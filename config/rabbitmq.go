package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const rabbitDialTimeout = 5 * time.Second

// NewRabbitMQ dials the broker with a bounded connect and a heartbeat.
// Returned errors name the host, never the credentials.
func NewRabbitMQ(cfg *Config) (*amqp.Connection, error) {
	uri, err := amqp.ParseURI(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq url: %w", err)
	}

	conn, err := amqp.DialConfig(cfg.RabbitMQURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(rabbitDialTimeout),
		Properties: amqp.Table{
			"connection_name": "fleet-routing",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect %s:%d: %w", uri.Host, uri.Port, err)
	}
	return conn, nil
}
