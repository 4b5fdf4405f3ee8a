package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/nandanugg/fleet-routing/internal/logging"
	"github.com/nandanugg/fleet-routing/module/core/service"
)

var (
	broker      string
	clientID    string
	interval    time.Duration
	vehicles    int
	failureRate float64
	threshold   int
)

var rootCmd = &cobra.Command{
	Use:   "publisher",
	Short: "GPS vehicle simulator",
	Long: `Publishes random GPS fixes for a pool of vehicles to
/fleet/vehicle/{id}/location over MQTT.

Simulated send failures trip a client-side circuit breaker; type "reset"
on stdin to close it again.

Examples:
  publisher --interval=2s --vehicles=5
  publisher --failure-rate=0.3 --broker=tcp://mqtt:1883`,
	RunE: runPublisher,
}

func init() {
	defaultBroker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		defaultBroker = v
	}

	rootCmd.Flags().StringVarP(&broker, "broker", "b", defaultBroker, "MQTT broker URL")
	rootCmd.Flags().StringVar(&clientID, "client-id", "fleet-mock-publisher", "MQTT client id")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 2*time.Second, "Delay between publishing rounds")
	rootCmd.Flags().IntVarP(&vehicles, "vehicles", "n", 5, "Number of simulated vehicles")
	rootCmd.Flags().Float64Var(&failureRate, "failure-rate", 0.15, "Probability of a simulated send failure")
	rootCmd.Flags().IntVar(&threshold, "breaker-threshold", service.DefaultFailureThreshold, "Consecutive failures before the breaker opens")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runPublisher(cmd *cobra.Command, _ []string) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if vehicles <= 0 {
		return fmt.Errorf("vehicles must be positive")
	}

	log := logging.New(logging.Config{Level: "info"})

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	sim := newSimulator(vehicles, failureRate, service.NewCircuitBreaker(threshold, nil), mqttPublish(client), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchReset(ctx, sim)

	log.Info(ctx, "simulator started",
		logging.String("broker", broker),
		logging.Any("interval", interval.String()),
		logging.Int("vehicles", vehicles),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info(ctx, "shutting down")
			return nil
		case <-ticker.C:
			sim.round(ctx)
		}
	}
}

func mqttPublish(client mqtt.Client) publishFunc {
	return func(topic string, payload []byte) error {
		token := client.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(5 * time.Second) {
			return fmt.Errorf("publish %s: timeout", topic)
		}
		return token.Error()
	}
}

func watchReset(ctx context.Context, sim *simulator) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "reset") {
			sim.reset(ctx)
		}
	}
}
