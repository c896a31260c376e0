// Light Simulator - emulated ESP8266 MQTT lights
//
// lightsim answers the light bridge's commands the way the ESP8266 firmware
// does, so the bridge can be run end to end without hardware. It simulates
// the lights from the same config file the bridge uses.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lightbridge/internal/simulator"
)

// Version information - set at build time via ldflags
var version = "dev"

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version).With("component", "lightsim")

	mqttClient, err := mqtt.Connect(simulatorMQTTConfig(cfg))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)

	sim, err := simulator.New(simulator.Options{
		Publisher: mqttClient,
		Logger:    log,
		Lights:    cfg.Lights,
		Config:    cfg.Simulator,
	})
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	defer sim.Stop()

	if err := sim.Start(ctx, mqttClient); err != nil {
		return fmt.Errorf("starting simulator: %w", err)
	}

	log.Info("simulator running", "lights", len(sim.Devices()))
	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LIGHTBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LIGHTBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// simulatorMQTTConfig gives the simulator its own client ID and status
// topic so it never overwrites the bridge's retained status.
func simulatorMQTTConfig(cfg *config.Config) config.MQTTConfig {
	mc := cfg.MQTT
	if cfg.Simulator.ClientID != "" {
		mc.Broker.ClientID = cfg.Simulator.ClientID
		mc.TopicPrefix = cfg.Simulator.ClientID
	}
	return mc
}
