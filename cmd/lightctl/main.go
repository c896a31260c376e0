// Light Control - interactive console for MQTT lights
//
// lightctl connects to the broker with its own client ID, loads the lights
// from the bridge config and drives them from a readline prompt. State
// changes are printed as they arrive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-lightbridge/internal/console"
	"github.com/nerrad567/gray-logic-lightbridge/internal/device"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-lightbridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Version information - set at build time via ldflags
var version = "dev"

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// clientIDSuffix keeps the console from taking over the bridge's session.
const clientIDSuffix = "-ctl"

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
	if len(cfg.Lights) == 0 {
		return fmt.Errorf("no lights configured in %s", configPath)
	}

	mqttClient, err := mqtt.Connect(consoleMQTTConfig(cfg))
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer mqttClient.Close() //nolint:errcheck // Close always returns nil

	registry, err := device.NewRegistry(device.Options{Publisher: mqttClient})
	if err != nil {
		return fmt.Errorf("creating light registry: %w", err)
	}
	if err := registry.AddAll(cfg.Lights); err != nil {
		return fmt.Errorf("loading lights: %w", err)
	}

	rl, err := console.NewReadline("lights> ", registry)
	if err != nil {
		return err
	}
	defer rl.Close()

	// Logs share the terminal with the prompt, so they go through readline.
	logCfg := cfg.Logging
	logCfg.Format = "text"
	log := logging.NewWithWriter(logCfg, version, rl.Stderr())
	mqttClient.SetLogger(log)

	registry.AddListener(func(st light.State) {
		fmt.Fprintln(rl.Stdout(), console.FormatState(st))
	})
	registry.Start(ctx)
	defer registry.Stop()

	if err := registry.Subscribe(mqttClient); err != nil {
		log.Warn("some lights are not receiving state", "error", err)
	}

	console.New(registry, rl.Stdout()).Run(ctx, rl)
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

// consoleMQTTConfig derives a separate client ID and status prefix from the
// bridge's settings.
func consoleMQTTConfig(cfg *config.Config) config.MQTTConfig {
	mc := cfg.MQTT
	mc.Broker.ClientID = cfg.MQTT.Broker.ClientID + clientIDSuffix
	mc.TopicPrefix = cfg.MQTT.TopicPrefix + clientIDSuffix
	return mc
}
